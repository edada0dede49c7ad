// Package routing implements the routing layer the gen core replies through:
// a table of addressable nodes, in-process local nodes with pid-keyed
// mailboxes, and remote nodes reached over framed connections.
//
// Inbound: a single goroutine per connection reads frames (ServeConn) and
// delivers them into local mailboxes or directive queues. Outbound: Send and
// DispatchDirective on a node handle, local or remote, with the Table
// resolving names — it is the gen.Router given to reply operations.
package routing

import (
	"io"
	"log"
	"net"
	"sync"

	count "github.com/jayalane/go-counter"

	"erlnode/codec"
	"erlnode/gen"
	"erlnode/protocol"
	"erlnode/term"
)

// Table maps node names to node handles. It implements gen.Router.
type Table struct {
	mu    sync.RWMutex
	nodes map[string]gen.NodeConn
}

func NewTable() *Table {
	return &Table{
		nodes: make(map[string]gen.NodeConn),
	}
}

// AddLocal creates an in-process node and registers it under name.
func (t *Table) AddLocal(name string) *LocalNode {
	n := newLocalNode(name, t)
	t.mu.Lock()
	t.nodes[name] = n
	t.mu.Unlock()
	return n
}

// AddRemote registers a handle for a node reached elsewhere, typically a
// *RemoteNode from the Connector.
func (t *Table) AddRemote(name string, conn gen.NodeConn) {
	t.mu.Lock()
	t.nodes[name] = conn
	t.mu.Unlock()
}

// Remove drops a node from the table. In-flight deliveries holding the old
// handle finish against it.
func (t *Table) Remove(name string) {
	t.mu.Lock()
	delete(t.nodes, name)
	t.mu.Unlock()
}

// Node resolves a node name. Implements gen.Router.
func (t *Table) Node(name string) (gen.NodeConn, bool) {
	t.mu.RLock()
	n, ok := t.nodes[name]
	t.mu.RUnlock()
	return n, ok
}

func (t *Table) local(name string) (*LocalNode, bool) {
	n, ok := t.Node(name)
	if !ok {
		return nil, false
	}
	ln, ok := n.(*LocalNode)
	return ln, ok
}

// ServeConn reads frames from an accepted connection and delivers them to the
// local nodes in this table. Reads are sequential — frame boundaries require
// a single reader per connection. Returns nil when the peer closes.
//
// Undeliverable frames (unknown node, malformed body) are logged and counted
// but do not tear the connection down: one bad peer message should not sever
// the whole node link.
func (t *Table) ServeConn(conn net.Conn) error {
	defer conn.Close()
	for {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		// Heartbeats only prove the link is alive
		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}

		v, err := codec.Decode(body)
		if err != nil {
			log.Printf("routing: dropping undecodable frame: %v", err)
			count.Incr("route_frame_drop")
			continue
		}

		switch header.MsgType {
		case protocol.MsgTypeSend:
			t.handleSend(v)
		case protocol.MsgTypeDirective:
			t.handleDirective(v)
		}
	}
}

// handleSend delivers an inbound {Sender, Receiver, Message} to the local
// node owning the receiver pid.
func (t *Table) handleSend(v any) {
	tup, ok := v.(term.Tuple)
	if !ok || len(tup) != 3 {
		log.Printf("routing: malformed send frame: %v", v)
		count.Incr("route_frame_drop")
		return
	}
	receiver, ok := tup[1].(term.Pid)
	if !ok {
		log.Printf("routing: send frame receiver is not a pid: %v", tup[1])
		count.Incr("route_frame_drop")
		return
	}
	ln, ok := t.local(receiver.NodeName())
	if !ok {
		log.Printf("routing: no local node %s for inbound send", receiver.NodeName())
		count.Incr("route_frame_drop")
		return
	}
	if err := ln.Send(tup[0], receiver, tup[2]); err != nil {
		log.Printf("routing: inbound delivery failed: %v", err)
	}
}

// handleDirective queues an inbound {ReceiverNode, Message} on the named
// local node.
func (t *Table) handleDirective(v any) {
	tup, ok := v.(term.Tuple)
	if !ok || len(tup) != 2 {
		log.Printf("routing: malformed directive frame: %v", v)
		count.Incr("route_frame_drop")
		return
	}
	name, ok := tup[0].(term.Atom)
	if !ok {
		log.Printf("routing: directive frame node is not an atom: %v", tup[0])
		count.Incr("route_frame_drop")
		return
	}
	ln, ok := t.local(name.Text())
	if !ok {
		log.Printf("routing: no local node %s for inbound directive", name.Text())
		count.Incr("route_frame_drop")
		return
	}
	ln.pushDirective(tup[1])
}
