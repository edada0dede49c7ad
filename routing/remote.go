package routing

import (
	"net"
	"sync"
	"time"

	count "github.com/jayalane/go-counter"

	"erlnode/codec"
	"erlnode/protocol"
	"erlnode/term"
)

const heartbeatInterval = 30 * time.Second

// RemoteNode is the handle for a node reached over an established connection.
// It implements gen.NodeConn by framing codec-encoded terms onto the conn.
//
// There is exactly one connection per node pair — no pooling. Frame writes
// are serialized by the sending mutex: two goroutines interleaving header and
// body bytes would corrupt the stream for everything after.
type RemoteNode struct {
	name    string
	conn    net.Conn
	sending sync.Mutex
}

// NewRemoteNode wraps an already-established connection to the named node and
// starts the heartbeat loop. Dialing (and deciding whether to dial at all)
// belongs to the caller — see Connector.
func NewRemoteNode(name string, conn net.Conn) *RemoteNode {
	n := &RemoteNode{
		name: name,
		conn: conn,
	}
	go n.heartbeatLoop(heartbeatInterval)
	return n
}

func (n *RemoteNode) Name() string {
	return n.name
}

// Send frames {Sender, Receiver, Message} to the remote node.
func (n *RemoteNode) Send(sender, receiver, message any) error {
	body, err := codec.Encode(term.Tuple{sender, receiver, message})
	if err != nil {
		return err
	}
	count.IncrSuffix("route_remote_send", n.name)
	return n.writeFrame(protocol.MsgTypeSend, body)
}

// DispatchDirective frames {ReceiverNode, Message} as a node-level directive.
func (n *RemoteNode) DispatchDirective(receiverNode string, message any) error {
	body, err := codec.Encode(term.Tuple{term.Atom(receiverNode), message})
	if err != nil {
		return err
	}
	count.IncrSuffix("route_remote_directive", n.name)
	return n.writeFrame(protocol.MsgTypeDirective, body)
}

// Close tears the connection down; the heartbeat loop exits on its next
// failed write.
func (n *RemoteNode) Close() error {
	return n.conn.Close()
}

func (n *RemoteNode) writeFrame(msgType protocol.MsgType, body []byte) error {
	header := protocol.Header{
		MsgType: msgType,
		BodyLen: uint32(len(body)),
	}
	n.sending.Lock()
	defer n.sending.Unlock()
	return protocol.Encode(n.conn, &header, body)
}

// heartbeatLoop writes a bodyless heartbeat frame on every tick so the peer
// can tell a quiet link from a dead one.
func (n *RemoteNode) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		header := &protocol.Header{
			MsgType: protocol.MsgTypeHeartbeat,
			BodyLen: 0,
		}
		n.sending.Lock()
		err := protocol.Encode(n.conn, header, nil)
		n.sending.Unlock()
		if err != nil {
			return // Connection broken or closed
		}
	}
}
