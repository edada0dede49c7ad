package routing

import (
	"fmt"
	"sync"

	count "github.com/jayalane/go-counter"

	"erlnode/term"
)

const (
	defaultMailboxSize  = 64
	directiveBufferSize = 64
)

// LocalNode is an in-process node: a set of pid-keyed mailboxes plus a queue
// of node-level directives. It implements gen.NodeConn, and forwards traffic
// for pids it does not own through the table it was created in.
type LocalNode struct {
	name  string
	table *Table

	mu        sync.RWMutex
	mailboxes map[term.Pid]chan any

	directives chan any
}

func newLocalNode(name string, table *Table) *LocalNode {
	return &LocalNode{
		name:       name,
		table:      table,
		mailboxes:  make(map[term.Pid]chan any),
		directives: make(chan any, directiveBufferSize),
	}
}

func (n *LocalNode) Name() string {
	return n.name
}

// Bind creates a mailbox for pid and returns its receive side. size <= 0
// uses the default. Rebinding a pid replaces the old mailbox.
func (n *LocalNode) Bind(pid term.Pid, size int) <-chan any {
	if size <= 0 {
		size = defaultMailboxSize
	}
	mbox := make(chan any, size)
	n.mu.Lock()
	n.mailboxes[pid] = mbox
	n.mu.Unlock()
	return mbox
}

// Unbind removes a pid's mailbox; later sends to it fail.
func (n *LocalNode) Unbind(pid term.Pid) {
	n.mu.Lock()
	delete(n.mailboxes, pid)
	n.mu.Unlock()
}

// Send delivers message from sender to receiver. A receiver owned by this
// node goes straight into its mailbox; any other pid is forwarded through the
// table. Delivery into a full mailbox drops the message rather than blocking
// the routing path — a stuck process must not stall its whole node.
func (n *LocalNode) Send(sender, receiver, message any) error {
	pid, ok := receiver.(term.Pid)
	if !ok {
		return fmt.Errorf("receiver is not a pid: %v", receiver)
	}

	if pid.NodeName() != n.name {
		conn, ok := n.table.Node(pid.NodeName())
		if !ok {
			return fmt.Errorf("unknown node: %s", pid.NodeName())
		}
		return conn.Send(sender, receiver, message)
	}

	n.mu.RLock()
	mbox, ok := n.mailboxes[pid]
	n.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no process bound to %v", pid)
	}

	select {
	case mbox <- message:
		count.IncrSuffix("route_send", n.name)
		return nil
	default:
		count.IncrSuffix("route_mailbox_drop", n.name)
		return fmt.Errorf("mailbox full for %v", pid)
	}
}

// DispatchDirective issues a node-level control message to receiverNode,
// which may be this node or any node known to the table.
func (n *LocalNode) DispatchDirective(receiverNode string, message any) error {
	if receiverNode == n.name {
		n.pushDirective(message)
		return nil
	}
	conn, ok := n.table.Node(receiverNode)
	if !ok {
		return fmt.Errorf("unknown node: %s", receiverNode)
	}
	return conn.DispatchDirective(receiverNode, message)
}

// Directives exposes the node-level control queue. The abnormal-termination
// replies of the call protocol arrive here.
func (n *LocalNode) Directives() <-chan any {
	return n.directives
}

func (n *LocalNode) pushDirective(message any) {
	select {
	case n.directives <- message:
		count.IncrSuffix("route_directive", n.name)
	default:
		count.IncrSuffix("route_directive_drop", n.name)
	}
}
