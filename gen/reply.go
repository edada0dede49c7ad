package gen

import (
	"fmt"

	"erlnode/term"
)

// ExitMarker tags the abnormal-termination reply recognized by peers.
const ExitMarker = term.Atom("monitor_p_exit")

// NodeConn is an addressable node context obtained from a Router. Send
// delivers an ordinary message between processes; DispatchDirective issues a
// node-level control message to the named node instead of a process.
type NodeConn interface {
	Send(sender, receiver, message any) error
	DispatchDirective(receiverNode string, message any) error
}

// Router resolves a node name to an addressable node context. The routing
// layer implements it; the reply operations take it as an explicit handle
// rather than reaching into any global node table.
type Router interface {
	Node(name string) (NodeConn, bool)
}

// Reply answers the call with a normal result: the message {Ref, Result} is
// delivered from local to the original sender, routed through the node the
// envelope arrived on. Exactly one delivery is issued; no state is retained.
func (c *ReplyContext) Reply(r Router, local term.Pid, result any) error {
	n, ok := r.Node(c.NodeName)
	if !ok {
		return fmt.Errorf("unknown node: %s", c.NodeName)
	}
	return n.Send(local, c.Sender, term.Tuple{c.Ref, result})
}

// ReplyExit answers the call with an abnormal-termination notification,
// causing reason to be re-raised as an exit on the caller side. The directive
// is addressed to the sender pid's own node, not the node the envelope
// arrived on.
//
// The caller of the original gen:call is expected to have monitored the
// target first; if that monitor was never established, the notification is
// still constructed and issued but has no effect at the remote end. That
// precondition lives in the transport layer and is not checked here.
func (c *ReplyContext) ReplyExit(r Router, local term.Pid, reason any) error {
	sender, ok := c.Sender.(term.Pid)
	if !ok {
		return fmt.Errorf("sender is not a pid: %v", c.Sender)
	}
	n, ok := r.Node(c.NodeName)
	if !ok {
		return fmt.Errorf("unknown node: %s", c.NodeName)
	}
	reply := term.Tuple{ExitMarker, local, c.Sender, c.Ref, reason}
	return n.DispatchDirective(sender.NodeName(), reply)
}
