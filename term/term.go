// Package term defines the minimal value model the node protocol is built on:
// atoms, tuples, lists, pids, and references.
//
// The decoder and reply layers only recognize and read these values — they
// never invent new pids or refs. The wire codec is the one place new term
// values are materialized, when frames arrive from a peer.
package term

import "fmt"

// Atom is an interned symbolic identifier, compared by equality.
// Protocol tags, module names, and function names are all atoms.
type Atom string

// Text returns the atom's textual rendering without quoting.
func (a Atom) Text() string {
	return string(a)
}

func (a Atom) String() string {
	return "'" + string(a) + "'"
}

// Tuple is an ordered, fixed-arity structure. Element order is significant —
// the protocol grammar is positional.
type Tuple []any

// Arity returns the number of elements.
func (t Tuple) Arity() int {
	return len(t)
}

// List is a compound list term as produced by the wire codec.
// It is distinct from a bare []any sequence on purpose: upstream decoding may
// hand a call's argument sequence over in either form, and consumers that
// need the elements go through Elements instead of caring which one arrived.
type List struct {
	Items []any
}

// Elements returns the ordered element slice.
func (l List) Elements() []any {
	return l.Items
}

// Pid identifies a process on a node. It is opaque to the protocol layers
// except for Node, which the abnormal-termination reply uses to address the
// sender's own node.
type Pid struct {
	Node     Atom   // Owning node name, e.g. "demo@localhost"
	ID       uint32 // Process index on the owning node
	Serial   uint32 // Disambiguates reused IDs
	Creation byte   // Incarnation of the owning node
}

// NodeName returns the owning node's name as a string.
func (p Pid) NodeName() string {
	return string(p.Node)
}

func (p Pid) String() string {
	return fmt.Sprintf("#Pid<%s.%d.%d>", string(p.Node), p.ID, p.Serial)
}

// Ref is a caller-generated unique reference. The call protocol uses one per
// outstanding call as the correlation token; this package never mints them.
type Ref struct {
	Node     Atom
	Creation byte
	ID       [3]uint32
}

func (r Ref) String() string {
	return fmt.Sprintf("#Ref<%s.%d.%d.%d>", string(r.Node), r.ID[0], r.ID[1], r.ID[2])
}
