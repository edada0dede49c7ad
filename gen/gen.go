// Package gen implements recognition, decoding, and replying for the
// gen:call synchronous-call convention carried over node messaging.
//
// An incoming call envelope looks like:
//
//	{'$gen_call', {From, Ref}, {call, Mod, Fun, Args, GroupLeader}}
//
// and a generic (non-call) envelope carries an arbitrary body in the third
// position. ParseCall and ParseMessage classify a raw envelope against those
// shapes; the resulting descriptor holds everything needed to route a reply
// back later, from any call site, through an injected Router.
//
// Decoding never panics: every rejection is an ordinary error value whose
// text names the reason (and the offending value for type mismatches), so a
// malformed envelope is simply "not a call" from the caller's point of view.
package gen

import (
	"errors"
	"fmt"

	"erlnode/term"
)

// CallTag marks the outer envelope of a synchronous call.
const CallTag = term.Atom("$gen_call")

// ReplyContext is the reply addressing state extracted from the outer
// envelope: which node the envelope arrived on, who to answer, and the
// correlation token pairing the answer with the request. Treat it as
// read-only once constructed. The protocol expects at most one reply per
// Ref, but that is the owner's convention to keep — nothing here tracks
// whether a reply was already issued.
type ReplyContext struct {
	NodeName string // Node the envelope arrived on; replies are routed through it
	Sender   any    // Where to send the reply, stored untouched (a term.Pid in practice)
	Ref      any    // Caller-generated correlation token, passed through verbatim
}

// IncomingMessage is a decoded generic envelope: reply context plus the body
// kept verbatim as an opaque payload.
type IncomingMessage struct {
	ReplyContext
	Message any
}

func (m *IncomingMessage) String() string {
	return fmt.Sprintf("IncomingMessage(%v)", m.Message)
}

// IncomingCall is a decoded call envelope: reply context plus the call
// components. CallArgs keeps the raw received form — either a bare []any
// sequence or a term.List — and Args presents them uniformly.
type IncomingCall struct {
	ReplyContext
	Mod         term.Atom // Module name
	Fun         term.Atom // Function name
	CallArgs    any       // Raw argument form as received
	GroupLeader any       // Caller's group leader pid, passed through uninterpreted
}

// ModName returns the module name as a string.
func (c *IncomingCall) ModName() string {
	return c.Mod.Text()
}

// FunName returns the function name as a string.
func (c *IncomingCall) FunName() string {
	return c.Fun.Text()
}

// Args returns the call arguments as an ordered slice, regardless of whether
// they arrived as a bare sequence or wrapped in a list term. Any other shape
// yields nil.
func (c *IncomingCall) Args() []any {
	if s, ok := c.CallArgs.([]any); ok {
		return s
	}
	if l, ok := c.CallArgs.(term.List); ok {
		return l.Elements()
	}
	return nil
}

// parseOuter validates the shared outer shape {'$gen_call', {From, Ref}, Body}
// and extracts the reply context and body.
func parseOuter(msg any, nodeName string) (ReplyContext, any, error) {
	tup, ok := msg.(term.Tuple)
	if !ok {
		return ReplyContext{}, nil, fmt.Errorf("only tuple messages allowed, got %T", msg)
	}
	if len(tup) != 3 {
		return ReplyContext{}, nil, fmt.Errorf("expected a 3-tuple {'$gen_call', _, _}, got arity %d", len(tup))
	}

	// The tag must be the reserved call atom — anything else is not a call.
	tag, ok := tup[0].(term.Atom)
	if !ok || tag != CallTag {
		return ReplyContext{}, nil, errors.New("only {'$gen_call', _, _} messages allowed")
	}

	// Second element carries the reply address: a {From, Ref} pair.
	// Neither From nor Ref is validated beyond the destructuring itself.
	fromRef, ok := tup[1].(term.Tuple)
	if !ok || len(fromRef) != 2 {
		return ReplyContext{}, nil, fmt.Errorf("expected a {From, Ref} pair, got %v", tup[1])
	}

	ctx := ReplyContext{
		NodeName: nodeName,
		Sender:   fromRef[0],
		Ref:      fromRef[1],
	}
	return ctx, tup[2], nil
}

// ParseMessage decodes a generic gen envelope arriving on nodeName. The body
// is accepted as-is; only the outer shape and tag are checked. Useful for gen
// messages that are not calls (or before deciding they are).
func ParseMessage(msg any, nodeName string) (*IncomingMessage, error) {
	ctx, body, err := parseOuter(msg, nodeName)
	if err != nil {
		return nil, err
	}
	return &IncomingMessage{ReplyContext: ctx, Message: body}, nil
}

// ParseCall decodes a gen:call RPC envelope arriving on nodeName. On top of
// the outer shape, the body must be the 5-tuple
// {call, Mod, Fun, Args, GroupLeader} with atom Mod and Fun. The first body
// element is accepted as-is: peers are not held to the exact 'call' marker,
// and tightening that check would reject traffic accepted today.
func ParseCall(msg any, nodeName string) (*IncomingCall, error) {
	ctx, rawBody, err := parseOuter(msg, nodeName)
	if err != nil {
		return nil, err
	}

	body, ok := rawBody.(term.Tuple)
	if !ok || len(body) != 5 {
		return nil, errors.New("expected a 5-tuple call body (with a 'call' marker)")
	}

	mod, ok := body[1].(term.Atom)
	if !ok {
		return nil, fmt.Errorf("module must be an atom: %v", body[1])
	}
	fun, ok := body[2].(term.Atom)
	if !ok {
		return nil, fmt.Errorf("function must be an atom: %v", body[2])
	}

	return &IncomingCall{
		ReplyContext: ctx,
		Mod:          mod,
		Fun:          fun,
		CallArgs:     body[3],
		GroupLeader:  body[4],
	}, nil
}
