// Package dispatch turns decoded gen:call envelopes into Go method calls.
//
// Envelope processing pipeline:
//
//	HandleEnvelope → gen.ParseCall → middleware chain → module method (reflect.Call)
//	  → Reply (normal result) | ReplyExit (handler error)
//	non-call envelopes → gen.ParseMessage → OnMessage callback
package dispatch

import (
	"context"
	"fmt"
	"log"

	"erlnode/gen"
	"erlnode/middleware"
	"erlnode/term"
)

// Dispatcher owns the registered modules of one node and answers calls on its
// behalf. Register and Use configure it before the node starts serving;
// neither is safe to call concurrently with HandleEnvelope.
type Dispatcher struct {
	router      gen.Router
	nodeName    string
	self        term.Pid // Sender identity on outgoing replies
	modules     map[string]*module
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc
	onMessage   func(*gen.IncomingMessage)
}

func NewDispatcher(router gen.Router, nodeName string, self term.Pid) *Dispatcher {
	return &Dispatcher{
		router:   router,
		nodeName: nodeName,
		self:     self,
		modules:  make(map[string]*module),
	}
}

// Register exposes a receiver's callable methods under its lowercased type
// name, e.g. &Keys{} answers keys:... calls.
func (d *Dispatcher) Register(rcvr any) error {
	m, err := newModule(rcvr)
	if err != nil {
		return err
	}
	d.modules[m.name] = m
	return nil
}

// Use appends a middleware. Middlewares wrap the handler in the order added.
func (d *Dispatcher) Use(mw middleware.Middleware) {
	d.middlewares = append(d.middlewares, mw)
	d.handler = nil // rebuilt on next envelope
}

// HandleEnvelope classifies and processes one raw inbound envelope. Calls run
// through the middleware chain and are always answered: a handler error
// becomes an abnormal-termination reply carrying the error text. Envelopes
// that match the gen shape but not the call shape go to the OnMessage
// callback; anything else is reported back as the decode error, for the owner
// to ignore or log — a malformed envelope is not a call, and never fatal.
func (d *Dispatcher) HandleEnvelope(ctx context.Context, envelope any) error {
	call, callErr := gen.ParseCall(envelope, d.nodeName)
	if callErr == nil {
		return d.handleCall(ctx, call)
	}

	msg, msgErr := gen.ParseMessage(envelope, d.nodeName)
	if msgErr != nil {
		return msgErr
	}
	if d.onMessage != nil {
		d.onMessage(msg)
	}
	return nil
}

// OnMessage sets the callback for gen envelopes that are not calls.
func (d *Dispatcher) OnMessage(f func(*gen.IncomingMessage)) {
	d.onMessage = f
}

// Run consumes a mailbox until ctx is done or the mailbox closes, handling
// each envelope in turn. Decode failures are logged and skipped.
func (d *Dispatcher) Run(ctx context.Context, mailbox <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-mailbox:
			if !ok {
				return
			}
			if err := d.HandleEnvelope(ctx, envelope); err != nil {
				log.Printf("dispatch: ignoring envelope: %v", err)
			}
		}
	}
}

func (d *Dispatcher) handleCall(ctx context.Context, call *gen.IncomingCall) error {
	if d.handler == nil {
		// Chain is built once and reused; Use invalidates it
		d.handler = middleware.Chain(d.middlewares...)(d.callModule)
	}

	result, err := d.handler(ctx, call)
	if err != nil {
		return call.ReplyExit(d.router, d.self, err.Error())
	}
	return call.Reply(d.router, d.self, result)
}

// callModule is the innermost handler: resolve mod:fun and invoke it.
func (d *Dispatcher) callModule(_ context.Context, call *gen.IncomingCall) (any, error) {
	m, ok := d.modules[call.ModName()]
	if !ok {
		return nil, fmt.Errorf("module not registered: %s", call.ModName())
	}
	mt, ok := m.method[call.FunName()]
	if !ok {
		return nil, fmt.Errorf("no function %s:%s", call.ModName(), call.FunName())
	}
	return m.call(mt, call.Args())
}
