package gen

import (
	"strings"
	"testing"

	"erlnode/term"
)

// ---- fake routing layer for reply assertions ----

type sentMessage struct {
	sender   any
	receiver any
	message  any
}

type sentDirective struct {
	receiverNode string
	message      any
}

type fakeNode struct {
	sends      []sentMessage
	directives []sentDirective
}

func (f *fakeNode) Send(sender, receiver, message any) error {
	f.sends = append(f.sends, sentMessage{sender, receiver, message})
	return nil
}

func (f *fakeNode) DispatchDirective(receiverNode string, message any) error {
	f.directives = append(f.directives, sentDirective{receiverNode, message})
	return nil
}

type fakeRouter map[string]*fakeNode

func (r fakeRouter) Node(name string) (NodeConn, bool) {
	n, ok := r[name]
	return n, ok
}

// ---- helpers ----

func callerPid() term.Pid {
	return term.Pid{Node: "caller@remote", ID: 7, Serial: 1}
}

func callerRef() term.Ref {
	return term.Ref{Node: "caller@remote", ID: [3]uint32{11, 22, 33}}
}

func callEnvelope(mod, fun any, args any) term.Tuple {
	return term.Tuple{
		term.Atom("$gen_call"),
		term.Tuple{callerPid(), callerRef()},
		term.Tuple{term.Atom("call"), mod, fun, args, term.Pid{Node: "caller@remote", ID: 1}},
	}
}

// ---- decoding ----

func TestParseCall(t *testing.T) {
	env := callEnvelope(term.Atom("kv"), term.Atom("get"), []any{"key1"})

	call, err := ParseCall(env, "svc@local")
	if err != nil {
		t.Fatalf("ParseCall failed: %v", err)
	}
	if call.NodeName != "svc@local" {
		t.Errorf("NodeName mismatch: got %s, want svc@local", call.NodeName)
	}
	if call.Sender != any(callerPid()) {
		t.Errorf("Sender mismatch: got %v", call.Sender)
	}
	if call.Ref != any(callerRef()) {
		t.Errorf("Ref mismatch: got %v", call.Ref)
	}
	if call.ModName() != "kv" || call.FunName() != "get" {
		t.Errorf("target mismatch: got %s:%s, want kv:get", call.ModName(), call.FunName())
	}
	gl, ok := call.GroupLeader.(term.Pid)
	if !ok || gl.ID != 1 {
		t.Errorf("GroupLeader not carried through: %v", call.GroupLeader)
	}
}

func TestParseMessage(t *testing.T) {
	payload := term.Tuple{term.Atom("is_auth"), "token"}
	env := term.Tuple{term.Atom("$gen_call"), term.Tuple{callerPid(), callerRef()}, payload}

	msg, err := ParseMessage(env, "svc@local")
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msg.Sender != any(callerPid()) || msg.Ref != any(callerRef()) {
		t.Errorf("reply context mismatch: %+v", msg.ReplyContext)
	}
	body, ok := msg.Message.(term.Tuple)
	if !ok || len(body) != 2 || body[0] != any(term.Atom("is_auth")) {
		t.Errorf("payload not kept verbatim: %v", msg.Message)
	}
}

func TestRejectNonTuple(t *testing.T) {
	for _, env := range []any{nil, 42, "hello", []any{1, 2, 3}} {
		if _, err := ParseCall(env, "n"); err == nil {
			t.Errorf("ParseCall accepted non-tuple %v", env)
		}
		if _, err := ParseMessage(env, "n"); err == nil {
			t.Errorf("ParseMessage accepted non-tuple %v", env)
		}
	}
}

func TestRejectWrongOuterArity(t *testing.T) {
	env := term.Tuple{term.Atom("$gen_call"), term.Tuple{callerPid(), callerRef()}}
	if _, err := ParseCall(env, "n"); err == nil {
		t.Error("ParseCall accepted a 2-tuple envelope")
	}
	if _, err := ParseMessage(env, "n"); err == nil {
		t.Error("ParseMessage accepted a 2-tuple envelope")
	}
}

func TestRejectWrongTag(t *testing.T) {
	for _, tag := range []any{term.Atom("$gen_cast"), "(not an atom)", 1} {
		env := term.Tuple{tag, term.Tuple{callerPid(), callerRef()}, term.Atom("x")}
		if _, err := ParseCall(env, "n"); err == nil {
			t.Errorf("ParseCall accepted tag %v", tag)
		}
		if _, err := ParseMessage(env, "n"); err == nil {
			t.Errorf("ParseMessage accepted tag %v", tag)
		}
	}
}

func TestRejectMalformedFromRef(t *testing.T) {
	env := term.Tuple{term.Atom("$gen_call"), term.Tuple{callerPid()}, term.Atom("x")}
	if _, err := ParseMessage(env, "n"); err == nil {
		t.Error("ParseMessage accepted a 1-tuple sender pair")
	}
	env = term.Tuple{term.Atom("$gen_call"), "not a pair", term.Atom("x")}
	if _, err := ParseCall(env, "n"); err == nil {
		t.Error("ParseCall accepted a non-tuple sender pair")
	}
}

// A non-5-tuple body is still a perfectly good generic message — only the
// call decoder rejects it.
func TestCallArityVersusGeneric(t *testing.T) {
	payload := term.Tuple{term.Atom("call"), term.Atom("kv"), term.Atom("get")}
	env := term.Tuple{term.Atom("$gen_call"), term.Tuple{callerPid(), callerRef()}, payload}

	if _, err := ParseMessage(env, "n"); err != nil {
		t.Errorf("ParseMessage should accept any body: %v", err)
	}
	_, err := ParseCall(env, "n")
	if err == nil {
		t.Fatal("ParseCall accepted a 3-tuple body")
	}
	if !strings.Contains(err.Error(), "5-tuple") {
		t.Errorf("arity error should mention 5-tuple, got: %v", err)
	}
}

func TestRejectNonAtomModFun(t *testing.T) {
	_, err := ParseCall(callEnvelope("kv", term.Atom("get"), []any{}), "n")
	if err == nil {
		t.Fatal("ParseCall accepted a string module")
	}
	if !strings.Contains(err.Error(), "module") || !strings.Contains(err.Error(), "kv") {
		t.Errorf("module error should name the offending value, got: %v", err)
	}

	_, err = ParseCall(callEnvelope(term.Atom("kv"), 99, []any{}), "n")
	if err == nil {
		t.Fatal("ParseCall accepted a numeric function")
	}
	if !strings.Contains(err.Error(), "function") || !strings.Contains(err.Error(), "99") {
		t.Errorf("function error should name the offending value, got: %v", err)
	}
}

// The first body element is passed over without inspection; peers that send
// something other than 'call' there still get decoded.
func TestCallMarkerNotChecked(t *testing.T) {
	env := term.Tuple{
		term.Atom("$gen_call"),
		term.Tuple{callerPid(), callerRef()},
		term.Tuple{"whatever", term.Atom("kv"), term.Atom("get"), []any{}, nil},
	}
	if _, err := ParseCall(env, "n"); err != nil {
		t.Errorf("marker should not be validated: %v", err)
	}
}

func TestArgsNormalization(t *testing.T) {
	want := []any{int64(1), "two", term.Atom("three")}

	bare, err := ParseCall(callEnvelope(term.Atom("m"), term.Atom("f"), []any{int64(1), "two", term.Atom("three")}), "n")
	if err != nil {
		t.Fatalf("ParseCall (bare args) failed: %v", err)
	}
	wrapped, err := ParseCall(callEnvelope(term.Atom("m"), term.Atom("f"), term.List{Items: []any{int64(1), "two", term.Atom("three")}}), "n")
	if err != nil {
		t.Fatalf("ParseCall (list args) failed: %v", err)
	}

	for name, got := range map[string][]any{"bare": bare.Args(), "wrapped": wrapped.Args()} {
		if len(got) != len(want) {
			t.Fatalf("%s args length: got %d, want %d", name, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s args[%d]: got %v, want %v", name, i, got[i], want[i])
			}
		}
	}
}

// ---- replying ----

func TestReply(t *testing.T) {
	node := &fakeNode{}
	router := fakeRouter{"svc@local": node}
	local := term.Pid{Node: "svc@local", ID: 1}

	call, err := ParseCall(callEnvelope(term.Atom("kv"), term.Atom("get"), []any{}), "svc@local")
	if err != nil {
		t.Fatal(err)
	}
	if err := call.Reply(router, local, term.Atom("ok")); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	if len(node.sends) != 1 {
		t.Fatalf("expect exactly 1 delivery, got %d", len(node.sends))
	}
	s := node.sends[0]
	if s.sender != any(local) {
		t.Errorf("sender mismatch: %v", s.sender)
	}
	if s.receiver != any(callerPid()) {
		t.Errorf("receiver mismatch: %v", s.receiver)
	}
	reply, ok := s.message.(term.Tuple)
	if !ok || len(reply) != 2 {
		t.Fatalf("reply must be a 2-tuple, got %v", s.message)
	}
	// Round trip: the reply's first element is the request's correlation token
	if reply[0] != any(callerRef()) {
		t.Errorf("correlation token changed: got %v, want %v", reply[0], callerRef())
	}
	if reply[1] != any(term.Atom("ok")) {
		t.Errorf("result mismatch: %v", reply[1])
	}
}

func TestReplyExit(t *testing.T) {
	node := &fakeNode{}
	router := fakeRouter{"svc@local": node}
	local := term.Pid{Node: "svc@local", ID: 1}

	call, err := ParseCall(callEnvelope(term.Atom("kv"), term.Atom("get"), []any{}), "svc@local")
	if err != nil {
		t.Fatal(err)
	}
	if err := call.ReplyExit(router, local, term.Atom("badarg")); err != nil {
		t.Fatalf("ReplyExit failed: %v", err)
	}

	if len(node.directives) != 1 {
		t.Fatalf("expect exactly 1 directive, got %d", len(node.directives))
	}
	d := node.directives[0]
	// Addressed to the sender pid's own node, not the arrival node
	if d.receiverNode != "caller@remote" {
		t.Errorf("directive addressed to %s, want caller@remote", d.receiverNode)
	}
	reply, ok := d.message.(term.Tuple)
	if !ok || len(reply) != 5 {
		t.Fatalf("exit reply must be a 5-tuple, got %v", d.message)
	}
	if reply[0] != any(term.Atom("monitor_p_exit")) {
		t.Errorf("exit marker mismatch: %v", reply[0])
	}
	if reply[1] != any(local) || reply[2] != any(callerPid()) {
		t.Errorf("pids mismatch: %v / %v", reply[1], reply[2])
	}
	if reply[3] != any(callerRef()) {
		t.Errorf("correlation token changed: %v", reply[3])
	}
	if reply[4] != any(term.Atom("badarg")) {
		t.Errorf("reason mismatch: %v", reply[4])
	}
}

func TestReplyUnknownNode(t *testing.T) {
	call, err := ParseCall(callEnvelope(term.Atom("m"), term.Atom("f"), []any{}), "gone@nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if err := call.Reply(fakeRouter{}, term.Pid{}, nil); err == nil {
		t.Error("Reply should fail for an unknown node")
	}
	if err := call.ReplyExit(fakeRouter{}, term.Pid{}, nil); err == nil {
		t.Error("ReplyExit should fail for an unknown node")
	}
}

func TestReplyExitNonPidSender(t *testing.T) {
	env := term.Tuple{
		term.Atom("$gen_call"),
		term.Tuple{"not a pid", callerRef()},
		term.Tuple{term.Atom("call"), term.Atom("m"), term.Atom("f"), []any{}, nil},
	}
	call, err := ParseCall(env, "svc@local")
	if err != nil {
		t.Fatalf("decode must not validate the sender: %v", err)
	}
	router := fakeRouter{"svc@local": {}}
	if err := call.ReplyExit(router, term.Pid{}, nil); err == nil {
		t.Error("ReplyExit should fail when the sender is not a pid")
	}
}
