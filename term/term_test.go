package term

import "testing"

func TestAtomText(t *testing.T) {
	a := Atom("gen_server")
	if a.Text() != "gen_server" {
		t.Errorf("Text mismatch: %s", a.Text())
	}
	if a.String() != "'gen_server'" {
		t.Errorf("String mismatch: %s", a.String())
	}
	if a != Atom("gen_server") {
		t.Error("equal atoms must compare equal")
	}
	if a == Atom("gen_statem") {
		t.Error("distinct atoms must compare unequal")
	}
}

func TestTupleArity(t *testing.T) {
	tup := Tuple{Atom("a"), 1, "x"}
	if tup.Arity() != 3 {
		t.Errorf("Arity mismatch: %d", tup.Arity())
	}
}

func TestListElements(t *testing.T) {
	l := List{Items: []any{1, 2, 3}}
	e := l.Elements()
	if len(e) != 3 || e[0] != any(1) || e[2] != any(3) {
		t.Errorf("Elements mismatch: %v", e)
	}
}

func TestPidNodeName(t *testing.T) {
	p := Pid{Node: "demo@localhost", ID: 3, Serial: 1}
	if p.NodeName() != "demo@localhost" {
		t.Errorf("NodeName mismatch: %s", p.NodeName())
	}
	if p.String() != "#Pid<demo@localhost.3.1>" {
		t.Errorf("String mismatch: %s", p.String())
	}
}

// Pids and refs are used as correlation state; they must be comparable.
func TestPidRefComparable(t *testing.T) {
	p1 := Pid{Node: "n", ID: 1}
	p2 := Pid{Node: "n", ID: 1}
	if p1 != p2 {
		t.Error("identical pids must compare equal")
	}

	r1 := Ref{Node: "n", ID: [3]uint32{1, 2, 3}}
	r2 := Ref{Node: "n", ID: [3]uint32{1, 2, 3}}
	if r1 != r2 {
		t.Error("identical refs must compare equal")
	}
	seen := map[Ref]bool{r1: true}
	if !seen[r2] {
		t.Error("refs must work as map keys")
	}
}
