package symbolic

import "testing"

func TestLoadValue(t *testing.T) {
	s := Load(3.5)
	if s.Op() != OpLoad {
		t.Fatalf("Op() = %v, want OpLoad", s.Op())
	}
	if s.Value() != 3.5 {
		t.Errorf("Value() = %v, want 3.5", s.Value())
	}
}

func TestSubIsAddOfNeg(t *testing.T) {
	a := Load(5)
	b := Load(3)
	s := Sub(a, b)

	if s.Op() != OpAdd {
		t.Fatalf("Sub's Op() = %v, want OpAdd", s.Op())
	}
	if s.A() != a {
		t.Errorf("Sub's left operand = %v, want %v", s.A(), a)
	}
	neg := s.B()
	if neg.Op() != OpNeg {
		t.Fatalf("Sub's right operand Op() = %v, want OpNeg", neg.Op())
	}
	if neg.A() != b {
		t.Errorf("Sub's negated operand = %v, want %v", neg.A(), b)
	}
}

func TestFlattenLeavesFirst(t *testing.T) {
	a := Load(2)
	b := Load(3)
	sum := Add(a, b)

	order := sum.Flatten()
	if len(order) != 3 {
		t.Fatalf("len(order) = %d, want 3", len(order))
	}
	pos := make(map[*Scalar]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos[a] >= pos[sum] || pos[b] >= pos[sum] {
		t.Errorf("operands must precede the node that uses them: pos=%v", pos)
	}
}

func TestFlattenDedupesSharedSubexpression(t *testing.T) {
	shared := Load(4)
	left := Add(shared, Load(1))
	right := Mul(shared, Load(2))
	root := Add(left, right)

	order := root.Flatten()

	count := 0
	for _, n := range order {
		if n == shared {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared subexpression appears %d times in flatten order, want 1", count)
	}

	pos := make(map[*Scalar]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos[shared] >= pos[left] || pos[shared] >= pos[right] {
		t.Errorf("shared node must precede both of its parents: pos=%v", pos)
	}
	if pos[left] >= pos[root] || pos[right] >= pos[root] {
		t.Errorf("left/right must precede root: pos=%v", pos)
	}
}

func TestFlattenHandlesRepeatedSelfOperand(t *testing.T) {
	a := Load(7)
	doubled := Add(a, a)

	order := doubled.Flatten()
	if len(order) != 2 {
		t.Fatalf("len(order) = %d, want 2 (a once, doubled once)", len(order))
	}
	if order[0] != a || order[1] != doubled {
		t.Errorf("order = %v, want [a, doubled]", order)
	}
}

func TestFlattenDeepChainDoesNotRecurseNaively(t *testing.T) {
	// A long right-leaning chain would overflow a naive recursive
	// implementation's call stack at sufficient depth; this is a
	// regression guard on Flatten's iterative worklist, not a claim about
	// any particular depth limit.
	const depth = 50000
	node := Load(0)
	for i := 0; i < depth; i++ {
		node = Add(node, Load(1))
	}

	order := node.Flatten()
	if len(order) != depth*2+1 {
		t.Fatalf("len(order) = %d, want %d", len(order), depth*2+1)
	}
	if order[len(order)-1] != node {
		t.Error("root must be last in a topological order")
	}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{OpLoad: "Load", OpAdd: "Add", OpNeg: "Neg", OpMul: "Mul"}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
}
