package model

import (
	"errors"
	"testing"

	"github.com/stick-sim/stick/core"
)

func testParams() core.NeuronParams {
	return core.NeuronParams{Vt: 1, Tm: 0.01, Tf: 0.005}
}

func TestUIDDottedPath(t *testing.T) {
	root := NewRootModule("net")
	child := root.NewSubmodule("adder_0")
	n := child.NewNeuron("acc", testParams())

	if got, want := n.UID, "adder_0.acc"; got != want {
		t.Errorf("uid = %q, want %q", got, want)
	}

	grandchild := child.NewSubmodule("exp_primitive")
	gn := grandchild.NewNeuron("gate", testParams())
	if got, want := gn.UID, "adder_0.exp_primitive.gate"; got != want {
		t.Errorf("uid = %q, want %q", got, want)
	}
}

func TestUIDRootLevelHasNoPrefix(t *testing.T) {
	root := NewRootModule("net")
	n := root.NewNeuron("top", testParams())
	if got, want := n.UID, "top"; got != want {
		t.Errorf("uid = %q, want %q", got, want)
	}
}

func TestValidateDetectsDuplicateUID(t *testing.T) {
	root := NewRootModule("net")
	a := root.NewSubmodule("a")
	a.NewNeuron("x", testParams())

	b := root.NewSubmodule("b")
	// Different module, same local name "x" -> different uid, should NOT collide.
	b.NewNeuron("x", testParams())

	if err := root.Validate(); err != nil {
		t.Fatalf("Validate() on distinct uids = %v, want nil", err)
	}

	// Force a genuine collision by constructing two neurons with the same uid directly.
	root2 := NewRootModule("net2")
	root2.neurons = append(root2.neurons,
		&Neuron{UID: "dup", Params: testParams()},
		&Neuron{UID: "dup", Params: testParams()},
	)
	if err := root2.Validate(); !errors.Is(err, core.ErrDuplicateUID) {
		t.Errorf("Validate() on duplicate uid = %v, want ErrDuplicateUID", err)
	}
}

func TestConnectHeaderWiresBothPolarities(t *testing.T) {
	root := NewRootModule("net")
	src := NeuronHeader{
		Plus:  root.NewNeuron("src_plus", testParams()),
		Minus: root.NewNeuron("src_minus", testParams()),
	}
	dst := NeuronHeader{
		Plus:  root.NewNeuron("dst_plus", testParams()),
		Minus: root.NewNeuron("dst_minus", testParams()),
	}
	root.ConnectHeader(src, dst, 1.0, 0.5)

	syn := root.Synapses()
	if len(syn) != 2 {
		t.Fatalf("len(Synapses()) = %d, want 2", len(syn))
	}
	if syn[0].Source != "src_plus" || syn[0].Target != "dst_plus" {
		t.Errorf("plus synapse = %+v", syn[0])
	}
	if syn[1].Source != "src_minus" || syn[1].Target != "dst_minus" {
		t.Errorf("minus synapse = %+v", syn[1])
	}
	for _, s := range syn {
		if s.Channel != ChannelV {
			t.Errorf("synapse channel = %v, want ChannelV", s.Channel)
		}
	}
}

func TestAllNeuronsOrdinalsAreDenseAndStable(t *testing.T) {
	root := NewRootModule("net")
	root.NewNeuron("a", testParams())
	child := root.NewSubmodule("sub")
	child.NewNeuron("b", testParams())
	root.NewNeuron("c", testParams())

	neurons := root.AllNeurons()
	if len(neurons) != 3 {
		t.Fatalf("len(AllNeurons()) = %d, want 3", len(neurons))
	}
	for i, n := range neurons {
		if n.Ordinal != i {
			t.Errorf("neuron %s ordinal = %d, want %d", n.UID, n.Ordinal, i)
		}
	}
	// Depth-first, insertion order: a, then sub.b, then c.
	wantUIDs := []string{"a", "sub.b", "c"}
	for i, want := range wantUIDs {
		if neurons[i].UID != want {
			t.Errorf("neurons[%d].UID = %q, want %q", i, neurons[i].UID, want)
		}
	}
}

func TestFind(t *testing.T) {
	root := NewRootModule("net")
	child := root.NewSubmodule("sub")
	n := child.NewNeuron("x", testParams())

	if got := root.Find("sub.x"); got != n {
		t.Errorf("Find(sub.x) = %v, want %v", got, n)
	}
	if got := root.Find("missing"); got != nil {
		t.Errorf("Find(missing) = %v, want nil", got)
	}
}

func TestLocalName(t *testing.T) {
	cases := map[string]string{
		"a.b.c": "c",
		"top":   "top",
		"":      "",
	}
	for uid, want := range cases {
		if got := LocalName(uid); got != want {
			t.Errorf("LocalName(%q) = %q, want %q", uid, got, want)
		}
	}
}
