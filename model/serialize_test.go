package model

import "testing"

func buildSampleNetwork() *Module {
	root := NewRootModule("net")
	a := root.NewSubmodule("injector_0")
	plus := a.NewNeuron("out_plus", testParams())
	minus := a.NewNeuron("out_minus", testParams())
	b := root.NewSubmodule("adder_1")
	accA := b.NewNeuron("acc_a", testParams())
	root.Connect(plus, accA, ChannelV, 1.0, 0.02)
	root.Connect(minus, accA, ChannelGf, -1.0, 0.0)
	return root
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	orig := buildSampleNetwork()
	data, err := Serialize(orig)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	origNeurons := orig.AllNeurons()
	gotNeurons := got.AllNeurons()
	if len(gotNeurons) != len(origNeurons) {
		t.Fatalf("neuron count = %d, want %d", len(gotNeurons), len(origNeurons))
	}
	for i, n := range origNeurons {
		if gotNeurons[i].UID != n.UID {
			t.Errorf("neuron[%d].UID = %q, want %q", i, gotNeurons[i].UID, n.UID)
		}
		if gotNeurons[i].Params != n.Params {
			t.Errorf("neuron[%d].Params = %+v, want %+v", i, gotNeurons[i].Params, n.Params)
		}
	}

	origSyn := orig.AllSynapses()
	gotSyn := got.AllSynapses()
	if len(gotSyn) != len(origSyn) {
		t.Fatalf("synapse count = %d, want %d", len(gotSyn), len(origSyn))
	}
	for i, s := range origSyn {
		if gotSyn[i] != s {
			t.Errorf("synapse[%d] = %+v, want %+v", i, gotSyn[i], s)
		}
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	data, err := Serialize(buildSampleNetwork())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	corrupt := append([]byte(nil), data...)
	corrupt[0] ^= 0xFF
	if _, err := Deserialize(corrupt); err == nil {
		t.Error("Deserialize on corrupted magic: want error, got nil")
	}
}

func TestDeserializeRejectsChecksumMismatch(t *testing.T) {
	data, err := Serialize(buildSampleNetwork())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	corrupt := append([]byte(nil), data...)
	// Flip a byte well past the header, inside the body.
	corrupt[len(corrupt)-1] ^= 0xFF
	if _, err := Deserialize(corrupt); err == nil {
		t.Error("Deserialize on corrupted body: want checksum error, got nil")
	}
}
