package runtime

import (
	"strings"
	"testing"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

func TestStatsReflectsCompletedRun(t *testing.T) {
	root := model.NewRootModule("root")
	params := core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0}
	src := root.NewNeuron("src", params)
	dst := root.NewNeuron("dst", params)
	root.Connect(src, dst, model.ChannelV, params.Vt, 1.0)

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	sim.ApplyInputValue(0.0, src, 0)
	if err := sim.Simulate(50.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	stats := sim.Stats()
	if stats.Neurons != 2 {
		t.Errorf("Neurons = %d, want 2", stats.Neurons)
	}
	if stats.Synapses != 1 {
		t.Errorf("Synapses = %d, want 1", stats.Synapses)
	}
	if stats.Steps != sim.Timesteps() {
		t.Errorf("Steps = %d, want %d", stats.Steps, sim.Timesteps())
	}
	wantSpikes := len(sim.SpikeLog[src.UID]) + len(sim.SpikeLog[dst.UID])
	if stats.TotalSpikes != wantSpikes {
		t.Errorf("TotalSpikes = %d, want %d", stats.TotalSpikes, wantSpikes)
	}
	if stats.ArenaBytes != sim.Arena().TotalSize() {
		t.Errorf("ArenaBytes = %d, want %d", stats.ArenaBytes, sim.Arena().TotalSize())
	}
	if stats.RunID == "" {
		t.Error("RunID is empty, want a uuid string")
	}
}

func TestStatsRunIDDiffersAcrossCalls(t *testing.T) {
	root := model.NewRootModule("root")
	root.NewNeuron("n", core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0})

	sim, err := NewSimulator(root, simEncoder(t), 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if err := sim.Simulate(1.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	a := sim.Stats()
	b := sim.Stats()
	if a.RunID == b.RunID {
		t.Error("two Stats() calls returned the same RunID, want fresh uuids")
	}
}

func TestExecutionStatsStringIncludesCounts(t *testing.T) {
	root := model.NewRootModule("root")
	root.NewNeuron("n", core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0})

	sim, err := NewSimulator(root, simEncoder(t), 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if err := sim.Simulate(1.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	s := sim.Stats().String()
	for _, want := range []string{"step(s)", "neuron(s)", "synapse(s)", "spike(s)", "arena", "elapsed"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestStatsBeforeSimulateReportsZero(t *testing.T) {
	root := model.NewRootModule("root")
	root.NewNeuron("n", core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0})

	sim, err := NewSimulator(root, simEncoder(t), 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	stats := sim.Stats()
	if stats.Steps != 0 {
		t.Errorf("Steps = %d, want 0 before Simulate", stats.Steps)
	}
	if stats.TotalSpikes != 0 {
		t.Errorf("TotalSpikes = %d, want 0 before Simulate", stats.TotalSpikes)
	}
}
