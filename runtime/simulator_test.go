package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

func simEncoder(t *testing.T) core.Encoder {
	t.Helper()
	enc, err := core.NewEncoder(10.0, 100.0)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return enc
}

func TestNewSimulatorRejectsNilRoot(t *testing.T) {
	if _, err := NewSimulator(nil, simEncoder(t), 0.01, DefaultSimulatorOptions()); err == nil {
		t.Error("NewSimulator(nil, ...): want error, got nil")
	}
}

func TestNewSimulatorRejectsNonPositiveDt(t *testing.T) {
	root := model.NewRootModule("root")
	root.NewNeuron("a", core.NeuronParams{Vt: 1, Tm: 1, Tf: 1})
	if _, err := NewSimulator(root, simEncoder(t), 0, DefaultSimulatorOptions()); err == nil {
		t.Error("NewSimulator with dt=0: want error, got nil")
	}
}

// ApplyInputValue must log two spikes on target, t0 apart from
// enc.EncodeInterval(value), through the exact same path a real threshold
// crossing uses.
func TestApplyInputValueLogsTwoSpikesAtEncodedInterval(t *testing.T) {
	root := model.NewRootModule("root")
	params := core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0}
	n := root.NewNeuron("out", params)

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	sim.ApplyInputValue(0.5, n, 0)
	if err := sim.Simulate(100.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	spikes := sim.SpikeLog[n.UID]
	if len(spikes) != 2 {
		t.Fatalf("len(spikes) = %d, want 2", len(spikes))
	}
	wantInterval := enc.EncodeInterval(0.5)
	if got := spikes[1] - spikes[0]; math.Abs(got-wantInterval) > 1e-9 {
		t.Errorf("spike interval = %v, want %v", got, wantInterval)
	}
}

// Two directly-wired neurons: a synapse's delay must shift when its target
// actually crosses threshold relative to when the source fired.
func TestSynapseDelayDeliversAtSourceSpikeTimePlusDelay(t *testing.T) {
	root := model.NewRootModule("root")
	params := core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0}
	src := root.NewNeuron("src", params)
	dst := root.NewNeuron("dst", params)
	root.Connect(src, dst, model.ChannelV, params.Vt, 5.0) // weight == Vt: one delivery is enough to cross threshold

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	sim.ApplyInputValue(0.0, src, 0) // fires src at t=0 and t=enc.EncodeInterval(0)=Tmin=10
	if err := sim.Simulate(50.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	srcSpikes := sim.SpikeLog[src.UID]
	dstSpikes := sim.SpikeLog[dst.UID]
	if len(srcSpikes) != 2 {
		t.Fatalf("src spikes = %d, want 2", len(srcSpikes))
	}
	if len(dstSpikes) != 2 {
		t.Fatalf("dst spikes = %d, want 2", len(dstSpikes))
	}
	for i, srcT := range srcSpikes {
		want := srcT + 5.0
		if got := dstSpikes[i]; math.Abs(got-want) > sim.Dt() {
			t.Errorf("dst spike[%d] = %v, want ~%v (within one dt of src+delay)", i, got, want)
		}
	}
}

// A pathologically tiny Tm drives V toward infinity within a single
// integration step, and Simulate must report ErrSimulationDiverged with the
// logs accumulated up to that point left intact.
func TestSimulateReportsDivergence(t *testing.T) {
	root := model.NewRootModule("root")
	// An absurdly small Tm blows dV/dt = ge/tm up to +Inf once ge is nonzero.
	n := root.NewNeuron("n", core.NeuronParams{Vt: 1e30, Tm: 1e-42, Tf: 1.0})

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	sim.Arena().Ge()[n.Ordinal] = 1.0 // force a nonzero drive so integration actually moves V

	err = sim.Simulate(10.0)
	if err == nil {
		t.Fatal("Simulate: want ErrSimulationDiverged, got nil")
	}
	if !errors.Is(err, core.ErrSimulationDiverged) {
		t.Errorf("Simulate error = %v, want core.ErrSimulationDiverged", err)
	}
	if sim.Timesteps() == 0 {
		t.Error("Timesteps() = 0, want at least the diverging step to be recorded")
	}
}

// RecordVoltage samples t=0 before the first integration step, so the log
// has Timesteps()+1 entries.
func TestSimulateRecordsInitialVoltageSample(t *testing.T) {
	root := model.NewRootModule("root")
	n := root.NewNeuron("n", core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0})

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, SimulatorOptions{RecordVoltage: true})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if err := sim.Simulate(1.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	samples := sim.VoltageLog[n.UID]
	if len(samples) != sim.Timesteps()+1 {
		t.Fatalf("len(VoltageLog) = %d, want %d (Timesteps()+1)", len(samples), sim.Timesteps()+1)
	}
	if samples[0].T != 0 {
		t.Errorf("first sample T = %v, want 0", samples[0].T)
	}
}

func TestSimulateWithoutRecordVoltageLeavesLogEmpty(t *testing.T) {
	root := model.NewRootModule("root")
	n := root.NewNeuron("n", core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0})

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if err := sim.Simulate(1.0); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(sim.VoltageLog[n.UID]) != 0 {
		t.Errorf("VoltageLog = %v, want empty when RecordVoltage is off", sim.VoltageLog[n.UID])
	}
}

// Two neurons crossing threshold in the same step must each be recorded
// once, at that step's time. (The uid-lexicographic order in which
// thresholdAndSpike records them is not observable through SpikeLog.)
func TestThresholdAndSpikeRecordsSameStepCrossings(t *testing.T) {
	root := model.NewRootModule("root")
	params := core.NeuronParams{Vt: 1.0, Tm: 1.0, Tf: 2.0}
	// Name "z" before "a" so ordinal order and uid order disagree.
	z := root.NewNeuron("z", params)
	a := root.NewNeuron("a", params)

	enc := simEncoder(t)
	sim, err := NewSimulator(root, enc, 0.01, DefaultSimulatorOptions())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	// Force both to cross threshold on the very same step.
	sim.Arena().V()[z.Ordinal] = sim.Arena().Vt()[z.Ordinal]
	sim.Arena().V()[a.Ordinal] = sim.Arena().Vt()[a.Ordinal]

	if err := sim.Simulate(0.02); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	aSpikes := sim.SpikeLog[a.UID]
	zSpikes := sim.SpikeLog[z.UID]
	if len(aSpikes) != 1 || len(zSpikes) != 1 {
		t.Fatalf("expected exactly one spike each, got a=%v z=%v", aSpikes, zSpikes)
	}
	if aSpikes[0] != zSpikes[0] {
		t.Fatalf("expected same-step crossing, got a=%v z=%v", aSpikes[0], zSpikes[0])
	}
}
