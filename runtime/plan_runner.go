package runtime

import (
	"fmt"

	"github.com/stick-sim/stick/compiler"
	"github.com/stick-sim/stick/core"
)

// InitWithPlan implements spec.md §4.6's Simulator.init_with_plan: build a
// Simulator over the plan's network and encoder, then register every
// compiled trigger via ApplyInputValue. Because ApplyInputValue logs its
// injection spikes and enqueues their downstream deliveries immediately
// (not lazily at whatever simulated time Simulate later reaches), a run of
// InitWithPlan followed by Simulate produces the same logs regardless of
// how much wall-clock time elapses between the two calls.
func InitWithPlan(plan *compiler.ExecutionPlan, dt float64, opts SimulatorOptions) (*Simulator, error) {
	if plan == nil {
		return nil, fmt.Errorf("stick: nil execution plan")
	}
	sim, err := NewSimulator(plan.Root, plan.Encoder, dt, opts)
	if err != nil {
		return nil, fmt.Errorf("stick: init with plan: %w", err)
	}
	for _, trig := range plan.Triggers {
		sim.ApplyInputValue(trig.Value, trig.Target, trig.T0)
	}
	return sim, nil
}

// DecodeOutput implements spec.md §4.6's decoding contract: exactly one of
// reader.Out.Plus/Minus must have spiked exactly twice in sim's spike log;
// the interval between those two spikes decodes to the signed result,
// scaled back up by reader.MaxRange. Both or neither firing exactly twice
// is core.ErrUndecodableOutput — a decoding error, which per spec.md §7
// does not invalidate sim's logs.
func DecodeOutput(sim *Simulator, reader compiler.OutputReader) (float64, error) {
	plus := sim.SpikeLog[reader.Out.Plus.UID]
	minus := sim.SpikeLog[reader.Out.Minus.UID]
	plusOK := len(plus) == 2
	minusOK := len(minus) == 2

	switch {
	case plusOK == minusOK:
		return 0, fmt.Errorf("stick: plus side has %d spike(s), minus side has %d: %w", len(plus), len(minus), core.ErrUndecodableOutput)
	case plusOK:
		return sim.enc.DecodeInterval(plus[1]-plus[0]) * reader.MaxRange, nil
	default:
		return -sim.enc.DecodeInterval(minus[1]-minus[0]) * reader.MaxRange, nil
	}
}
