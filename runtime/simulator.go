// Package runtime implements the STICK simulator: a discrete-time,
// single-threaded advance of a compiled network's neuron population
// (spec.md §4.3/§5). It owns a cache-aligned Arena of per-neuron state
// vectors, a delivery queue for in-flight synapse effects, and the spike
// and voltage logs the rest of the toolkit reads results out of.
//
// The synchronous forward-Euler loop spec.md §5 mandates has no worker
// pool, no work-stealing, and no streaming input window — determinism
// given (network, encoder, dt, triggers) is a correctness requirement
// here, not an optional mode.
package runtime

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/kernels"
	"github.com/stick-sim/stick/model"
)

// SimulatorOptions configures a Simulator built by NewSimulator or
// InitWithPlan.
type SimulatorOptions struct {
	// RecordVoltage enables the per-step voltage log (spec.md §4.3's
	// "optionally the full voltage trace"). Off by default: a run of
	// thousands of steps over hundreds of neurons can dominate memory if
	// every sample is kept.
	RecordVoltage bool
}

// DefaultSimulatorOptions returns RecordVoltage false.
func DefaultSimulatorOptions() SimulatorOptions {
	return SimulatorOptions{RecordVoltage: false}
}

// VoltageSample is one (time, V) observation, recorded per neuron per step
// when SimulatorOptions.RecordVoltage is set.
type VoltageSample struct {
	T float64
	V float64
}

// delivery is one in-flight synapse effect waiting to be applied at its
// absolute delivery time. seq breaks ties between same-time deliveries in
// FIFO insertion order; spec.md §4.3 notes the order among them does not
// affect the result (channel accumulation is commutative), so seq exists
// only to make queue iteration reproducible for debugging, not because the
// numeric outcome depends on it.
type delivery struct {
	time    float64
	seq     uint64
	target  *model.Neuron
	channel model.Channel
	weight  float64
}

type deliveryQueue []*delivery

func (q deliveryQueue) Len() int { return len(q) }
func (q deliveryQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}
func (q deliveryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *deliveryQueue) Push(x any)   { *q = append(*q, x.(*delivery)) }
func (q *deliveryQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Simulator advances a compiled network's neuron population through
// discrete forward-Euler steps, recording every spike (and optionally every
// voltage sample), exactly as spec.md §4.3 describes. The zero value is not
// usable; construct with NewSimulator or InitWithPlan.
type Simulator struct {
	root *model.Module
	enc  core.Encoder
	dt   float64
	opts SimulatorOptions

	neurons     []*model.Neuron // ordinal-indexed, fixed for the life of the Simulator
	byUID       map[string]*model.Neuron
	outSynapses map[string][]model.Synapse
	arena       *Arena

	queue   deliveryQueue
	nextSeq uint64

	// SpikeLog and VoltageLog are exported directly rather than behind
	// accessor methods: spec.md §6's programmatic surface names
	// spike_log[uid] and voltage_log[uid] as plain map lookups, and after
	// Simulate returns they are immutable views (spec.md §5).
	SpikeLog   map[string][]float64
	VoltageLog map[string][]VoltageSample

	steps     int
	startedAt time.Time
	elapsed   time.Duration
}

// NewSimulator builds a Simulator over root with the given encoder and time
// step. root must already be fully wired (model.Module.Validate is run
// here, surfacing core.ErrDuplicateUID or an invalid core.NeuronParams
// immediately rather than at the first step).
func NewSimulator(root *model.Module, enc core.Encoder, dt float64, opts SimulatorOptions) (*Simulator, error) {
	if root == nil {
		return nil, fmt.Errorf("stick: nil network module")
	}
	if dt <= 0 {
		return nil, fmt.Errorf("stick: dt must be > 0, got %v", dt)
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("stick: invalid network: %w", err)
	}

	neurons := root.AllNeurons()
	arena, err := NewArena(neurons)
	if err != nil {
		return nil, fmt.Errorf("stick: %w", err)
	}

	byUID := make(map[string]*model.Neuron, len(neurons))
	for _, n := range neurons {
		byUID[n.UID] = n
	}

	outSynapses := make(map[string][]model.Synapse)
	for _, syn := range root.AllSynapses() {
		outSynapses[syn.Source] = append(outSynapses[syn.Source], syn)
	}

	return &Simulator{
		root:        root,
		enc:         enc,
		dt:          dt,
		opts:        opts,
		neurons:     neurons,
		byUID:       byUID,
		outSynapses: outSynapses,
		arena:       arena,
		SpikeLog:    make(map[string][]float64),
		VoltageLog:  make(map[string][]VoltageSample),
	}, nil
}

// Encoder returns the encoder the Simulator was built with.
func (s *Simulator) Encoder() core.Encoder { return s.enc }

// Dt returns the integration step size.
func (s *Simulator) Dt() float64 { return s.dt }

// Arena exposes the simulator's state-vector backing store, mainly for
// tests and Stats' arena-size reporting.
func (s *Simulator) Arena() *Arena { return s.arena }

// Timesteps returns the number of integration steps the most recent
// Simulate call ran, i.e. floor(simulation_time/dt).
func (s *Simulator) Timesteps() int { return s.steps }

// ApplyInputValue implements the external-trigger semantics of spec.md
// §4.3, via the behavior SPEC_FULL.md §4 documents from
// original_source/stick_emulator/simulator.py's apply_input_value: it fires
// two ordinary spikes on target, at t0 and at t0+enc.EncodeInterval(value),
// through the exact same log-and-propagate path a real threshold crossing
// uses (recordSpike), so the trigger and spike code paths cannot diverge.
func (s *Simulator) ApplyInputValue(value float64, target *model.Neuron, t0 float64) {
	s.emitSpike(target, t0)
	s.emitSpike(target, t0+s.enc.EncodeInterval(value))
}

// emitSpike is an externally-forced spike (a trigger injection): it resets
// the neuron's own state the way a real threshold crossing would, then
// hands off to recordSpike for logging and synapse propagation.
func (s *Simulator) emitSpike(n *model.Neuron, t float64) {
	ord := n.Ordinal
	s.arena.V()[ord] = 0
	s.arena.Ge()[ord] = 0
	s.arena.Gf()[ord] = 0
	s.arena.Gate()[ord] = 0
	s.recordSpike(n, t)
}

// recordSpike logs a spike at time t and enqueues a delivery for every
// synapse leaving n. It assumes n's V/ge/gf/gate have already been reset to
// 0 by the caller — kernels.ThresholdReset for a real threshold crossing,
// emitSpike above for a trigger injection.
func (s *Simulator) recordSpike(n *model.Neuron, t float64) {
	s.SpikeLog[n.UID] = append(s.SpikeLog[n.UID], t)
	s.arena.SpikeCount()[n.Ordinal]++
	s.arena.LastSpikeTime()[n.Ordinal] = float32(t)
	for _, syn := range s.outSynapses[n.UID] {
		s.enqueue(syn, t)
	}
}

func (s *Simulator) enqueue(syn model.Synapse, spikeTime float64) {
	target, ok := s.byUID[syn.Target]
	if !ok {
		return // unreachable once root.Validate has passed
	}
	heap.Push(&s.queue, &delivery{
		time:    spikeTime + syn.Delay,
		seq:     s.nextSeq,
		target:  target,
		channel: syn.Channel,
		weight:  syn.Weight,
	})
	s.nextSeq++
}

// deliverQueued applies every pending delivery whose time has arrived by t,
// before this step's integration — spec.md §4.3: "delivered effects take
// effect before integration of that step."
func (s *Simulator) deliverQueued(t float64) {
	v, ge, gf, gate := s.arena.V(), s.arena.Ge(), s.arena.Gf(), s.arena.Gate()
	for s.queue.Len() > 0 && s.queue[0].time <= t {
		d := heap.Pop(&s.queue).(*delivery)
		ord := d.target.Ordinal
		switch d.channel {
		case model.ChannelV:
			v[ord] += float32(d.weight)
		case model.ChannelGe:
			ge[ord] += float32(d.weight)
		case model.ChannelGf:
			gf[ord] += float32(d.weight)
		case model.ChannelGate:
			gate[ord] += float32(d.weight)
		}
	}
}

// thresholdAndSpike runs the vectorized threshold/reset kernel, then
// records a spike for every neuron that crossed, in uid-lexicographic
// order (spec.md §4.3's tie-break for same-step crossings).
func (s *Simulator) thresholdAndSpike(t float64) {
	spiked := s.arena.Spiked()
	kernels.ThresholdReset(s.arena.V(), s.arena.Ge(), s.arena.Gf(), s.arena.Gate(), s.arena.Vt(), spiked)

	var fired []string
	for i, did := range spiked {
		if did {
			fired = append(fired, s.neurons[i].UID)
		}
	}
	if len(fired) > 1 {
		sort.Strings(fired)
	}
	for _, uid := range fired {
		s.recordSpike(s.byUID[uid], t)
	}
}

func (s *Simulator) sampleVoltage(t float64) {
	v := s.arena.V()
	for i, n := range s.neurons {
		s.VoltageLog[n.UID] = append(s.VoltageLog[n.UID], VoltageSample{T: t, V: float64(v[i])})
	}
}

// Simulate advances the network from t=0 to simulationTime in fixed steps
// of Dt, recording spikes (and, if enabled, voltages) at every step. It
// returns core.ErrSimulationDiverged, wrapping the diverging step's time, if
// any neuron's voltage becomes non-finite; the logs accumulated so far
// remain valid for inspection (spec.md §7's "simulation-time errors abort
// simulate and surface the partial logs").
//
// Per original_source/stick_emulator/simulator.py's Simulator.simulate, the
// initial voltage sample at t=0 is taken before the first integration step
// — so VoltageLog has Timesteps()+1 samples whenever RecordVoltage is set.
func (s *Simulator) Simulate(simulationTime float64) error {
	s.startedAt = time.Now()
	steps := int(math.Floor(simulationTime / s.dt))

	if s.opts.RecordVoltage {
		s.sampleVoltage(0)
	}

	for step := 1; step <= steps; step++ {
		t := float64(step) * s.dt
		s.deliverQueued(t)
		s.integrateStep()

		if kernels.Diverged(s.arena.V()) {
			s.steps = step
			s.elapsed = time.Since(s.startedAt)
			return fmt.Errorf("stick: %w at t=%v", core.ErrSimulationDiverged, t)
		}

		s.thresholdAndSpike(t)
		if s.opts.RecordVoltage {
			s.sampleVoltage(t)
		}
	}

	s.steps = steps
	s.elapsed = time.Since(s.startedAt)
	return nil
}

func (s *Simulator) integrateStep() {
	kernels.IntegrateStepUnrolled(s.arena.V(), s.arena.Ge(), s.arena.Gf(), s.arena.Gate(), s.arena.Tm(), s.arena.Tf(), float32(s.dt))
}
