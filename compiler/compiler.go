// Package compiler lowers a symbolic.Scalar expression DAG into a spiking
// network ready for simulation: it flattens the DAG into a topologically
// ordered list of operator scaffolds, spawns the matching subnet circuit for
// each one, wires producer outputs to consumer inputs across module
// boundaries, derives InputTriggers from every Load node, and builds an
// OutputReader over the root's output header. The result is an
// ExecutionPlan, the only thing the simulator needs to start a run.
//
// The pipeline is staged the way a DSL-to-binary compiler typically is:
// one function per stage, errors wrapped with "%w" at each stage boundary,
// a CompileOptions/DefaultOptions pair, and Printf-gated verbose progress
// output — generalized here from "parse, validate, optimize, emit" to
// "flatten, spawn, wire, trigger, read".
package compiler

import (
	"fmt"
	"strings"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
	"github.com/stick-sim/stick/subnet"
	"github.com/stick-sim/stick/symbolic"
)

// CompileOptions configures a Compile call.
type CompileOptions struct {
	// TriggerOffset is the t0 every root-level InputTrigger is emitted at.
	// spec.md §4.5 step 6 leaves t0 "caller-chosen"; this is that choice,
	// exposed for callers that need staggered injection across multiple
	// independent plans sharing one simulator.
	TriggerOffset float64
	// Verbose enables Printf-gated stage progress output for the
	// flatten/spawn/wire/trigger/read stages.
	Verbose bool
}

// DefaultOptions returns TriggerOffset 0 (every scenario in spec.md §8
// injects at t0=0) and Verbose false.
func DefaultOptions() CompileOptions {
	return CompileOptions{TriggerOffset: 0, Verbose: false}
}

// OpModuleScaffold is one DAG node's compilation state: its module and the
// NeuronHeader plugs spec.md §3 defines for its operator kind. Depending on
// Node.Op(), In (Neg), InA and InB (Add, Mul), or neither (Load) is
// populated.
type OpModuleScaffold struct {
	Node    *symbolic.Scalar
	Ordinal int
	Module  *model.Module

	In        model.NeuronHeader // Neg only
	InA, InB  model.NeuronHeader // Add, Mul only
	Out       model.NeuronHeader
}

// connection is one flattened DAG edge: producer's out plug feeds
// consumer's named input plug.
type connection struct {
	producer *OpModuleScaffold
	consumer *OpModuleScaffold
	plug     string // "in", "in_a", or "in_b"
}

// InputTrigger is a (target neuron, normalized magnitude, injection time)
// triple derived from one Load node (spec.md §4.3/§4.5 step 6). The
// simulator's ApplyInputValue makes Target spike directly at T0 and again
// at T0 + enc.EncodeInterval(Value).
type InputTrigger struct {
	Target *model.Neuron
	Value  float64 // normalized magnitude, always in [0,1]
	T0     float64
}

// OutputReader names the root scaffold's output header. Decode is deferred
// to the runtime package, which owns the spike log this reader is applied
// to; OutputReader itself only remembers which two neurons to look at and
// what scale factor to undo.
type OutputReader struct {
	Out      model.NeuronHeader
	MaxRange float64
}

// ExecutionPlan is everything runtime.InitWithPlan needs: the
// wired network, the encoder and neuron parameters it was built with, the
// triggers to register, and the reader to decode the result.
type ExecutionPlan struct {
	Root     *model.Module
	Encoder  core.Encoder
	Params   core.NeuronParams
	Triggers []InputTrigger
	Reader   OutputReader
}

// Compile implements compile_computation(root, max_range) (spec.md §4.5):
// flatten, spawn, fill, instantiate, wire, triggers, reader. The same DAG,
// encoder, and params always produce identical uids, identical wiring, and
// an identical plan — Compile has no hidden nondeterministic state (no
// randomness, no wall-clock, no map-iteration-order dependence in anything
// that reaches the output).
func Compile(root *symbolic.Scalar, maxRange float64, enc core.Encoder, params core.NeuronParams, opts CompileOptions) (*ExecutionPlan, error) {
	if root == nil {
		return nil, fmt.Errorf("compiler: nil root")
	}
	if maxRange <= 0 {
		return nil, fmt.Errorf("compiler: max_range must be > 0, got %v", maxRange)
	}

	rootModule := model.NewRootModule("network")

	scaffolds, connections := flatten(root)
	if opts.Verbose {
		fmt.Printf("compiler: flattened %d node(s), %d connection(s)\n", len(scaffolds), len(connections))
	}

	if err := spawnAndFill(rootModule, scaffolds, enc, params); err != nil {
		return nil, fmt.Errorf("compiler: spawn: %w", err)
	}
	if opts.Verbose {
		fmt.Println("compiler: spawned and instantiated subnetworks")
	}

	if err := wire(rootModule, connections, enc, params); err != nil {
		return nil, fmt.Errorf("compiler: wire: %w", err)
	}
	if opts.Verbose {
		fmt.Println("compiler: wired cross-module connections")
	}

	triggers, err := buildTriggers(scaffolds, maxRange, opts.TriggerOffset)
	if err != nil {
		return nil, fmt.Errorf("compiler: triggers: %w", err)
	}
	if opts.Verbose {
		fmt.Printf("compiler: built %d trigger(s)\n", len(triggers))
	}

	rootScaffold := scaffolds[len(scaffolds)-1]
	reader := OutputReader{Out: rootScaffold.Out, MaxRange: maxRange}

	if err := rootModule.Validate(); err != nil {
		return nil, fmt.Errorf("compiler: final network validation: %w", err)
	}

	return &ExecutionPlan{
		Root:     rootModule,
		Encoder:  enc,
		Params:   params,
		Triggers: triggers,
		Reader:   reader,
	}, nil
}

// flatten implements stage 1: a topologically ordered, deduplicated list of
// scaffolds plus the edges between them, built directly from
// symbolic.Scalar.Flatten's worklist traversal.
func flatten(root *symbolic.Scalar) ([]*OpModuleScaffold, []connection) {
	order := root.Flatten()
	scaffolds := make([]*OpModuleScaffold, len(order))
	index := make(map[*symbolic.Scalar]*OpModuleScaffold, len(order))

	for i, node := range order {
		s := &OpModuleScaffold{Node: node, Ordinal: i}
		scaffolds[i] = s
		index[node] = s
	}

	var connections []connection
	for _, s := range scaffolds {
		switch s.Node.Op() {
		case symbolic.OpNeg:
			connections = append(connections, connection{producer: index[s.Node.A()], consumer: s, plug: "in"})
		case symbolic.OpAdd, symbolic.OpMul:
			connections = append(connections, connection{producer: index[s.Node.A()], consumer: s, plug: "in_a"})
			connections = append(connections, connection{producer: index[s.Node.B()], consumer: s, plug: "in_b"})
		}
	}

	return scaffolds, connections
}

// spawnAndFill implements stages 2-4: spawn the matching subnetwork for
// each scaffold (which also instantiates it as a child of rootModule, since
// every subnet constructor takes its parent module directly), and fill each
// scaffold's plug fields from the header pairs the constructor returns.
// Submodule names are "<lowercase op>_<ordinal>", guaranteeing uniqueness
// without a global counter, the same way model.Module's uids are built from
// dotted local names rather than a counter.
func spawnAndFill(rootModule *model.Module, scaffolds []*OpModuleScaffold, enc core.Encoder, params core.NeuronParams) error {
	for _, s := range scaffolds {
		name := fmt.Sprintf("%s_%d", strings.ToLower(s.Node.Op().String()), s.Ordinal)

		switch s.Node.Op() {
		case symbolic.OpLoad:
			m, out := subnet.NewInjectorNetwork(rootModule, name, enc, params)
			s.Module, s.Out = m, out
		case symbolic.OpNeg:
			m, in, out := subnet.NewSignFlipperNetwork(rootModule, name, enc, params)
			s.Module, s.In, s.Out = m, in, out
		case symbolic.OpAdd:
			m, inA, inB, out := subnet.NewAdderNetwork(rootModule, name, enc, params)
			s.Module, s.InA, s.InB, s.Out = m, inA, inB, out
		case symbolic.OpMul:
			m, inA, inB, out := subnet.NewSignedMultiplierNormNetwork(rootModule, name, enc, params)
			s.Module, s.InA, s.InB, s.Out = m, inA, inB, out
		default:
			return fmt.Errorf("unknown op %v at ordinal %d", s.Node.Op(), s.Ordinal)
		}
	}
	return nil
}

// wire implements stage 5: for every flattened connection, add two
// V-channel synapses — producer out.plus -> consumer in.plus and producer
// out.minus -> consumer in.minus — at weight Vt and delay subnet.Tsyn(enc),
// preserving signed interval coding across the module boundary (spec.md
// §4.5 step 5).
func wire(rootModule *model.Module, connections []connection, enc core.Encoder, params core.NeuronParams) error {
	delay := subnet.Tsyn(enc)
	for _, c := range connections {
		var dst model.NeuronHeader
		switch c.plug {
		case "in":
			dst = c.consumer.In
		case "in_a":
			dst = c.consumer.InA
		case "in_b":
			dst = c.consumer.InB
		default:
			return fmt.Errorf("unknown plug %q on node ordinal %d", c.plug, c.consumer.Ordinal)
		}
		rootModule.ConnectHeader(c.producer.Out, dst, params.Vt, delay)
	}
	return nil
}

// buildTriggers implements stage 6: for every Load(value) scaffold, compute
// sign and normalized magnitude, failing with core.ErrRangeError if the
// magnitude exceeds maxRange, and target the injector's plus neuron for
// non-negative values or its minus neuron otherwise.
func buildTriggers(scaffolds []*OpModuleScaffold, maxRange, t0 float64) ([]InputTrigger, error) {
	var triggers []InputTrigger
	for _, s := range scaffolds {
		if s.Node.Op() != symbolic.OpLoad {
			continue
		}
		value := s.Node.Value()
		mag := value
		if mag < 0 {
			mag = -mag
		}
		normalized := mag / maxRange
		if normalized < 0 || normalized > 1 {
			return nil, fmt.Errorf("%w: Load(%v) normalized to %v, want [0,1] for max_range %v", core.ErrRangeError, value, normalized, maxRange)
		}

		target := s.Out.Plus
		if value < 0 {
			target = s.Out.Minus
		}
		triggers = append(triggers, InputTrigger{Target: target, Value: normalized, T0: t0})
	}
	return triggers, nil
}
