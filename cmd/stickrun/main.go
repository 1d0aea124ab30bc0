// Command stickrun compiles the same small expression cmd/stickc does,
// simulates it, and prints the decoded result: a flag-based driver for
// loading and executing a compiled graph against STICK's single-threaded
// simulator (spec.md §5).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/stick-sim/stick/compiler"
	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/export"
	"github.com/stick-sim/stick/model"
	"github.com/stick-sim/stick/runtime"
	"github.com/stick-sim/stick/symbolic"
)

func main() {
	var (
		op       = flag.String("op", "load", "Expression to run: load, neg, add, mul")
		a        = flag.Float64("a", 0, "First (or only) Load value")
		b        = flag.Float64("b", 0, "Second Load value, for add/mul")
		maxRange = flag.Float64("max-range", 100, "Normalization range for Load values")
		tmin     = flag.Float64("tmin", 10, "Encoder minimum spike interval")
		tcod     = flag.Float64("tcod", 100, "Encoder coding span")
		vt       = flag.Float64("vt", 1.0, "Neuron firing threshold")
		tm       = flag.Float64("tm", 1.0, "Neuron membrane time constant")
		tf       = flag.Float64("tf", 2.0, "Neuron fast synapse time constant")
		dt       = flag.Float64("dt", 0.01, "Integration step size")
		simTime  = flag.Float64("time", 200, "Simulation window length")
		record   = flag.Bool("record-voltage", false, "Record a per-neuron voltage trace")
		exportTo = flag.String("export", "", "Write spike (and voltage, if -record-voltage) records to this file")
		network  = flag.String("save-network", "", "Also serialize the wired network to this file")
		verbose  = flag.Bool("verbose", false, "Print progress and execution stats")
		version  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("stickrun - STICK Runtime v1.0.0")
		return
	}

	root, err := buildExpr(*op, *a, *b)
	if err != nil {
		log.Fatalf("stickrun: %v", err)
	}

	enc, err := core.NewEncoder(*tmin, *tcod)
	if err != nil {
		log.Fatalf("stickrun: invalid encoder: %v", err)
	}
	params := core.NeuronParams{Vt: *vt, Tm: *tm, Tf: *tf}

	plan, err := compiler.Compile(root, *maxRange, enc, params, compiler.CompileOptions{Verbose: *verbose})
	if err != nil {
		log.Fatalf("stickrun: compilation failed: %v", err)
	}
	if *verbose {
		fmt.Printf("Compiled %d neuron(s), %d synapse(s), %d trigger(s)\n",
			len(plan.Root.AllNeurons()), len(plan.Root.AllSynapses()), len(plan.Triggers))
	}

	if *network != "" {
		data, err := model.Serialize(plan.Root)
		if err != nil {
			log.Fatalf("stickrun: serialize network: %v", err)
		}
		if err := os.WriteFile(*network, data, 0644); err != nil {
			log.Fatalf("stickrun: write %s: %v", *network, err)
		}
	}

	sim, err := runtime.InitWithPlan(plan, *dt, runtime.SimulatorOptions{RecordVoltage: *record})
	if err != nil {
		log.Fatalf("stickrun: init: %v", err)
	}

	if err := sim.Simulate(*simTime); err != nil {
		log.Fatalf("stickrun: simulate: %v", err)
	}

	value, err := runtime.DecodeOutput(sim, plan.Reader)
	if err != nil {
		log.Fatalf("stickrun: decode: %v", err)
	}
	fmt.Printf("%s = %v\n", describeExpr(*op, *a, *b), value)

	if *verbose {
		fmt.Println(sim.Stats().String())
	}

	if *exportTo != "" {
		if err := writeExport(*exportTo, sim); err != nil {
			log.Fatalf("stickrun: export: %v", err)
		}
	}
}

// writeExport writes spikes to path and, if any voltage samples were
// recorded, writes them to path+".voltage" — each file holds exactly one
// framed record, since export.ReadSpikeRecords/ReadVoltageRecords each
// consume their whole stream as one body.
func writeExport(path string, sim *runtime.Simulator) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteSpikeRecords(f, export.CollectSpikeRecords(sim)); err != nil {
		return fmt.Errorf("write spikes: %w", err)
	}

	if voltages := export.CollectVoltageRecords(sim); len(voltages) > 0 {
		vf, err := os.Create(path + ".voltage")
		if err != nil {
			return err
		}
		defer vf.Close()
		if err := export.WriteVoltageRecords(vf, voltages); err != nil {
			return fmt.Errorf("write voltages: %w", err)
		}
	}
	return nil
}

func buildExpr(op string, a, b float64) (*symbolic.Scalar, error) {
	switch op {
	case "load":
		return symbolic.Load(a), nil
	case "neg":
		return symbolic.Neg(symbolic.Load(a)), nil
	case "add":
		return symbolic.Add(symbolic.Load(a), symbolic.Load(b)), nil
	case "mul":
		return symbolic.Mul(symbolic.Load(a), symbolic.Load(b)), nil
	default:
		return nil, fmt.Errorf("unknown -op %q, want load|neg|add|mul", op)
	}
}

func describeExpr(op string, a, b float64) string {
	switch op {
	case "load":
		return fmt.Sprintf("Load(%v)", a)
	case "neg":
		return fmt.Sprintf("Neg(Load(%v))", a)
	case "add":
		return fmt.Sprintf("Load(%v)+Load(%v)", a, b)
	case "mul":
		return fmt.Sprintf("Load(%v)*Load(%v)", a, b)
	default:
		return op
	}
}
