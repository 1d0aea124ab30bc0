// Package stick implements STICK, a simulation and compilation toolkit for
// biologically-inspired spiking-neuron circuits that encode real numbers as
// spike intervals rather than firing rates or floating-point registers.
//
// STICK reimagines scalar arithmetic as spike timing: a value in [0,1] is
// carried by the interval between two spikes on a signed pair of neurons,
// and arithmetic (addition, negation, multiplication) is performed by small
// hand-designed subnetworks of integrate-and-fire neurons wired
// together by a compiler that lowers a symbolic expression DAG into a
// concrete, simulatable network.
//
// # Architecture Overview
//
// The toolkit consists of several key components:
//
//   - Encoder: maps a normalized scalar to/from a spike interval
//   - Model: neurons, typed synaptic channels, and hierarchical modules
//   - Subnet: the four arithmetic subnetworks (Load, Neg, Add, Mul) and
//     their shared gating/accumulator/magnitude primitives
//   - Symbolic: a shared, deduplicated Scalar expression DAG
//   - Compiler: lowers a Scalar DAG into a wired network, input triggers,
//     and an output reader
//   - Kernels: zero-allocation forward-Euler integration and threshold/reset
//   - Runtime: the single-threaded, synchronous simulator loop
//   - Export: flat and SQLite-backed persistence of spike/voltage records
//
// # Performance Characteristics
//
//   - Preallocated state: neuron state lives in one cache-aligned Arena,
//     sized once when the Simulator is built
//   - Architecture-aware unrolling: kernels.IntegrateStepUnrolled unrolls
//     its inner loop by 4 on amd64 and runs the plain loop elsewhere
//   - Deterministic replay: identical (network, encoder, dt, triggers)
//     always produce identical spike logs, with same-step crossings broken
//     by uid-lexicographic order
//
// # Basic Usage
//
//	root := symbolic.Add(symbolic.Load(2), symbolic.Load(3))
//	plan, err := compiler.Compile(root, 10.0, enc, params, compiler.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sim, err := runtime.InitWithPlan(plan, 0.01, runtime.DefaultSimulatorOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sim.Simulate(300); err != nil {
//	    log.Fatal(err)
//	}
//
//	value, err := runtime.DecodeOutput(sim, plan.Reader)
//
// # Package Structure
//
//   - core: encoder, neuron parameters, error kinds, alignment/serialization helpers
//   - model: neurons, synapses, hierarchical modules
//   - subnet: the four arithmetic subnetworks and their shared primitives
//   - symbolic: the shared Scalar expression DAG
//   - compiler: DAG-to-network lowering
//   - kernels: architecture-dispatched integration and threshold kernels
//   - runtime: the simulator, its Arena, and execution stats
//   - export: spike/voltage record persistence
//   - cmd: example drivers (stickc, stickrun, stickbench)
package stick
