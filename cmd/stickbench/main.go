// Command stickbench measures the integration and threshold kernels'
// throughput across population sizes: a benchmark harness for STICK's
// four-channel neuron integration step.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/stick-sim/stick/kernels"
)

var (
	size    = flag.Int("size", 1024, "Population size")
	iter    = flag.Int("iter", 10000, "Number of steps to time")
	verbose = flag.Bool("verbose", false, "Print per-test detail")
	version = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("stickbench - STICK Kernel Benchmark v1.0.0")
		return
	}

	fmt.Printf("STICK Kernel Benchmark\n")
	fmt.Printf("=======================\n")
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Population size: %d\n", *size)
	fmt.Printf("Steps timed: %d\n", *iter)
	fmt.Printf("Unrolled integration: %t (batch size %d)\n", kernels.Unrolled(), kernels.BatchSize())
	fmt.Println()

	runIntegrationBench()
	runThresholdBench()
	runDivergedBench()
}

func runIntegrationBench() {
	v, ge, gf, gate, tm, tf := population(*size)

	scalarTime := timeIt(*iter, func() {
		kernels.IntegrateStep(v, ge, gf, gate, tm, tf, 0.01)
	})
	unrolledTime := timeIt(*iter, func() {
		kernels.IntegrateStepUnrolled(v, ge, gf, gate, tm, tf, 0.01)
	})

	stepsPerSecond := func(d time.Duration) float64 {
		return float64(*iter*(*size)) / d.Seconds()
	}

	fmt.Printf("IntegrateStep:          %v (%.2f Mneuron-steps/s)\n", scalarTime, stepsPerSecond(scalarTime)/1e6)
	fmt.Printf("IntegrateStepUnrolled:  %v (%.2f Mneuron-steps/s)\n", unrolledTime, stepsPerSecond(unrolledTime)/1e6)
	if *verbose {
		fmt.Printf("  unrolled speedup: %.2fx\n", float64(scalarTime)/float64(unrolledTime))
	}
	fmt.Println()
}

func runThresholdBench() {
	v, ge, gf, gate, _, _ := population(*size)
	vt := make([]float32, *size)
	for i := range vt {
		vt[i] = 1.0
	}
	spiked := make([]bool, *size)

	d := timeIt(*iter, func() {
		kernels.ThresholdReset(v, ge, gf, gate, vt, spiked)
	})
	stepsPerSecond := float64(*iter*(*size)) / d.Seconds()
	fmt.Printf("ThresholdReset:         %v (%.2f Mneuron-checks/s)\n", d, stepsPerSecond/1e6)
	fmt.Println()
}

func runDivergedBench() {
	v, _, _, _, _, _ := population(*size)
	d := timeIt(*iter, func() {
		_ = kernels.Diverged(v)
	})
	stepsPerSecond := float64(*iter*(*size)) / d.Seconds()
	fmt.Printf("Diverged:               %v (%.2f Mchecks/s)\n", d, stepsPerSecond/1e6)
}

func population(n int) (v, ge, gf, gate, tm, tf []float32) {
	v = make([]float32, n)
	ge = make([]float32, n)
	gf = make([]float32, n)
	gate = make([]float32, n)
	tm = make([]float32, n)
	tf = make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = rand.Float32() * 0.5
		ge[i] = rand.Float32() * 0.1
		gf[i] = rand.Float32() * 0.1
		gate[i] = 1.0
		tm[i] = 1.0 + rand.Float32()
		tf[i] = 2.0 + rand.Float32()
	}
	return
}

func timeIt(iterations int, fn func()) time.Duration {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		fn()
	}
	return time.Since(start)
}
