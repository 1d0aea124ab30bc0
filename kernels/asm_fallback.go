//go:build !amd64

package kernels

// useUnrolled disables the unrolled loop on non-amd64 architectures, where
// BatchSize's narrower width doesn't benefit from 4-wide unrolling.
const useUnrolled = false

// IntegrateStepUnrolled is IntegrateStep verbatim on this architecture:
// BatchSize's non-amd64 widths are narrow enough that the scalar loop is
// already what the compiler would emit from an unrolled one.
func IntegrateStepUnrolled(v, ge, gf, gate, tm, tf []float32, dt float32) {
	IntegrateStep(v, ge, gf, gate, tm, tf, dt)
}
