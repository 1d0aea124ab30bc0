package kernels

import "runtime"

// BatchSize reports the running architecture's nominal SIMD width in
// float32 lanes: 8 on amd64, 4 elsewhere. It is not IntegrateStepUnrolled's
// unroll factor, which is 4 on amd64 and 1 (no unrolling) elsewhere.
func BatchSize() int {
	switch runtime.GOARCH {
	case "amd64":
		return 8
	case "arm64":
		return 4
	default:
		return 4
	}
}

// Unrolled reports whether IntegrateStepUnrolled uses the wide unrolled
// loop on this architecture.
func Unrolled() bool { return useUnrolled }
