// Package kernels provides the per-step neuron integration kernels the
// runtime's simulator loop calls once per population per dt: a forward
// Euler update of V and gf, and the threshold/reset pass that turns a
// crossing into a spike. Every kernel operates in place on parallel
// []float32 state vectors with zero allocation, the same byte-buffer
// kernel shape generalized from a single generic payload buffer to the
// four named neuron conductances.
package kernels

import "github.com/chewxy/math32"

// IntegrateStep advances V and gf for one dt across an entire population,
// implementing spec.md §4.3's forward Euler update:
//
//	dV/dt  = (ge + gate*gf) / tm
//	dgf/dt = -gf / tf
//
// All six slices must be the same length; ge and gate are left unmodified
// by this kernel (a synapse delivery pass mutates them before integration
// runs, per spec.md §4.3's ordering).
func IntegrateStep(v, ge, gf, gate, tm, tf []float32, dt float32) {
	n := len(v)
	for i := 0; i < n; i++ {
		v[i] += dt * (ge[i] + gate[i]*gf[i]) / tm[i]
		gf[i] += dt * (-gf[i] / tf[i])
	}
}

// ThresholdReset checks every neuron's V against its Vt and, on a crossing,
// records a spike and resets V, ge, gf, and gate to exactly zero (spec.md
// §8 invariant 2). spiked is overwritten for every index so callers can
// reuse the same backing array across steps without clearing it first.
func ThresholdReset(v, ge, gf, gate, vt []float32, spiked []bool) {
	n := len(v)
	for i := 0; i < n; i++ {
		if v[i] >= vt[i] {
			spiked[i] = true
			v[i] = 0
			ge[i] = 0
			gf[i] = 0
			gate[i] = 0
		} else {
			spiked[i] = false
		}
	}
}

// Diverged reports whether any voltage in the population has become
// non-finite, the guard behind spec.md §7's SimulationDiverged: a
// misconfigured neuron (e.g. tm or tf far too small for dt) can blow up
// the Euler integration before a sane threshold ever catches it.
func Diverged(v []float32) bool {
	for _, x := range v {
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return true
		}
	}
	return false
}
