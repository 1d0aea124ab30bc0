package core

import "fmt"

// NeuronParams holds the three constant parameters of a STICK neuron: the
// firing threshold Vt, the membrane time constant tm, and the fast synapse
// time constant tf. These never change after a neuron is created; the
// mutable integration state (V, ge, gf, gate, last-spike time) is kept
// separately by the runtime, not on this struct (spec.md §5).
type NeuronParams struct {
	Vt float64
	Tm float64
	Tf float64
}

// Validate reports InvalidNeuronConfig if any parameter is non-positive.
func (p NeuronParams) Validate() error {
	if p.Vt <= 0 {
		return fmt.Errorf("%w: Vt must be > 0, got %v", ErrInvalidNeuronConfig, p.Vt)
	}
	if p.Tm <= 0 {
		return fmt.Errorf("%w: tm must be > 0, got %v", ErrInvalidNeuronConfig, p.Tm)
	}
	if p.Tf <= 0 {
		return fmt.Errorf("%w: tf must be > 0, got %v", ErrInvalidNeuronConfig, p.Tf)
	}
	return nil
}
