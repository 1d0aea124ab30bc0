package core

import "errors"

// Error kinds shared across the STICK packages (spec.md §7). Each package
// wraps one of these sentinels with context via fmt.Errorf("...: %w", ...)
// so callers can still errors.Is against the kind.
var (
	// ErrRangeError: a Load value's magnitude exceeds max_range.
	ErrRangeError = errors.New("stick: range error")

	// ErrInvalidEncoderConfig: Tmin <= 0 or Tcod <= 0.
	ErrInvalidEncoderConfig = errors.New("stick: invalid encoder config")

	// ErrInvalidNeuronConfig: Vt, tm, or tf <= 0.
	ErrInvalidNeuronConfig = errors.New("stick: invalid neuron config")

	// ErrDuplicateUID: two neurons resolved to the same uid (compiler bug).
	ErrDuplicateUID = errors.New("stick: duplicate neuron uid")

	// ErrUndecodableOutput: neither or both of a header's neurons produced
	// exactly two spikes.
	ErrUndecodableOutput = errors.New("stick: undecodable output")

	// ErrSimulationDiverged: a neuron voltage became non-finite.
	ErrSimulationDiverged = errors.New("stick: simulation diverged")
)
