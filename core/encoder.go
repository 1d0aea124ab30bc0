// Package core provides the fundamental numeric primitives shared by every
// other STICK package: the spike-interval encoder, neuron parameter
// validation, and the cache-aligned memory helpers the runtime arena builds
// on.
//
// Interval coding maps a normalized scalar x in [0,1] to the time between a
// pair of spikes: interval(x) = Tmin + x*Tcod. Every other package treats an
// Encoder as an opaque, immutable value; only this package knows its
// internal representation.
package core

import "fmt"

// Encoder converts between normalized scalars in [0,1] and spike intervals.
//
// Tmin is the minimum spike interval (encodes x=0); Tcod is the coding span
// added on top of Tmin (encodes x=1 as Tmin+Tcod). Both are in the same time
// unit the simulator's dt is expressed in.
type Encoder struct {
	Tmin float64
	Tcod float64
}

// NewEncoder validates Tmin and Tcod and returns a ready-to-use Encoder.
func NewEncoder(tmin, tcod float64) (Encoder, error) {
	enc := Encoder{Tmin: tmin, Tcod: tcod}
	if err := enc.Validate(); err != nil {
		return Encoder{}, err
	}
	return enc, nil
}

// Validate reports InvalidEncoderConfig if Tmin or Tcod is non-positive.
func (e Encoder) Validate() error {
	if e.Tmin <= 0 {
		return fmt.Errorf("%w: Tmin must be > 0, got %v", ErrInvalidEncoderConfig, e.Tmin)
	}
	if e.Tcod <= 0 {
		return fmt.Errorf("%w: Tcod must be > 0, got %v", ErrInvalidEncoderConfig, e.Tcod)
	}
	return nil
}

// EncodeInterval maps x in [0,1] to a spike interval Tmin + x*Tcod.
func (e Encoder) EncodeInterval(x float64) float64 {
	return e.Tmin + x*e.Tcod
}

// DecodeInterval is the inverse of EncodeInterval: (interval-Tmin)/Tcod.
func (e Encoder) DecodeInterval(interval float64) float64 {
	return (interval - e.Tmin) / e.Tcod
}
