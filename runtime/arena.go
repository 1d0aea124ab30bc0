package runtime

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// ArenaRegion describes one named section of an Arena's backing buffer, for
// introspection and tests.
type ArenaRegion struct {
	Offset uintptr
	Size   uintptr
	Name   string
}

// Arena is a single pre-allocated, cache-line-aligned buffer holding every
// neuron's mutable integration state and static kernel parameters as
// parallel float32 vectors, indexed by model.Neuron.Ordinal.
//
// STICK's per-neuron shape is fixed and known entirely from
// core.NeuronParams and the four synaptic channels (spec.md §4.1/§4.3), so
// there is no variable node-payload region or streaming window here — see
// DESIGN.md for the regions this package does not need.
type Arena struct {
	buffer  []byte
	regions map[string]ArenaRegion
	n       int

	vOff, geOff, gfOff, gateOff uintptr
	vtOff, tmOff, tfOff         uintptr
	lastSpikeOff, spikeCountOff uintptr

	spiked []bool // per-step crossing flags, reused every IntegrateStep/ThresholdReset pair
}

// NewArena allocates an Arena sized for neurons, whose Ordinal fields must
// form a dense permutation of [0,len(neurons)) — exactly what
// model.Module.AllNeurons returns. Vt, tm, and tf are seeded from each
// neuron's core.NeuronParams; V, ge, gf, gate, last-spike time, and spike
// counts start at zero.
func NewArena(neurons []*model.Neuron) (*Arena, error) {
	n := len(neurons)
	if n == 0 {
		return nil, fmt.Errorf("stick: cannot allocate arena for zero neurons")
	}

	seen := make([]bool, n)
	for _, nr := range neurons {
		if nr.Ordinal < 0 || nr.Ordinal >= n || seen[nr.Ordinal] {
			return nil, fmt.Errorf("stick: neuron %s has invalid ordinal %d for an arena of size %d", nr.UID, nr.Ordinal, n)
		}
		seen[nr.Ordinal] = true
	}

	vecBytes := core.AlignedSize(uintptr(n) * core.Float32Size)

	a := &Arena{regions: make(map[string]ArenaRegion), n: n}

	cursor := uintptr(0)
	take := func(name string, size uintptr) uintptr {
		off := cursor
		a.regions[name] = ArenaRegion{Offset: off, Size: size, Name: name}
		cursor += size
		return off
	}

	a.vOff = take("V", vecBytes)
	a.geOff = take("Ge", vecBytes)
	a.gfOff = take("Gf", vecBytes)
	a.gateOff = take("Gate", vecBytes)
	a.vtOff = take("Vt", vecBytes)
	a.tmOff = take("Tm", vecBytes)
	a.tfOff = take("Tf", vecBytes)
	a.lastSpikeOff = take("LastSpikeTime", vecBytes)
	a.spikeCountOff = take("SpikeCount", vecBytes) // int32 is the same width as float32

	a.buffer = core.AlignedBytes(int(cursor))
	a.spiked = make([]bool, n)

	for _, nr := range neurons {
		a.Vt()[nr.Ordinal] = float32(nr.Params.Vt)
		a.Tm()[nr.Ordinal] = float32(nr.Params.Tm)
		a.Tf()[nr.Ordinal] = float32(nr.Params.Tf)
	}

	return a, nil
}

func floatsAt(buf []byte, offset uintptr, n int) []float32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[offset])), n)
}

func int32sAt(buf []byte, offset uintptr, n int) []int32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&buf[offset])), n)
}

// N returns the number of neurons the arena was sized for.
func (a *Arena) N() int { return a.n }

// V is the membrane voltage vector, indexed by Ordinal.
func (a *Arena) V() []float32 { return floatsAt(a.buffer, a.vOff, a.n) }

// Ge is the constant-current conductance vector.
func (a *Arena) Ge() []float32 { return floatsAt(a.buffer, a.geOff, a.n) }

// Gf is the exponentially-decaying conductance vector.
func (a *Arena) Gf() []float32 { return floatsAt(a.buffer, a.gfOff, a.n) }

// Gate is the gf-pathway enable vector.
func (a *Arena) Gate() []float32 { return floatsAt(a.buffer, a.gateOff, a.n) }

// Vt, Tm, and Tf are the per-neuron threshold and time-constant vectors
// kernels.IntegrateStep and kernels.ThresholdReset read; they never change
// after NewArena seeds them.
func (a *Arena) Vt() []float32 { return floatsAt(a.buffer, a.vtOff, a.n) }
func (a *Arena) Tm() []float32 { return floatsAt(a.buffer, a.tmOff, a.n) }
func (a *Arena) Tf() []float32 { return floatsAt(a.buffer, a.tfOff, a.n) }

// LastSpikeTime holds, for each neuron, the simulation time of its most
// recent spike (or 0 if it has never fired). Output decoding does not read
// it; DecodeOutput works from the Simulator's SpikeLog.
func (a *Arena) LastSpikeTime() []float32 { return floatsAt(a.buffer, a.lastSpikeOff, a.n) }

// SpikeCount is how many times each neuron has fired so far this run.
// Decoding a header (runtime/plan_runner.go) needs exactly one side with
// exactly two spikes (core.ErrUndecodableOutput otherwise), and counts them
// from SpikeLog rather than from this vector.
func (a *Arena) SpikeCount() []int32 { return int32sAt(a.buffer, a.spikeCountOff, a.n) }

// Spiked is the scratch crossing-flag buffer kernels.ThresholdReset writes
// into each step. It is reused in place rather than reallocated, so the
// crossing flags cost no per-step allocation.
func (a *Arena) Spiked() []bool { return a.spiked }

// Reset zeroes all mutable state (V, ge, gf, gate, last-spike time, spike
// counts, spiked flags) while leaving Vt/Tm/Tf untouched, so the same Arena
// can be reused to simulate the same compiled plan more than once.
func (a *Arena) Reset() {
	zero := func(s []float32) {
		for i := range s {
			s[i] = 0
		}
	}
	zero(a.V())
	zero(a.Ge())
	zero(a.Gf())
	zero(a.Gate())
	zero(a.LastSpikeTime())
	counts := a.SpikeCount()
	for i := range counts {
		counts[i] = 0
	}
	for i := range a.spiked {
		a.spiked[i] = false
	}
}

// Region returns the named region's offset and size, for tests and
// diagnostics.
func (a *Arena) Region(name string) (ArenaRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// TotalSize returns the arena's total backing-buffer size in bytes.
func (a *Arena) TotalSize() uintptr { return uintptr(len(a.buffer)) }

// FloatsToBytes encodes a float32 slice as little-endian bytes. Nothing in
// this module calls it apart from its tests; the export package writes its
// records with encoding/binary directly.
func FloatsToBytes(f []float32) []byte {
	out := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], *(*uint32)(unsafe.Pointer(&v)))
	}
	return out
}

// BytesToFloats is the inverse of FloatsToBytes. It returns an error if b's
// length is not a multiple of 4.
func BytesToFloats(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("stick: byte slice length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4 : (i+1)*4])
		out[i] = *(*float32)(unsafe.Pointer(&bits))
	}
	return out, nil
}
