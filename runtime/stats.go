package runtime

import (
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ExecutionStats summarizes one completed Simulate call. Grounded on the
// teacher's runtime.ExecutionStats/Engine.Stats, generalized from a
// per-kernel-opcode execution counter table (meaningless for a fixed
// four-channel neuron model) to the handful of numbers that matter for a
// STICK run: population size, steps taken, spikes emitted, arena
// footprint, and wall-clock cost.
type ExecutionStats struct {
	// RunID is a fresh github.com/google/uuid string per Stats call — an
	// opaque correlation tag for logs and export records. It is never part
	// of the deterministic neuron uid space spec.md §4.1 defines, and two
	// Stats calls over the same completed Simulate differ only in RunID.
	RunID string

	Steps       int
	Neurons     int
	Synapses    int
	TotalSpikes int
	ArenaBytes  uintptr
	Elapsed     time.Duration
}

// Stats summarizes the Simulator's most recently completed Simulate call.
// Calling it before Simulate has run reports zero steps (spikes already
// logged by ApplyInputValue are counted), which is a legitimate state, not
// an error.
func (s *Simulator) Stats() ExecutionStats {
	total := 0
	for _, spikes := range s.SpikeLog {
		total += len(spikes)
	}
	return ExecutionStats{
		RunID:       uuid.NewString(),
		Steps:       s.steps,
		Neurons:     len(s.neurons),
		Synapses:    len(s.root.AllSynapses()),
		TotalSpikes: total,
		ArenaBytes:  s.arena.TotalSize(),
		Elapsed:     s.elapsed,
	}
}

// String renders stats the way cmd/stickrun's -verbose flag prints them:
// one line, humanized byte count.
func (st ExecutionStats) String() string {
	return fmt.Sprintf("run %s: %d step(s), %d neuron(s), %d synapse(s), %d spike(s), %s arena, %s elapsed",
		st.RunID, st.Steps, st.Neurons, st.Synapses, st.TotalSpikes,
		humanize.Bytes(uint64(st.ArenaBytes)), st.Elapsed)
}
