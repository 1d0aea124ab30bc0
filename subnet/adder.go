package subnet

import (
	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// NewAdderNetwork implements the Add operator: it exposes in_a, in_b, and
// out. Each operand's plus and minus contributions are summed into two
// always-nonnegative magnitude accumulators — sum_plus totals a's and b's
// plus-polarity contributions, sum_minus their minus-polarity ones — and
// newSignedDifference then decides which of the two is larger and reports
// their difference on the matching output polarity.
//
// Folding a term's opposing polarity directly into the same signed
// accumulator (rather than summing same-polarity contributions into two
// separate accumulators first) cannot work with newLinearSumAccumulator's
// near-zero threshold: whichever accumulator turns out to hold the
// smaller (or entirely absent) operand would still need to carry the
// other polarity's contribution with a flipped sign, driving its ge
// briefly positive while that contribution is open and crossing the
// threshold within the first simulation step instead of waiting for
// kickoff. Keeping sum_plus and sum_minus each built only from
// same-polarity, same-sign terms avoids that entirely: both stay
// nonpositive for their whole charging phase regardless of which operand
// is bigger or whether one side is empty.
//
// Both accumulators share one kickoff signal: a's two gate-pair families
// (a_plus, a_minus) are mutually exclusive, as are b's, so ORing each
// family down to a single "closed" relay and gating those two relays
// through newLastOfTwoGate yields a neuron that fires exactly once both
// operands have delivered their second spike, regardless of which
// polarity each operand actually used — unlike indexing a fixed slot in
// a term list, this does not depend on which specific gate pair happens
// to be active.
func NewAdderNetwork(parent *model.Module, localName string, enc core.Encoder, p core.NeuronParams) (*model.Module, model.NeuronHeader, model.NeuronHeader, model.NeuronHeader) {
	m := parent.NewSubmodule(localName)

	inA := model.NeuronHeader{
		Plus:  m.NewNeuron("in_a_plus", p),
		Minus: m.NewNeuron("in_a_minus", p),
	}
	inB := model.NeuronHeader{
		Plus:  m.NewNeuron("in_b_plus", p),
		Minus: m.NewNeuron("in_b_minus", p),
	}

	apOpen, apClose := newGatePair(m, "a_plus", inA.Plus, enc, p)
	amOpen, amClose := newGatePair(m, "a_minus", inA.Minus, enc, p)
	bpOpen, bpClose := newGatePair(m, "b_plus", inB.Plus, enc, p)
	bmOpen, bmClose := newGatePair(m, "b_minus", inB.Minus, enc, p)

	ts := tsyn(enc)
	starter := m.NewNeuron("starter", p)
	// Self-latch like newGatePair's open so operands arriving at different
	// times still produce a single start marker.
	m.Connect(starter, starter, model.ChannelGe, -p.Vt*latchFactor, ts*primeDelayFrac)
	for _, g := range []*model.Neuron{apOpen, amOpen, bpOpen, bmOpen} {
		m.Connect(g, starter, model.ChannelV, p.Vt, ts)
	}

	aClosed := newOrRelay(m, "a_closed", enc, p, apClose, amClose)
	bClosed := newOrRelay(m, "b_closed", enc, p, bpClose, bmClose)
	kickoff := newLastOfTwoGate(m, "kickoff", aClosed, bClosed, enc, p)

	plusTerms := []linearTerm{
		{onset: apOpen, offset: apClose, sign: 1},
		{onset: bpOpen, offset: bpClose, sign: 1},
	}
	minusTerms := []linearTerm{
		{onset: amOpen, offset: amClose, sign: 1},
		{onset: bmOpen, offset: bmClose, sign: 1},
	}
	sumPlus := newLinearSumAccumulator(m, "sum_plus", enc, p, starter, kickoff, plusTerms)
	sumMinus := newLinearSumAccumulator(m, "sum_minus", enc, p, starter, kickoff, minusTerms)

	out := newSignedDifference(m, "out", enc, p, sumPlus, sumMinus)

	return m, inA, inB, out
}
