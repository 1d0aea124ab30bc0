package subnet

import (
	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// NewSignedMultiplierNormNetwork implements the Mul operator via a
// log-add-exp pipeline: each operand's magnitude is extracted by collapsing
// its header onto a single relay (mergePolarity), passed through
// buildMagnitudePrimitive's inverted leg to approximate its logarithm, the
// two logarithms are summed by a linear accumulator, and the sum is passed
// back through buildMagnitudePrimitive's forward leg to recover the product
// magnitude — exp(log|a| + log|b|) = |a|*|b|. Sign is resolved separately by
// a bank of AND-gates over the four plus/minus combinations of the two
// operands, and used to latch out.plus or out.minus permanently below
// threshold (the same self-latch trick newGatePair uses) so only the
// correct polarity ever forwards the product magnitude.
//
// This circuit is an engineering approximation rather than a derivation with
// a closed-form timing guarantee: Lagorce et al. 2015's exp/log primitives
// were designed for unsigned magnitudes, and grafting sign resolution onto
// them here is this package's own extension (see DESIGN.md's Open Question
// notes on SignedMultiplierNormNetwork).
func NewSignedMultiplierNormNetwork(parent *model.Module, localName string, enc core.Encoder, p core.NeuronParams) (*model.Module, model.NeuronHeader, model.NeuronHeader, model.NeuronHeader) {
	m := parent.NewSubmodule(localName)
	ts := tsyn(enc)

	inA := model.NeuronHeader{
		Plus:  m.NewNeuron("in_a_plus", p),
		Minus: m.NewNeuron("in_a_minus", p),
	}
	inB := model.NeuronHeader{
		Plus:  m.NewNeuron("in_b_plus", p),
		Minus: m.NewNeuron("in_b_minus", p),
	}

	aMag := mergePolarity(m, "a_mag", inA, enc, p)
	bMag := mergePolarity(m, "b_mag", inB, enc, p)

	logA := buildMagnitudePrimitive(m, "log_a", enc, p, aMag, true)
	logB := buildMagnitudePrimitive(m, "log_b", enc, p, bMag, true)

	laOpen, laClose := newGatePair(m, "log_a_gate", logA, enc, p)
	lbOpen, lbClose := newGatePair(m, "log_b_gate", logB, enc, p)

	starter := m.NewNeuron("log_sum_starter", p)
	m.Connect(laOpen, starter, model.ChannelV, p.Vt, ts)
	m.Connect(lbOpen, starter, model.ChannelV, p.Vt, ts)

	logSumTerms := []linearTerm{
		{onset: laOpen, offset: laClose, sign: 1},
		{onset: lbOpen, offset: lbClose, sign: 1},
	}
	// Both gates always close exactly once, but not in a fixed wall-clock
	// order (it depends on |a| and |b|'s relative magnitudes), so kickoff
	// must trigger on whichever of the two actually finishes last rather
	// than assuming laClose or lbClose specifically.
	logKickoff := newLastOfTwoGate(m, "log_sum_kickoff", laClose, lbClose, enc, p)
	logSum := newLinearSumAccumulator(m, "log_sum", enc, p, starter, logKickoff, logSumTerms)

	productMag := buildMagnitudePrimitive(m, "product", enc, p, logSum, false)

	ppAnd := newAndGate(m, "pp_and", inA.Plus, inB.Plus, enc, p)
	mmAnd := newAndGate(m, "mm_and", inA.Minus, inB.Minus, enc, p)
	pmAnd := newAndGate(m, "pm_and", inA.Plus, inB.Minus, enc, p)
	mpAnd := newAndGate(m, "mp_and", inA.Minus, inB.Plus, enc, p)

	sameSign := m.NewNeuron("same_sign", p)
	m.Connect(ppAnd, sameSign, model.ChannelV, p.Vt, ts)
	m.Connect(mmAnd, sameSign, model.ChannelV, p.Vt, ts)

	diffSign := m.NewNeuron("diff_sign", p)
	m.Connect(pmAnd, diffSign, model.ChannelV, p.Vt, ts)
	m.Connect(mpAnd, diffSign, model.ChannelV, p.Vt, ts)

	out := model.NeuronHeader{
		Plus:  m.NewNeuron("out_plus", p),
		Minus: m.NewNeuron("out_minus", p),
	}

	// Latch the wrong-sign output permanently below threshold before
	// productMag's pulses arrive: a huge negative ge drags V far below
	// anything productMag's instant V jumps can recover.
	m.Connect(diffSign, out.Plus, model.ChannelGe, -p.Vt*latchFactor, ts)
	m.Connect(sameSign, out.Minus, model.ChannelGe, -p.Vt*latchFactor, ts)

	m.Connect(productMag, out.Plus, model.ChannelV, p.Vt, ts)
	m.Connect(productMag, out.Minus, model.ChannelV, p.Vt, ts)

	return m, inA, inB, out
}
