// Package subnet provides the pre-designed STICK circuits the compiler
// instantiates for each operator node: Load (InjectorNetwork), Neg
// (SignFlipperNetwork), Add (AdderNetwork), and signed Mul
// (SignedMultiplierNormNetwork), plus the gating and exponential/logarithmic
// primitives those circuits share.
//
// Every constructor here takes the parent model.Module the circuit should
// live under and a local name; it returns the circuit's own submodule plus
// its exposed plugs (model.NeuronHeader pairs, or a single neuron for
// NewExponentialSubnet's output). Internal wiring never
// escapes the submodule boundary — callers only ever see headers.
package subnet

import (
	"github.com/chewxy/math32"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// tsynFrac is the cross-synapse delay used throughout the subnetwork
// library, expressed as a fraction of enc.Tmin (spec.md §4.2's "delays
// Tsyn and Tsyn+Tmin... carry the circuit"). Deriving it from Tmin rather
// than hardcoding a constant keeps it comfortably above any dt the
// simulator runs at (spec.md §9: dt <= 0.01*Tmin) while staying small
// relative to a coded interval.
const tsynFrac = 0.05

func tsyn(enc core.Encoder) float64 { return enc.Tmin * tsynFrac }

// Tsyn is the standard cross-synapse delay (spec.md §4.5 step 5's "weight
// Vt and delay Tsyn") used to wire one subnetwork's output header to
// another's input header. Exported so the compiler can use the same value
// at the module boundary that the subnetworks use internally.
func Tsyn(enc core.Encoder) float64 { return tsyn(enc) }

// Gate-pair relay/latch weight fractions, expressed as multiples of Vt.
// closeRelayFrac + primeFrac must straddle 1.0 (sum < 1 alone, sum with a
// second closeRelayFrac pulse >= 1) so close fires on the source's second
// spike only; see newGatePair.
const (
	closeRelayFrac = 0.5
	primeFrac      = 0.4
	latchFactor    = 1e6
	primeDelayFrac = 0.1 // fraction of Tsyn used as the open->close prime delay
)

// newGatePair wires a first/last gating pair off source, which must fire
// exactly twice to carry one coded interval (a header's plus or minus
// neuron). open fires on the first of those spikes and then self-latches
// (a large negative ge makes it permanently unresponsive) so the second
// source spike cannot re-fire it. close stays below threshold on the first
// spike, gets primed by open just above half threshold, and only crosses
// on the second source spike.
func newGatePair(parent *model.Module, prefix string, source *model.Neuron, enc core.Encoder, p core.NeuronParams) (open, close *model.Neuron) {
	we := p.Vt
	wi := -p.Vt
	ts := tsyn(enc)

	open = parent.NewNeuron(prefix+"_open", p)
	close = parent.NewNeuron(prefix+"_close", p)

	parent.Connect(source, open, model.ChannelV, we, ts)
	parent.Connect(source, close, model.ChannelV, we*closeRelayFrac, ts)
	parent.Connect(open, close, model.ChannelV, we*primeFrac, ts*primeDelayFrac)
	parent.Connect(open, open, model.ChannelGe, wi*latchFactor, ts*primeDelayFrac)

	return open, close
}

// newLinearSumAccumulator builds a neuron that fires exactly twice: once
// as a start marker relayed from starter, and once when the accumulated
// contribution of terms reaches threshold. Each term is an (onset, offset,
// sign) triple from a gate pair: the accumulator's ge receives -sign at
// onset's fire time (delayed by core-coded Tmin, stripping the fixed
// baseline) and sign at offset's fire time, so by superposition the
// running ge-driven charge stays <= 0 while any term is still open,
// regardless of how the windows overlap in time — provided every term in
// terms shares the same sign. Mixing signs in one term list reintroduces
// the premature-threshold-crossing failure newSignedDifference exists to
// avoid: whichever term ends up contributing the opposite sign would
// drive ge briefly positive while charging, crossing the near-zero
// threshold within the first simulation step instead of at kickoff. Every
// current caller passes an all-same-sign terms list and resolves sign
// separately (see NewAdderNetwork, NewSignedMultiplierNormNetwork).
//
// The accumulator's own threshold sits at a near-zero fraction of Vt for
// the whole run, so it only ever fires once kickoff flips its ge to a
// constant +1 discharge rate — the time from kickoff to spike then equals
// the summed magnitude. kickoff must itself fire only once every term's
// offset that will ever fire in this run has fired; callers build it from
// the same gate pairs terms draws from (see NewAdderNetwork), not from a
// fixed slot in terms, since which terms actually fire depends on the
// operands' runtime signs. enc.Tmin is folded into the kickoff delay so
// the accumulator's second spike lands exactly enc.Tmin plus the summed
// magnitude after the start marker.
type linearTerm struct {
	onset, offset *model.Neuron
	sign          float64
}

func newLinearSumAccumulator(parent *model.Module, prefix string, enc core.Encoder, p core.NeuronParams, starter, kickoff *model.Neuron, terms []linearTerm) *model.Neuron {
	ts := tsyn(enc)
	accParams := p
	accParams.Vt = p.Vt * 1e-6
	acc := parent.NewNeuron(prefix+"_acc", accParams)

	for _, t := range terms {
		parent.Connect(t.onset, acc, model.ChannelGe, -t.sign, ts+enc.Tmin)
		parent.Connect(t.offset, acc, model.ChannelGe, t.sign, ts)
	}
	parent.Connect(kickoff, acc, model.ChannelGe, 1.0, ts+enc.Tmin)

	out := parent.NewNeuron(prefix+"_out", p)
	parent.Connect(starter, out, model.ChannelV, p.Vt, ts)
	parent.Connect(acc, out, model.ChannelV, p.Vt, ts)
	return out
}

// newSignedDifference resolves the signed difference (a's coded magnitude
// minus b's) of two non-negative two-spike magnitude signals into a
// NeuronHeader. a and b must each fire exactly twice — a start marker then
// a value-coded second spike — the contract newLinearSumAccumulator's
// return value satisfies.
//
// Sign is decided by racing a and b's second spikes against each other
// rather than by folding both into one signed ge sum: whichever relay
// fires first is the smaller operand, which pre-emptively latches the
// opposite output polarity below threshold (the same self-latch trick
// newGatePair's open neuron uses on itself) before that polarity's own
// relayed pulses can arrive. out.Plus and out.Minus each relay both a and
// b's second spikes unconditionally at a longer delay than the latch
// path, so the surviving polarity's own two spikes land at the smaller
// operand's second-spike time (serving as out's start marker) and, a
// further enc.Tmin later, the larger operand's second-spike time (out's
// own second/value spike) — an interval equal to Tmin + |a-b|.
//
// Deciding the winner this way only resolves correctly if a and b's
// completions are separated by more than the two paths' delay gap; ties
// or near-ties (within roughly one synapse delay) can race either way,
// the same floor newGatePair's self-latch already has on a single
// source's own two spikes.
func newSignedDifference(parent *model.Module, prefix string, enc core.Encoder, p core.NeuronParams, a, b *model.Neuron) model.NeuronHeader {
	ts := tsyn(enc)
	relayDelay := 2 * ts
	latchDelay := ts * primeDelayFrac

	// a and b each fire twice (start marker, then value spike); every wire
	// below must react only to the value spike, so extract it with the same
	// gate pair every other two-spike consumer in this package uses. The
	// start marker itself plays no further role once a and b exist.
	_, aClose := newGatePair(parent, prefix+"_a", a, enc, p)
	_, bClose := newGatePair(parent, prefix+"_b", b, enc, p)

	aFirst := parent.NewNeuron(prefix+"_a_first", p)
	bFirst := parent.NewNeuron(prefix+"_b_first", p)
	parent.Connect(aClose, aFirst, model.ChannelV, p.Vt, ts)
	parent.Connect(bClose, aFirst, model.ChannelGe, -p.Vt*latchFactor, latchDelay)
	parent.Connect(bClose, bFirst, model.ChannelV, p.Vt, ts)
	parent.Connect(aClose, bFirst, model.ChannelGe, -p.Vt*latchFactor, latchDelay)

	out := model.NeuronHeader{
		Plus:  parent.NewNeuron(prefix+"_plus", p),
		Minus: parent.NewNeuron(prefix+"_minus", p),
	}
	// a finishing first means a is the smaller operand, so b wins: latch
	// out.Plus off before its relayed pulses arrive. bFirst mirrors it.
	parent.Connect(aFirst, out.Plus, model.ChannelGe, -p.Vt*latchFactor, latchDelay)
	parent.Connect(bFirst, out.Minus, model.ChannelGe, -p.Vt*latchFactor, latchDelay)

	// On the polarity that survives, the larger operand's relay carries an
	// extra enc.Tmin so the output interval is Tmin + |a-b|.
	parent.Connect(aClose, out.Plus, model.ChannelV, p.Vt, relayDelay+enc.Tmin)
	parent.Connect(bClose, out.Plus, model.ChannelV, p.Vt, relayDelay)
	parent.Connect(aClose, out.Minus, model.ChannelV, p.Vt, relayDelay)
	parent.Connect(bClose, out.Minus, model.ChannelV, p.Vt, relayDelay+enc.Tmin)

	return out
}

// andHalfFrac is each input's instant V-channel contribution to a
// newLastOfTwoGate neuron, expressed as a multiple of Vt. Two such jumps
// clear threshold in either order; one alone does not, and — unlike a
// ge-ramp AND gate — V never decays on its own and a ChannelV jump is
// applied instantly, so the gate fires at whichever input arrives last
// with no integration lag, however far apart the two arrive.
const andHalfFrac = 0.51

// newLastOfTwoGate returns a neuron that fires exactly once both x and y
// have fired, at the time of whichever one fires last. Used to build a
// kickoff signal from two gate-pair families where exactly one member of
// each family is guaranteed to fire per run, but which one depends on a
// runtime sign.
func newLastOfTwoGate(parent *model.Module, name string, x, y *model.Neuron, enc core.Encoder, p core.NeuronParams) *model.Neuron {
	g := parent.NewNeuron(name, p)
	ts := tsyn(enc)
	parent.Connect(x, g, model.ChannelV, p.Vt*andHalfFrac, ts)
	parent.Connect(y, g, model.ChannelV, p.Vt*andHalfFrac, ts)
	return g
}

// buildMagnitudePrimitive implements the Lagorce et al. 2015 exponential
// gating circuit (spec.md §4.2): a gate pair opens and closes a gf pathway
// on an accumulator so that, starting from source's first spike, the
// accumulator spikes a second time after an interval of
// Tmin + Tcod*exp(-x*Tcod/tf), where x is the normalized magnitude coded
// by source's own two-spike interval. When invert is true the gf seed is
// negated, approximating the inverse (logarithmic) leg of the log/exp
// identity used by SignedMultiplierNormNetwork.
func buildMagnitudePrimitive(parent *model.Module, prefix string, enc core.Encoder, p core.NeuronParams, source *model.Neuron, invert bool) *model.Neuron {
	we := p.Vt
	gmult := p.Vt * p.Tm / p.Tf
	waccBar := p.Vt * p.Tm / enc.Tcod
	ts := tsyn(enc)

	sign := 1.0
	if invert {
		sign = -1.0
	}

	open, close := newGatePair(parent, prefix, source, enc, p)
	acc := parent.NewNeuron(prefix+"_acc", p)

	// First spike: relay straight through from open.
	parent.Connect(open, acc, model.ChannelV, p.Vt, ts)

	// Baseline ramp while the gate is open; removed again at close.
	parent.Connect(open, acc, model.ChannelGe, waccBar, ts)
	parent.Connect(close, acc, model.ChannelGe, -waccBar, ts)

	// Gate the gf pathway open for [close, close+Tmin+...) and seed its
	// initial decaying value at close, the required Tsyn+Tmin relation.
	parent.Connect(open, acc, model.ChannelGate, 1.0, ts)
	parent.Connect(close, acc, model.ChannelGf, sign*we*gmult, ts+enc.Tmin)

	return acc
}

// ExpectedExponentialInterval is the closed-form reference value for
// buildMagnitudePrimitive's timing, used only by tests to sanity-check the
// circuit's emergent behavior against spec.md §8 scenario 6.
func ExpectedExponentialInterval(enc core.Encoder, x, tf float64) float64 {
	return enc.Tmin + enc.Tcod*float64(math32.Exp(float32(-x*enc.Tcod/tf)))
}

// NewExponentialSubnet exposes the Lagorce-style exponential gating circuit
// as its own standalone subnetwork (spec.md §8 scenario 6 exercises it in
// isolation, decoupled from Add/Mul). Given a source neuron carrying a
// two-spike coded interval, the returned neuron relays source's first
// spike and then fires its own second spike after
// Tmin + Tcod*exp(-x*Tcod/tf), where x is the magnitude source's interval
// codes (see ExpectedExponentialInterval).
func NewExponentialSubnet(parent *model.Module, localName string, enc core.Encoder, p core.NeuronParams, source *model.Neuron, invert bool) (*model.Module, *model.Neuron) {
	m := parent.NewSubmodule(localName)
	return m, buildMagnitudePrimitive(m, "exp", enc, p, source, invert)
}

// andGateFrac is each input's ge contribution to a newAndGate neuron,
// expressed as a multiple of Vt. Two such contributions clear threshold;
// one alone does not, and ge never decays, so the gate does not care which
// input arrives first.
const andGateFrac = 0.6

// newAndGate returns a neuron that spikes once x and y have both fired at
// least once, in either order. Used by SignedMultiplierNormNetwork to
// detect whether two operand polarities agree.
func newAndGate(parent *model.Module, name string, x, y *model.Neuron, enc core.Encoder, p core.NeuronParams) *model.Neuron {
	g := parent.NewNeuron(name, p)
	ts := tsyn(enc)
	parent.Connect(x, g, model.ChannelGe, p.Vt*andGateFrac, ts)
	parent.Connect(y, g, model.ChannelGe, p.Vt*andGateFrac, ts)
	return g
}

// newOrRelay builds a neuron that fires the instant any of ins fires,
// losing which one but preserving its spike timing. Safe whenever ins are
// mutually exclusive within a run (at most one of them ever fires), the
// same guarantee a NeuronHeader's plus/minus pair gives.
func newOrRelay(parent *model.Module, name string, enc core.Encoder, p core.NeuronParams, ins ...*model.Neuron) *model.Neuron {
	r := parent.NewNeuron(name, p)
	ts := tsyn(enc)
	for _, in := range ins {
		parent.Connect(in, r, model.ChannelV, p.Vt, ts)
	}
	return r
}

// mergePolarity builds a neuron that relays whichever of plus/minus fires,
// losing sign but preserving the two-spike timing that codes a magnitude.
// Used where a circuit needs |x| regardless of x's sign, since a
// NeuronHeader's plus and minus neurons never fire in the same run.
func mergePolarity(parent *model.Module, name string, h model.NeuronHeader, enc core.Encoder, p core.NeuronParams) *model.Neuron {
	return newOrRelay(parent, name, enc, p, h.Plus, h.Minus)
}
