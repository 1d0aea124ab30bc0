package subnet

import (
	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// SignFlipperNetwork implements the Neg operator: it exposes in (plus,
// minus) and out (plus, minus), and crosses the wires — in.plus drives
// out.minus and in.minus drives out.plus — so the output header emits
// with the timing of whichever input polarity actually fired, on the
// opposite polarity. No gating is needed: the two relayed spikes preserve
// their own separation, so the coded interval survives the flip unchanged.
func NewSignFlipperNetwork(parent *model.Module, localName string, enc core.Encoder, p core.NeuronParams) (*model.Module, model.NeuronHeader, model.NeuronHeader) {
	m := parent.NewSubmodule(localName)

	in := model.NeuronHeader{
		Plus:  m.NewNeuron("in_plus", p),
		Minus: m.NewNeuron("in_minus", p),
	}
	out := model.NeuronHeader{
		Plus:  m.NewNeuron("out_plus", p),
		Minus: m.NewNeuron("out_minus", p),
	}

	ts := tsyn(enc)
	m.Connect(in.Plus, out.Minus, model.ChannelV, p.Vt, ts)
	m.Connect(in.Minus, out.Plus, model.ChannelV, p.Vt, ts)

	return m, in, out
}
