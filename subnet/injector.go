package subnet

import (
	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/model"
)

// InjectorNetwork implements the Load operator: it exposes one header
// (out_plus, out_minus) and nothing else. The compiler's InputTrigger
// targets these two neurons directly (spec.md §4.5 step 6); the network
// itself performs no internal relay — it exists so every operator has a
// uniform "spawn a submodule, get back a header" shape.
func NewInjectorNetwork(parent *model.Module, localName string, enc core.Encoder, p core.NeuronParams) (*model.Module, model.NeuronHeader) {
	m := parent.NewSubmodule(localName)
	header := model.NeuronHeader{
		Plus:  m.NewNeuron("out_plus", p),
		Minus: m.NewNeuron("out_minus", p),
	}
	return m, header
}
