// Package model defines the network representation shared by the STICK
// compiler and simulator: neurons, typed synapses, and the hierarchical
// modules that own them.
//
// A Module is a tree. Every neuron belongs to exactly one module, and its
// uid is the dotted path from the root to its local name — module.module.name
// — so uniqueness is structural and requires no global counter. Child
// modules and neurons are kept in insertion order so that uids (and hence
// spike-log ordering) are reproducible across runs.
package model

import (
	"fmt"
	"strings"

	"github.com/stick-sim/stick/core"
)

// Channel identifies which conductance a synapse drives on its target
// neuron. The four channels are closed — spec.md §4.1 — so this is a small
// enumeration, not an open string.
type Channel uint8

const (
	ChannelV Channel = iota
	ChannelGe
	ChannelGf
	ChannelGate
)

func (c Channel) String() string {
	switch c {
	case ChannelV:
		return "V"
	case ChannelGe:
		return "ge"
	case ChannelGf:
		return "gf"
	case ChannelGate:
		return "gate"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Neuron is a stable descriptor: identity and constant parameters only.
// Mutable integration state (V, ge, gf, gate, last-spike time) lives in the
// simulator's per-run state vectors, keyed by Ordinal, never here — spec.md
// §5 requires that isolation so the same Module can be simulated by more
// than one Simulator concurrently.
type Neuron struct {
	UID     string
	Name    string
	Ordinal int // dense index into the simulator's state vectors
	Params  core.NeuronParams
}

// Synapse is immutable after creation: a typed, weighted, delayed edge
// between two neurons identified by uid.
type Synapse struct {
	Source  string
	Target  string
	Channel Channel
	Weight  float64
	Delay   float64
}

// NeuronHeader is the (plus, minus) pair that together carry one signed,
// interval-coded value. Wiring always happens in pairs through a header, so
// there is no way to connect only one polarity by mistake.
type NeuronHeader struct {
	Plus  *Neuron
	Minus *Neuron
}

// Module is a hierarchical container of neurons, synapses, and child
// modules. The zero value is not usable; construct with NewModule or
// NewRootModule.
type Module struct {
	name     string
	path     string // dotted uid prefix, "" for the root
	neurons  []*Neuron
	byName   map[string]*Neuron
	synapses []Synapse
	children []*Module
	childIdx map[string]int
}

// NewRootModule creates the top-level module. Its name does not appear in
// any uid; neurons directly inside it are addressed as "name".
func NewRootModule(name string) *Module {
	return &Module{
		name:     name,
		path:     "",
		byName:   make(map[string]*Neuron),
		childIdx: make(map[string]int),
	}
}

// Name returns the module's local name.
func (m *Module) Name() string { return m.name }

// Path returns the module's dotted uid prefix (empty for the root).
func (m *Module) Path() string { return m.path }

func (m *Module) qualify(localName string) string {
	if m.path == "" {
		return localName
	}
	return m.path + "." + localName
}

// NewNeuron creates a neuron with the given local name and parameters,
// owned by m, and returns a handle to it. The neuron's uid is the module's
// dotted path joined with localName. Panics if localName collides with an
// existing child of m — that is a compiler bug, not a runtime condition the
// caller recovers from.
func (m *Module) NewNeuron(localName string, params core.NeuronParams) *Neuron {
	uid := m.qualify(localName)
	if _, exists := m.byName[localName]; exists {
		panic(fmt.Sprintf("stick: duplicate neuron name %q in module %q", localName, m.path))
	}
	n := &Neuron{UID: uid, Name: localName, Params: params}
	m.byName[localName] = n
	m.neurons = append(m.neurons, n)
	return n
}

// NewSubmodule attaches a new child module under the given local name and
// returns it. Child order is insertion order, which is what makes the
// resulting uids reproducible across runs of the same compilation.
func (m *Module) NewSubmodule(localName string) *Module {
	if _, exists := m.childIdx[localName]; exists {
		panic(fmt.Sprintf("stick: duplicate submodule name %q in module %q", localName, m.path))
	}
	child := &Module{
		name:     localName,
		path:     m.qualify(localName),
		byName:   make(map[string]*Neuron),
		childIdx: make(map[string]int),
	}
	m.childIdx[localName] = len(m.children)
	m.children = append(m.children, child)
	return child
}

// Connect adds a synapse from source to target on the given channel. Both
// neurons must already exist somewhere in the tree rooted at the module
// owning this call (or anywhere the caller can reach); Connect does not
// itself validate reachability — that is done once, network-wide, by
// Validate.
func (m *Module) Connect(source, target *Neuron, ch Channel, weight, delay float64) {
	m.synapses = append(m.synapses, Synapse{
		Source:  source.UID,
		Target:  target.UID,
		Channel: ch,
		Weight:  weight,
		Delay:   delay,
	})
}

// ConnectHeader wires a NeuronHeader pair to another pair on the V channel
// with the given weight and delay: src.Plus -> dst.Plus, src.Minus ->
// dst.Minus. This is the shape every cross-module wire in the compiler
// takes (spec.md §4.5 step 5), so it is named rather than left as two
// separate Connect calls at every call site.
func (m *Module) ConnectHeader(src, dst NeuronHeader, weight, delay float64) {
	m.Connect(src.Plus, dst.Plus, ChannelV, weight, delay)
	m.Connect(src.Minus, dst.Minus, ChannelV, weight, delay)
}

// Neurons returns the neurons owned directly by m, in insertion order.
func (m *Module) Neurons() []*Neuron { return m.neurons }

// Synapses returns the synapses owned directly by m, in insertion order.
func (m *Module) Synapses() []Synapse { return m.synapses }

// Children returns m's submodules, in insertion order.
func (m *Module) Children() []*Module { return m.children }

// AllNeurons walks the module tree depth-first (children in insertion
// order) and returns every neuron, assigning each a dense Ordinal as it
// goes. The ordinal assignment is itself deterministic given a fixed tree,
// which is what lets the simulator build reproducible state vectors.
func (m *Module) AllNeurons() []*Neuron {
	var out []*Neuron
	m.walkNeurons(&out)
	for i, n := range out {
		n.Ordinal = i
	}
	return out
}

func (m *Module) walkNeurons(out *[]*Neuron) {
	*out = append(*out, m.neurons...)
	for _, c := range m.children {
		c.walkNeurons(out)
	}
}

// AllSynapses walks the module tree depth-first and returns every synapse.
func (m *Module) AllSynapses() []Synapse {
	var out []Synapse
	m.walkSynapses(&out)
	return out
}

func (m *Module) walkSynapses(out *[]Synapse) {
	*out = append(*out, m.synapses...)
	for _, c := range m.children {
		c.walkSynapses(out)
	}
}

// Validate checks the whole-tree invariants from spec.md §3/§7: every
// neuron uid is unique (core.ErrDuplicateUID otherwise), and every synapse
// references neurons that actually exist in the tree.
func (m *Module) Validate() error {
	neurons := m.AllNeurons()
	seen := make(map[string]bool, len(neurons))
	for _, n := range neurons {
		if seen[n.UID] {
			return fmt.Errorf("%w: %s", core.ErrDuplicateUID, n.UID)
		}
		seen[n.UID] = true
		if err := n.Params.Validate(); err != nil {
			return fmt.Errorf("neuron %s: %w", n.UID, err)
		}
	}
	for _, s := range m.AllSynapses() {
		if !seen[s.Source] {
			return fmt.Errorf("stick: synapse references unknown source uid %s", s.Source)
		}
		if !seen[s.Target] {
			return fmt.Errorf("stick: synapse references unknown target uid %s", s.Target)
		}
	}
	return nil
}

// Find resolves a dotted uid to its neuron, searching the whole tree.
// Returns nil if not found.
func (m *Module) Find(uid string) *Neuron {
	for _, n := range m.AllNeurons() {
		if n.UID == uid {
			return n
		}
	}
	return nil
}

// LocalName returns the last dotted component of a uid.
func LocalName(uid string) string {
	idx := strings.LastIndexByte(uid, '.')
	if idx < 0 {
		return uid
	}
	return uid[idx+1:]
}
