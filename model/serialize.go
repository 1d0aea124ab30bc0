package model

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/stick-sim/stick/core"
)

// magicModule identifies a serialized STICK network module ("STMD").
const magicModule uint32 = 0x53544D44

const formatVersion uint16 = 1

// flatNeuron is the fixed-size on-disk encoding of a Neuron: uid and name
// are length-prefixed strings written before the record, params are three
// float64s.
type flatNeuron struct {
	Vt, Tm, Tf float64
}

// flatSynapse is the fixed-size on-disk encoding of a Synapse; Source and
// Target are stored as uid-table indices, resolved on load.
type flatSynapse struct {
	SourceIdx uint32
	TargetIdx uint32
	Channel   uint8
	_         [3]byte // padding so Weight starts on a 4-byte boundary (offset 12)
	Weight    float64
	Delay     float64
}

// Serialize flattens m's whole neuron/synapse tree (module structure is
// not preserved — only the flat uid-addressed graph the simulator needs)
// into a binary blob with a core.Header and CRC32 checksum over the body.
func Serialize(m *Module) ([]byte, error) {
	neurons := m.AllNeurons()
	synapses := m.AllSynapses()

	index := make(map[string]uint32, len(neurons))
	for i, n := range neurons {
		index[n.UID] = uint32(i)
	}

	var body bytes.Buffer
	if err := binary.Write(&body, binary.LittleEndian, uint32(len(neurons))); err != nil {
		return nil, err
	}
	for _, n := range neurons {
		if err := writeString(&body, n.UID); err != nil {
			return nil, err
		}
		if err := writeString(&body, n.Name); err != nil {
			return nil, err
		}
		fn := flatNeuron{Vt: n.Params.Vt, Tm: n.Params.Tm, Tf: n.Params.Tf}
		if err := binary.Write(&body, binary.LittleEndian, fn); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&body, binary.LittleEndian, uint32(len(synapses))); err != nil {
		return nil, err
	}
	for _, s := range synapses {
		srcIdx, ok := index[s.Source]
		if !ok {
			return nil, fmt.Errorf("stick: serialize: synapse source %s not in neuron table", s.Source)
		}
		dstIdx, ok := index[s.Target]
		if !ok {
			return nil, fmt.Errorf("stick: serialize: synapse target %s not in neuron table", s.Target)
		}
		fs := flatSynapse{
			SourceIdx: srcIdx,
			TargetIdx: dstIdx,
			Channel:   uint8(s.Channel),
			Weight:    s.Weight,
			Delay:     s.Delay,
		}
		if err := binary.Write(&body, binary.LittleEndian, fs); err != nil {
			return nil, err
		}
	}

	h := core.Header{
		Magic:    magicModule,
		Version:  formatVersion,
		Count:    uint32(len(neurons)),
		Checksum: core.CRC32(body.Bytes()),
	}

	var out bytes.Buffer
	if err := core.WriteHeader(&out, h); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// Deserialize reconstructs a flat network (as a single root module named
// "network") from data produced by Serialize.
func Deserialize(data []byte) (*Module, error) {
	h, err := core.ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Magic != magicModule {
		return nil, fmt.Errorf("stick: invalid module magic %#x", h.Magic)
	}
	if h.Version != formatVersion {
		return nil, fmt.Errorf("stick: unsupported module version %d", h.Version)
	}

	body := data[core.HeaderSize:]
	if got := core.CRC32(body); got != h.Checksum {
		return nil, fmt.Errorf("stick: module checksum mismatch: got %#x want %#x", got, h.Checksum)
	}

	r := bytes.NewReader(body)

	var neuronCount uint32
	if err := binary.Read(r, binary.LittleEndian, &neuronCount); err != nil {
		return nil, err
	}

	root := NewRootModule("network")
	uids := make([]string, neuronCount)
	for i := uint32(0); i < neuronCount; i++ {
		uid, err := readString(r)
		if err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		var fn flatNeuron
		if err := binary.Read(r, binary.LittleEndian, &fn); err != nil {
			return nil, err
		}
		root.byName[name] = &Neuron{
			UID:    uid,
			Name:   name,
			Params: core.NeuronParams{Vt: fn.Vt, Tm: fn.Tm, Tf: fn.Tf},
		}
		root.neurons = append(root.neurons, root.byName[name])
		uids[i] = uid
	}

	var synapseCount uint32
	if err := binary.Read(r, binary.LittleEndian, &synapseCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < synapseCount; i++ {
		var fs flatSynapse
		if err := binary.Read(r, binary.LittleEndian, &fs); err != nil {
			return nil, err
		}
		if int(fs.SourceIdx) >= len(uids) || int(fs.TargetIdx) >= len(uids) {
			return nil, fmt.Errorf("stick: synapse index out of range")
		}
		root.synapses = append(root.synapses, Synapse{
			Source:  uids[fs.SourceIdx],
			Target:  uids[fs.TargetIdx],
			Channel: Channel(fs.Channel),
			Weight:  fs.Weight,
			Delay:   fs.Delay,
		})
	}

	return root, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
