// Package export persists a completed Simulator run as a flat record list,
// per spec.md §6: (uid, time) for spikes, (uid, time, V) for voltages,
// ascending by (time, uid). The default backend is a self-contained binary
// file grounded on model/serialize.go's checksummed-header layout; an
// optional SQLite-backed exporter (sqlite.go, gated behind the "sqlite"
// build tag) is available for callers who want queryable output instead of
// a flat file, matching the pack's only SQL storage dependency.
package export

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/stick-sim/stick/core"
	"github.com/stick-sim/stick/runtime"
)

// Exporter is the common surface of every spike/voltage persistence backend.
// The flat binary format above needs nothing beyond WriteSpikeRecords/
// WriteVoltageRecords, but SQLiteExporter (sqlite.go, gated behind the
// "sqlite" build tag) needs a run identifier and a database connection to
// set up first. Exporter is the interface SQLiteExporter implements; the
// flat binary format is written by the free functions above and does not
// implement it.
type Exporter interface {
	Init(ctx context.Context) error
	WriteRun(ctx context.Context, runID string, sim *runtime.Simulator) error
	Close() error
}

// SpikeRecord is one (uid, time) observation.
type SpikeRecord struct {
	UID  string
	Time float64
}

// VoltageRecord is one (uid, time, V) observation.
type VoltageRecord struct {
	UID  string
	Time float64
	V    float64
}

// CollectSpikeRecords flattens sim.SpikeLog into ascending-(time, uid)
// order.
func CollectSpikeRecords(sim *runtime.Simulator) []SpikeRecord {
	var out []SpikeRecord
	for uid, times := range sim.SpikeLog {
		for _, t := range times {
			out = append(out, SpikeRecord{UID: uid, Time: t})
		}
	}
	sortSpikeRecords(out)
	return out
}

// CollectVoltageRecords flattens sim.VoltageLog into ascending-(time, uid)
// order. It is empty unless the Simulator was built with
// SimulatorOptions.RecordVoltage set.
func CollectVoltageRecords(sim *runtime.Simulator) []VoltageRecord {
	var out []VoltageRecord
	for uid, samples := range sim.VoltageLog {
		for _, s := range samples {
			out = append(out, VoltageRecord{UID: uid, Time: s.T, V: s.V})
		}
	}
	sortVoltageRecords(out)
	return out
}

func sortSpikeRecords(r []SpikeRecord) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].Time != r[j].Time {
			return r[i].Time < r[j].Time
		}
		return r[i].UID < r[j].UID
	})
}

func sortVoltageRecords(r []VoltageRecord) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].Time != r[j].Time {
			return r[i].Time < r[j].Time
		}
		return r[i].UID < r[j].UID
	})
}

const (
	magicSpikeFile      uint32 = 0x53545350 // "STSP"
	magicVoltageFile    uint32 = 0x53545654 // "STVT"
	recordFormatVersion uint16 = 1
)

// WriteSpikeRecords serializes records to w in the flat binary layout: a
// core.Header (magic, version, count, CRC32 of the body) followed by
// length-prefixed uid strings and float64 times.
func WriteSpikeRecords(w io.Writer, records []SpikeRecord) error {
	var body bytes.Buffer
	for _, r := range records {
		if err := writeRecordString(&body, r.UID); err != nil {
			return err
		}
		if err := binary.Write(&body, binary.LittleEndian, r.Time); err != nil {
			return err
		}
	}
	return writeFramedFile(w, magicSpikeFile, uint32(len(records)), body.Bytes())
}

// ReadSpikeRecords is the inverse of WriteSpikeRecords.
func ReadSpikeRecords(r io.Reader) ([]SpikeRecord, error) {
	body, count, err := readFramedFile(r, magicSpikeFile)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(body)
	out := make([]SpikeRecord, count)
	for i := range out {
		uid, err := readRecordString(br)
		if err != nil {
			return nil, fmt.Errorf("stick: export: read spike record %d: %w", i, err)
		}
		var t float64
		if err := binary.Read(br, binary.LittleEndian, &t); err != nil {
			return nil, fmt.Errorf("stick: export: read spike record %d: %w", i, err)
		}
		out[i] = SpikeRecord{UID: uid, Time: t}
	}
	return out, nil
}

// WriteVoltageRecords serializes records to w in the same framed layout as
// WriteSpikeRecords, with an extra float64 V per record.
func WriteVoltageRecords(w io.Writer, records []VoltageRecord) error {
	var body bytes.Buffer
	for _, r := range records {
		if err := writeRecordString(&body, r.UID); err != nil {
			return err
		}
		if err := binary.Write(&body, binary.LittleEndian, [2]float64{r.Time, r.V}); err != nil {
			return err
		}
	}
	return writeFramedFile(w, magicVoltageFile, uint32(len(records)), body.Bytes())
}

// ReadVoltageRecords is the inverse of WriteVoltageRecords.
func ReadVoltageRecords(r io.Reader) ([]VoltageRecord, error) {
	body, count, err := readFramedFile(r, magicVoltageFile)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(body)
	out := make([]VoltageRecord, count)
	for i := range out {
		uid, err := readRecordString(br)
		if err != nil {
			return nil, fmt.Errorf("stick: export: read voltage record %d: %w", i, err)
		}
		var tv [2]float64
		if err := binary.Read(br, binary.LittleEndian, &tv); err != nil {
			return nil, fmt.Errorf("stick: export: read voltage record %d: %w", i, err)
		}
		out[i] = VoltageRecord{UID: uid, Time: tv[0], V: tv[1]}
	}
	return out, nil
}

func writeFramedFile(w io.Writer, magic uint32, count uint32, body []byte) error {
	h := core.Header{
		Magic:    magic,
		Version:  recordFormatVersion,
		Count:    count,
		Checksum: core.CRC32(body),
	}
	var out bytes.Buffer
	if err := core.WriteHeader(&out, h); err != nil {
		return err
	}
	out.Write(body)
	_, err := w.Write(out.Bytes())
	return err
}

func readFramedFile(r io.Reader, wantMagic uint32) ([]byte, uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	h, err := core.ReadHeader(data)
	if err != nil {
		return nil, 0, err
	}
	if h.Magic != wantMagic {
		return nil, 0, fmt.Errorf("stick: export: bad magic %#x, want %#x", h.Magic, wantMagic)
	}
	if h.Version != recordFormatVersion {
		return nil, 0, fmt.Errorf("stick: export: unsupported record format version %d", h.Version)
	}
	body := data[core.HeaderSize:]
	if got := core.CRC32(body); got != h.Checksum {
		return nil, 0, fmt.Errorf("stick: export: checksum mismatch: got %#x want %#x", got, h.Checksum)
	}
	return body, h.Count, nil
}

func writeRecordString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readRecordString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
