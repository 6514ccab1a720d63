package chunkstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// writer is a small append-only binary encoder used by the snapshot
// codec (spec §4.2). Counters are written as absolute cumulative
// values; varints keep the small ones compact.
type writer struct {
	buf bytes.Buffer
	tmp [binary.MaxVarintLen64]byte
}

func newWriter() *writer { return &writer{} }

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) uvarint(v uint64) {
	n := binary.PutUvarint(w.tmp[:], v)
	w.buf.Write(w.tmp[:n])
}

func (w *writer) varint(v int64) {
	n := binary.PutVarint(w.tmp[:], v)
	w.buf.Write(w.tmp[:n])
}

func (w *writer) f64(v float64) {
	binary.LittleEndian.PutUint64(w.tmp[:8], math.Float64bits(v))
	w.buf.Write(w.tmp[:8])
}

func (w *writer) hash(v uint64) { w.uvarint(v) }

func (w *writer) str(s string) {
	w.uvarint(uint64(len(s)))
	w.buf.WriteString(s)
}

// reader is the matching decoder. Every read method returns an error
// instead of panicking so a truncated or corrupt frame surfaces as a
// parse error (spec §7 kind 3) rather than crashing the reader.
type reader struct {
	r *bytes.Reader
}

func newReader(b []byte) *reader { return &reader{r: bytes.NewReader(b)} }

var errShortRead = errors.New("chunkstore: short read while decoding frame")

func (r *reader) u8() (uint8, error) { return r.r.ReadByte() }

func (r *reader) uvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		return 0, errShortRead
	}
	return v, nil
}

func (r *reader) varint() (int64, error) {
	v, err := binary.ReadVarint(r.r)
	if err != nil {
		return 0, errShortRead
	}
	return v, nil
}

func (r *reader) f64() (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, errShortRead
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

func (r *reader) hash() (uint64, error) { return r.uvarint() }

func (r *reader) str() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return "", errShortRead
		}
	}
	return string(buf), nil
}
