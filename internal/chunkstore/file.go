package chunkstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/weaponry/snapwatch/internal/interner"
	"github.com/weaponry/snapwatch/internal/model"
)

// chunkMagic identifies a snapwatch chunk file; chunkFileVersion allows
// a future layout change to be rejected cleanly instead of
// misinterpreted (spec §4.2: "chunk header contains a version tag").
var chunkMagic = [4]byte{'S', 'W', 'C', '1'}

const chunkFileVersion = 1

// hourLayout matches spec §6.1's "YYYY-MM-DD_HH" chunk filename.
const hourLayout = "2006-01-02_15"

// chunkFileName returns the filename (without directory) for the chunk
// covering the UTC hour of t.
func chunkFileName(t time.Time) string {
	return t.UTC().Format(hourLayout) + ".zst"
}

// metricsFileName returns the sidecar filename for the chunk covering
// the UTC hour of t.
func metricsFileName(t time.Time) string {
	return t.UTC().Format(hourLayout) + ".metrics"
}

// frameEntry is one row of a chunk's frame table: the timestamp lets
// History providers binary-search for seek_to(ts) (spec §4.6.1)
// without decompressing any frame; offset/length locate the
// compressed bytes.
type frameEntry struct {
	timestamp int64
	offset    int64
	length    int64
}

var zstdEncoderPool = newZstdEncoderPool()

type zstdEncPool struct {
	enc *zstd.Encoder
}

func newZstdEncoderPool() *zstdEncPool {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		// zstd.NewWriter(nil) only fails on invalid options; ours are
		// constant, so this can't happen in practice.
		panic(fmt.Sprintf("chunkstore: init zstd encoder: %v", err))
	}
	return &zstdEncPool{enc: enc}
}

func (p *zstdEncPool) compress(dst, src []byte) []byte {
	return p.enc.EncodeAll(src, dst)
}

var zstdDecoder = newZstdDecoder()

func newZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("chunkstore: init zstd decoder: %v", err))
	}
	return dec
}

// writeChunkFile serializes header+frames to path atomically: it writes
// to path+".tmp" and renames over path, so readers never observe a
// partial chunk (spec §4.3 flush guarantee).
func writeChunkFile(path string, in *interner.Interner, snapshots []*model.Snapshot) error {
	var buf bytes.Buffer

	buf.Write(chunkMagic[:])
	buf.WriteByte(chunkFileVersion)

	hw := newWriter()
	strs := in.All()
	hw.uvarint(uint64(len(strs)))
	for h, s := range strs {
		hw.hash(h)
		hw.str(s)
	}
	buf.Write(hw.Bytes())

	frames := make([][]byte, len(snapshots))
	for i, snap := range snapshots {
		raw := EncodeSnapshot(snap)
		frames[i] = zstdEncoderPool.compress(nil, raw)
	}

	tw := newWriter()
	tw.uvarint(uint64(len(frames)))
	for i, f := range frames {
		tw.varint(snapshots[i].Timestamp)
		tw.uvarint(uint64(len(f)))
	}
	buf.Write(tw.Bytes())

	for _, f := range frames {
		buf.Write(f)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("chunkstore: write temp chunk: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("chunkstore: rename temp chunk: %w", err)
	}
	return nil
}

// readChunkHeader loads just the interner and frame table from path,
// without decompressing any frame body. This is what the History
// provider's index step and the reader cache both call.
func readChunkHeader(path string) (*interner.Interner, []frameEntry, []byte, func() error, error) {
	data, closer, err := mmapFile(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(data) < 5 || !bytes.Equal(data[:4], chunkMagic[:]) {
		_ = closer()
		return nil, nil, nil, nil, fmt.Errorf("chunkstore: %s: bad magic", path)
	}
	ver := data[4]
	if ver > chunkFileVersion {
		_ = closer()
		return nil, nil, nil, nil, fmt.Errorf("chunkstore: %s: unsupported version %d", path, ver)
	}

	r := newReader(data[5:])

	n, err := r.uvarint()
	if err != nil {
		_ = closer()
		return nil, nil, nil, nil, fmt.Errorf("chunkstore: %s: read interner count: %w", path, err)
	}
	strs := make(map[uint64]string, n)
	for i := uint64(0); i < n; i++ {
		h, err := r.hash()
		if err != nil {
			_ = closer()
			return nil, nil, nil, nil, err
		}
		s, err := r.str()
		if err != nil {
			_ = closer()
			return nil, nil, nil, nil, err
		}
		strs[h] = s
	}

	fcount, err := r.uvarint()
	if err != nil {
		_ = closer()
		return nil, nil, nil, nil, fmt.Errorf("chunkstore: %s: read frame count: %w", path, err)
	}
	frames := make([]frameEntry, fcount)
	for i := uint64(0); i < fcount; i++ {
		ts, err := r.varint()
		if err != nil {
			_ = closer()
			return nil, nil, nil, nil, err
		}
		length, err := r.uvarint()
		if err != nil {
			_ = closer()
			return nil, nil, nil, nil, err
		}
		frames[i] = frameEntry{timestamp: ts, length: int64(length)}
	}

	// Frame bodies start right after the table; r has consumed exactly
	// header+table bytes from data[5:], so the remaining reader offset
	// tells us where the body region begins.
	consumed := len(data[5:]) - r.r.Len()
	bodyStart := int64(5 + consumed)
	offset := bodyStart
	for i := range frames {
		frames[i].offset = offset
		offset += frames[i].length
	}

	return interner.FromMap(strs), frames, data, closer, nil
}

// decodeFrame decompresses and decodes the i-th frame using the raw
// chunk file bytes and its frame table.
func decodeFrame(data []byte, f frameEntry) (*model.Snapshot, error) {
	if f.offset < 0 || f.offset+f.length > int64(len(data)) {
		return nil, fmt.Errorf("chunkstore: frame out of bounds")
	}
	compressed := data[f.offset : f.offset+f.length]
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: decompress frame: %w", err)
	}
	return DecodeSnapshot(raw)
}

// ListChunkFiles returns the .zst files directly under dir, sorted
// chronologically (YYYY-MM-DD_HH naming sorts lexically). Exported for
// the History provider's indexing step (spec §4.6.1).
func ListChunkFiles(dir string) ([]string, error) {
	return listChunkFiles(dir)
}

// listChunkFiles returns the .zst files directly under dir, sorted by
// name (which sorts chronologically given the YYYY-MM-DD_HH naming).
func listChunkFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".zst" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
