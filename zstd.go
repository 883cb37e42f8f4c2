// Package zstdcore implements the core Zstandard (zstd) v1.4.4 frame
// format: entropy coding (FSE, Huffman), the sequence execution engine,
// the frame/block decode state machine, and a multi-worker streaming
// scheduler. It deliberately does not include a match-finder: the encoder
// emits literals-only blocks, which are valid zstd1 frames that fully
// exercise the entropy layer without requiring LZ77 search heuristics.
package zstdcore

import (
	"github.com/zstd1/zstdcore/internal/ddict"
	"github.com/zstd1/zstdcore/internal/frame"
	"github.com/zstd1/zstdcore/internal/mtcompress"
)

// Compress writes a complete zstd frame for src to dst, returning the
// extended slice.
func Compress(dst []byte, src []byte) []byte {
	return frame.CompressFrame(dst, src, frame.DefaultEncodeParams())
}

// CompressWithChecksum is Compress with the content-checksum trailer
// enabled (spec.md §6.3 "checksumFlag").
func CompressWithChecksum(dst []byte, src []byte) []byte {
	p := frame.DefaultEncodeParams()
	p.ChecksumFlag = true
	return frame.CompressFrame(dst, src, p)
}

// Decompress decodes one or more concatenated zstd frames from src,
// appending the result to dst.
func Decompress(dst []byte, src []byte) ([]byte, error) {
	return frame.NewDCtx().Decompress(dst, src)
}

// DCtx re-exports the frame package's decompression context so callers can
// set non-default parameters (windowLogMax, magicless framing) without
// reaching into internal/ themselves.
type DCtx = frame.DCtx

// NewDCtx returns a DCtx configured with the standard zstd defaults.
func NewDCtx() *DCtx { return frame.NewDCtx() }

// DParams are the sticky decoder parameters a DCtx carries.
type DParams = frame.DParams

// DefaultDParams returns the standard decoder defaults (spec.md §6.3).
func DefaultDParams() DParams { return frame.DefaultDParams() }

// Dictionary is a loaded decoder-side dictionary, raw or structured
// (spec.md §4.8).
type Dictionary = ddict.DDict

// DictScope selects how many frames an attached dictionary covers
// (spec.md §4.8 "Scoping").
type DictScope = frame.DictScope

const (
	DontUseDict         = frame.DontUse
	UseDictOnce         = frame.UseOnce
	UseDictIndefinitely = frame.UseIndefinitely
)

// LoadDictionary parses buf as a decoder-side dictionary, detecting raw
// vs structured content automatically. byRef keeps the dictionary's
// content aliasing buf instead of copying it.
func LoadDictionary(buf []byte, byRef bool) (*Dictionary, error) {
	return ddict.Load(buf, byRef)
}

// CompressWithDict is Compress, additionally recording dictID in the
// frame header so a decoder can verify it has the matching dictionary
// attached (spec.md §4.8, example 5 "Structured dictionary").
func CompressWithDict(dst []byte, src []byte, dictID uint32) []byte {
	p := frame.DefaultEncodeParams()
	p.DictID = dictID
	return frame.CompressFrame(dst, src, p)
}

// MTParams configure the multi-worker ZSTDMT compressor (spec.md §4.9).
type MTParams = mtcompress.Params

// DefaultMTParams returns the multi-worker defaults for nbWorkers workers:
// 4 MiB jobs, overlapLog 6 and the content-size flag on. Only the worker
// count depends on nbWorkers.
func DefaultMTParams(nbWorkers int) MTParams { return mtcompress.DefaultParams(nbWorkers) }

// CompressMT is Compress spread across p.NbWorkers goroutines through the
// ZSTDMT job-table/round-buffer scheduler (spec.md §4.9 "Multi-threaded
// Compression"). The frame it produces decodes with the same Decompress
// used for single-threaded frames.
func CompressMT(dst []byte, src []byte, p MTParams) []byte {
	return mtcompress.Compress(dst, src, p)
}

// StreamDCtx drives the bounded-memory streaming decode state machine
// (spec.md §4.6 "Frame State Machine (Decoder)", §4.7 "Streaming
// Buffering"), for callers decoding inputs too large to hold whole in
// memory or arriving incrementally.
type StreamDCtx = frame.StreamDCtx

// NewStreamDCtx returns a StreamDCtx ready to decode a fresh stream using
// d's parameters (windowLogMax, attached dictionary, magicless framing).
func NewStreamDCtx(d *DCtx) *StreamDCtx { return frame.NewStreamDCtx(d) }

// InBuffer is a view over a caller-owned input slice with a read cursor,
// passed to StreamDCtx.DecompressStream.
type InBuffer = frame.InBuffer

// OutBuffer is a view over a caller-owned output slice with a write
// cursor, passed to StreamDCtx.DecompressStream.
type OutBuffer = frame.OutBuffer
