// Package bitio implements the LIFO bit reservoir used by the FSE and
// Huffman coders (spec.md §4.1). Bits are written LSB-first into a
// machine-word cache and flushed little-endian; the reader walks the
// stream backwards from a trailing "1" marker bit, the classic
// FillLittleEndian/FillBigEndian marker-bit trick.
package bitio

import (
	"encoding/binary"
	"math/bits"

	"github.com/zstd1/zstdcore/zstderrors"
)

// wordBits is the cache width. The reference implementation uses
// sizeof(size_t)*8 (32 or 64); this module always targets 64-bit hosts.
const wordBits = 64

// maxBitsPerCall caps a single addBits/readBits call to 25 bits, matching
// the reference's 32-bit-portability cap (spec.md §4.1).
const maxBitsPerCall = 25

// Writer packs bits LSB-first into dst and flushes whole bytes as they
// accumulate in the cache.
type Writer struct {
	dst      []byte
	pos      int // number of bytes committed to dst
	cache    uint64
	bitsUsed int // number of valid bits currently sitting in cache
}

// NewWriter prepares w to write into dst, which must have capacity for at
// least one machine word; see Init.
func NewWriter(dst []byte) (*Writer, error) {
	w := new(Writer)
	if err := w.Init(dst); err != nil {
		return nil, err
	}
	return w, nil
}

// Init resets w to write into dst from the beginning.
func (w *Writer) Init(dst []byte) error {
	if cap(dst) < wordBits/8 {
		return zstderrors.ErrDstSizeTooSmall
	}
	w.dst = dst[:0]
	w.pos = 0
	w.cache = 0
	w.bitsUsed = 0
	return nil
}

// AddBits appends the low n bits of value to the stream. n must be in
// [0, 25]. Behavior is defined only when value's bits above n are zero.
func (w *Writer) AddBits(value uint32, n uint) {
	if n == 0 {
		return
	}
	w.cache |= uint64(value&((1<<n)-1)) << w.bitsUsed
	w.bitsUsed += int(n)
}

// AddBitsFast is AddBits without masking value to n bits; callers must
// guarantee value already fits in n bits. Used on hot paths.
func (w *Writer) AddBitsFast(value uint32, n uint) {
	w.cache |= uint64(value) << w.bitsUsed
	w.bitsUsed += int(n)
}

// FlushBits writes the complete bytes currently cached to dst and retains
// any residual high bits in the cache.
func (w *Writer) FlushBits() {
	nbBytes := w.bitsUsed >> 3
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], w.cache)
	w.dst = append(w.dst, buf[:nbBytes]...)
	w.pos += nbBytes
	w.cache >>= uint(nbBytes * 8)
	w.bitsUsed -= nbBytes * 8
}

// Close flushes remaining bits, appends the terminating marker bit, does a
// final flush, and returns the total number of bytes written.
func (w *Writer) Close() (int, error) {
	w.AddBits(1, 1)
	w.FlushBits()
	if w.bitsUsed > 0 {
		// Residual bits below a byte boundary still need to reach dst.
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], w.cache)
		nbBytes := (w.bitsUsed + 7) / 8
		w.dst = append(w.dst, buf[:nbBytes]...)
		w.pos += nbBytes
		w.bitsUsed = 0
		w.cache = 0
	}
	return w.pos, nil
}

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte { return w.dst }

// BitsInCache reports how many bits are currently cached but not flushed;
// exposed for the FSE encoder's "flush every 1-2 symbols" heuristic
// (spec.md §4.2.5).
func (w *Writer) BitsInCache() int { return w.bitsUsed }

// CanDeferFlush matches the reference's "sizeof(word) >= tableLog*4+7"
// decision: whether a flush can be deferred for two symbols instead of
// one (spec.md §4.2.5).
func CanDeferFlush(tableLog uint) bool {
	return wordBits >= int(tableLog)*4+7
}

// highestSetBit returns the 0-based index of the highest set bit in v, or
// -1 if v == 0. Exposed for the reader's marker-bit search.
func highestSetBit(v uint64) int {
	if v == 0 {
		return -1
	}
	return bits.Len64(v) - 1
}
