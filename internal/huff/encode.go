package huff

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/internal/bitio"
	"github.com/zstd1/zstdcore/zstderrors"
)

// Compress1X encodes all of src as a single bitstream using ct, writing
// symbols in reverse order so the LIFO reader recovers them forward
// (spec.md §4.3.3).
func Compress1X(dst []byte, src []byte, ct *CTable) ([]byte, error) {
	if len(src) == 0 {
		return dst, nil
	}
	w, err := bitio.NewWriter(make([]byte, 0, len(src)))
	if err != nil {
		return nil, err
	}
	for i := len(src) - 1; i >= 0; i-- {
		sym := src[i]
		w.AddBits(ct.Codes[sym], uint(ct.NbBits[sym]))
		if i%2 == 0 {
			w.FlushBits()
		}
	}
	n, err := w.Close()
	if err != nil {
		return nil, err
	}
	return append(dst, w.Bytes()[:n]...), nil
}

// jumpTableSize is the fixed 3x 16-bit LE header prefixing a 4-stream
// payload: the sizes of streams 1..3 (stream 4 runs to the end of the
// block), per spec.md §4.3.3.
const jumpTableSize = 6

// Compress4X splits src into four roughly equal segments and encodes each
// independently, prefixed by the jump-offset header that lets a decoder
// parallelize across the four streams (spec.md §4.3.3).
func Compress4X(dst []byte, src []byte, ct *CTable) ([]byte, error) {
	if len(src) < 4 {
		return nil, zstderrors.ErrSrcSizeWrong
	}
	segSize := (len(src) + 3) / 4
	var segs [4][]byte
	for i := 0; i < 4; i++ {
		lo := i * segSize
		hi := lo + segSize
		if hi > len(src) {
			hi = len(src)
		}
		if lo > hi {
			lo = hi
		}
		segs[i] = src[lo:hi]
	}

	out := make([]byte, jumpTableSize)
	var encoded [4][]byte
	for i, seg := range segs {
		e, err := Compress1X(nil, seg, ct)
		if err != nil {
			return nil, err
		}
		encoded[i] = e
	}
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(len(encoded[i])))
	}
	for _, e := range encoded {
		out = append(out, e...)
	}
	return append(dst, out...), nil
}

// Decompress1X decodes dstLen bytes from a single Huffman-coded stream,
// selecting the X1 or X2 table layout per SelectDecoder.
func Decompress1X(dst []byte, src []byte, weights []uint8, dstLen int) ([]byte, error) {
	out := make([]byte, dstLen)
	if SelectDecoder(dstLen, len(src)) {
		dt, err := BuildDTableX2(weights)
		if err != nil {
			return nil, err
		}
		if err := DecodeX2(out, src, dt, dstLen); err != nil {
			return nil, err
		}
		return append(dst, out...), nil
	}
	dt, err := BuildDTableX1(weights)
	if err != nil {
		return nil, err
	}
	if err := DecodeX1(out, src, dt, dstLen); err != nil {
		return nil, err
	}
	return append(dst, out...), nil
}

// Decompress4X decodes a 4-stream payload produced by Compress4X. dstLen is
// the total decompressed length across all four segments. Segment sizes are
// not stored on the wire (the jump table holds only compressed byte
// lengths), so each segment's decoded size is reconstructed from dstLen
// with the same rounding Compress4X used: (dstLen+3)/4 for the first three,
// the rest for the fourth.
func Decompress4X(dst []byte, src []byte, weights []uint8, dstLen int) ([]byte, error) {
	if len(src) < jumpTableSize {
		return nil, zstderrors.ErrSrcSizeWrong
	}
	var csize [4]int
	csize[0] = int(binary.LittleEndian.Uint16(src[0:2]))
	csize[1] = int(binary.LittleEndian.Uint16(src[2:4]))
	csize[2] = int(binary.LittleEndian.Uint16(src[4:6]))
	body := src[jumpTableSize:]
	off := 0
	var streams [4][]byte
	for i := 0; i < 3; i++ {
		if off+csize[i] > len(body) {
			return nil, zstderrors.ErrSrcSizeWrong
		}
		streams[i] = body[off : off+csize[i]]
		off += csize[i]
	}
	streams[3] = body[off:]

	segSize := (dstLen + 3) / 4
	dst2 := make([]byte, 0, dstLen)
	remaining := dstLen
	for i := 0; i < 4; i++ {
		n := segSize
		if n > remaining {
			n = remaining
		}
		if i == 3 {
			n = remaining
		}
		var err error
		dst2, err = decompress1XInto(dst2, streams[i], weights, n)
		if err != nil {
			return nil, err
		}
		remaining -= n
	}
	return append(dst, dst2...), nil
}

func decompress1XInto(dst []byte, src []byte, weights []uint8, n int) ([]byte, error) {
	if n == 0 {
		return dst, nil
	}
	decoded, err := Decompress1X(nil, src, weights, n)
	if err != nil {
		return nil, err
	}
	return append(dst, decoded...), nil
}
