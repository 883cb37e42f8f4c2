package bitio

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/zstderrors"
)

// ReloadStatus is the result of Reader.Reload, mirroring spec.md §4.1's
// {unfinished, endOfBuffer, completed, overflow} states.
type ReloadStatus int

const (
	Unfinished ReloadStatus = iota
	EndOfBuffer
	Completed
	Overflow
)

// Reader consumes a bit stream in reverse: it starts at the end of src,
// locates the terminating marker bit, and walks backward. This is the
// mirror image of Writer and is what lets FSE/Huffman decode states be
// time-reversed relative to encoding (spec.md §4.1 "Why reverse").
//
// The refill arithmetic is ported from the classic BIT_DStream design
// (zstd's bitstream.h, not included in the retrieved original_source but
// reproduced here bit-for-bit from the format's public description), using
// bits.Len64 (via highestSetBit) to find the terminating marker bit the way
// a little-endian bit reader conventionally does.
type Reader struct {
	src          []byte
	start        int // offset of src[0] (always 0, kept for symmetry with the C design)
	limitPtr     int // once ptr >= limitPtr, an unconditional full-word reload is safe
	ptr          int // byte offset of the first byte of the loaded word
	container    uint64
	bitsConsumed uint
}

// NewReader allocates and initializes a Reader over src.
func NewReader(src []byte) (*Reader, error) {
	r := new(Reader)
	if err := r.Init(src); err != nil {
		return nil, err
	}
	return r, nil
}

// Init resets r to read from src, which must carry a trailing marker bit.
func (r *Reader) Init(src []byte) error {
	if len(src) == 0 {
		return zstderrors.ErrSrcSizeWrong
	}
	r.src = src
	r.start = 0
	r.limitPtr = r.start + wordBits/8

	lastByte := src[len(src)-1]
	if lastByte == 0 {
		return zstderrors.ErrGeneric
	}
	markerBit := highestSetBit(uint64(lastByte)) // 0..7

	// 8-markerBit consumes the pad above the marker AND the marker itself;
	// the first data bit sits just below it.
	if len(src) >= 8 {
		r.ptr = len(src) - 8
		r.container = binary.LittleEndian.Uint64(src[r.ptr:])
		r.bitsConsumed = uint(8 - markerBit)
	} else {
		r.ptr = 0
		var buf [8]byte
		copy(buf[:], src)
		r.container = binary.LittleEndian.Uint64(buf[:])
		r.bitsConsumed = uint(8-markerBit) + uint(8-len(src))*8
	}
	return nil
}

// lookBits returns the next n unconsumed bits (0 <= n <= 25) without
// advancing the cursor.
func (r *Reader) lookBits(n uint) uint32 {
	if n == 0 {
		return 0
	}
	return uint32((r.container << r.bitsConsumed) >> (64 - n))
}

// Peek returns the next n unconsumed bits without advancing the cursor, for
// decoders (like Huffman's X1/X2 tables) that must inspect a fixed-width
// prefix before knowing how many bits the matched entry actually consumes.
func (r *Reader) Peek(n uint) uint32 {
	return r.lookBits(n)
}

// Advance consumes n bits already inspected via Peek.
func (r *Reader) Advance(n uint) {
	r.bitsConsumed += n
}

// ReadBits returns the next n bits (MSB-first relative to original write
// order) and advances past them. n must be in [0, 25].
func (r *Reader) ReadBits(n uint) uint32 {
	v := r.lookBits(n)
	r.bitsConsumed += n
	return v
}

// ReadBitsFast is ReadBits without the n==0 fast-out; used on hot paths
// where the caller already knows n > 0.
func (r *Reader) ReadBitsFast(n uint) uint32 {
	v := uint32((r.container << r.bitsConsumed) >> (64 - n))
	r.bitsConsumed += n
	return v
}

// Reload advances the read cursor to the next lower word-aligned chunk of
// src once bitsConsumed has reached a byte boundary's worth of data. See
// spec.md §4.1 for the state semantics.
func (r *Reader) Reload() ReloadStatus {
	if r.bitsConsumed > wordBits {
		return Overflow
	}

	if r.ptr >= r.limitPtr {
		// A full word is still available further back in the buffer.
		r.ptr -= int(r.bitsConsumed >> 3)
		r.bitsConsumed &= 7
		r.container = r.readWordAt(r.ptr)
		return Unfinished
	}

	if r.ptr == r.start {
		if r.bitsConsumed < wordBits {
			return EndOfBuffer
		}
		return Completed
	}

	// start < ptr < limitPtr: only a partial word remains.
	nbBytes := r.bitsConsumed >> 3
	result := Unfinished
	if r.ptr-int(nbBytes) < r.start {
		nbBytes = uint(r.ptr - r.start)
		result = EndOfBuffer
	}
	r.ptr -= int(nbBytes)
	r.bitsConsumed -= nbBytes * 8
	r.container = r.readWordAt(r.ptr)
	return result
}

// readWordAt reads up to 8 bytes of src starting at off, little-endian,
// zero-padding past the end (off is always >= start here).
func (r *Reader) readWordAt(off int) uint64 {
	if off+8 <= len(r.src) {
		return binary.LittleEndian.Uint64(r.src[off:])
	}
	var buf [8]byte
	copy(buf[:], r.src[off:])
	return binary.LittleEndian.Uint64(buf[:])
}

// Finished reports whether the reader has consumed exactly up to the
// marker bit: head reached and cache fully consumed (spec.md's
// "completed" condition used by FSE/Huffman end-of-stream checks).
func (r *Reader) Finished() bool {
	return r.ptr == r.start && r.bitsConsumed >= wordBits
}

// BitsConsumed reports the number of bits consumed out of the currently
// loaded word; used by long-offset sequence decoding (spec.md §4.4) to
// decide whether an intermediate reload is needed mid-field.
func (r *Reader) BitsConsumed() uint { return r.bitsConsumed }
