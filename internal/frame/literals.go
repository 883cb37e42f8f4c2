package frame

import (
	"github.com/zstd1/zstdcore/internal/huff"
	"github.com/zstd1/zstdcore/zstderrors"
)

// LiteralsBlockType is the 2-bit selector at the head of a literals
// section (spec.md §3 "Literal Section").
type LiteralsBlockType uint8

const (
	LiteralsRaw LiteralsBlockType = iota
	LiteralsRLE
	LiteralsCompressed
	LiteralsTreeless
)

// MaxLiteralsSize is the hard cap on a literals section's regenerated size
// (spec.md "Literal bound").
const MaxLiteralsSize = 128 * 1024

// LiteralsHeader is the decoded literals-section header.
type LiteralsHeader struct {
	Type            LiteralsBlockType
	RegeneratedSize int
	CompressedSize  int // only meaningful for Compressed/Treeless
	FourStreams     bool
	HeaderSize      int
}

// ParseLiteralsHeader decodes the literals section header, whose size in
// bytes depends on both the block type and the magnitude of the sizes it
// carries (spec.md §3/§4.4 literal section framing; one of three header
// shapes, matching the reference's Literals_Block_Header layouts).
func ParseLiteralsHeader(src []byte) (LiteralsHeader, error) {
	if len(src) == 0 {
		return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
	}
	b0 := src[0]
	blockType := LiteralsBlockType(b0 & 0x3)
	sizeFormat := (b0 >> 2) & 0x3

	h := LiteralsHeader{Type: blockType}

	switch blockType {
	case LiteralsRaw, LiteralsRLE:
		switch sizeFormat {
		case 0, 2:
			h.RegeneratedSize = int(b0 >> 3)
			h.HeaderSize = 1
		case 1:
			if len(src) < 2 {
				return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
			}
			h.RegeneratedSize = int(b0>>4) | int(src[1])<<4
			h.HeaderSize = 2
		case 3:
			if len(src) < 3 {
				return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
			}
			h.RegeneratedSize = int(b0>>4) | int(src[1])<<4 | int(src[2])<<12
			h.HeaderSize = 3
		}
	case LiteralsCompressed, LiteralsTreeless:
		h.FourStreams = sizeFormat >= 1
		switch sizeFormat {
		case 0, 1:
			if len(src) < 3 {
				return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
			}
			combined := uint32(b0>>4) | uint32(src[1])<<4 | uint32(src[2])<<12
			h.RegeneratedSize = int(combined & 0x3FF)
			h.CompressedSize = int(combined >> 10)
			h.HeaderSize = 3
		case 2:
			if len(src) < 4 {
				return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
			}
			combined := uint32(b0>>4) | uint32(src[1])<<4 | uint32(src[2])<<12 | uint32(src[3])<<20
			h.RegeneratedSize = int(combined & 0x3FFF)
			h.CompressedSize = int(combined >> 14)
			h.HeaderSize = 4
		case 3:
			if len(src) < 5 {
				return LiteralsHeader{}, zstderrors.ErrSrcSizeWrong
			}
			combined := uint64(b0>>4) | uint64(src[1])<<4 | uint64(src[2])<<12 | uint64(src[3])<<20 | uint64(src[4])<<28
			h.RegeneratedSize = int(combined & 0x3FFFF)
			h.CompressedSize = int(combined >> 18)
			h.HeaderSize = 5
		}
	}

	if h.RegeneratedSize > MaxLiteralsSize {
		return LiteralsHeader{}, zstderrors.ErrCorruption
	}
	return h, nil
}

// DecodeLiterals parses and decodes a complete literals section, returning
// the regenerated literal bytes, the weight table actually in effect after
// this section (possibly unchanged, for Treeless), and the number of
// source bytes consumed.
func DecodeLiterals(src []byte, prevWeights []uint8) (literals []byte, weights []uint8, consumed int, err error) {
	h, err := ParseLiteralsHeader(src)
	if err != nil {
		return nil, nil, 0, err
	}
	body := src[h.HeaderSize:]

	switch h.Type {
	case LiteralsRaw:
		if len(body) < h.RegeneratedSize {
			return nil, nil, 0, zstderrors.ErrSrcSizeWrong
		}
		return append([]byte(nil), body[:h.RegeneratedSize]...), prevWeights, h.HeaderSize + h.RegeneratedSize, nil

	case LiteralsRLE:
		if len(body) < 1 {
			return nil, nil, 0, zstderrors.ErrSrcSizeWrong
		}
		out := make([]byte, h.RegeneratedSize)
		for i := range out {
			out[i] = body[0]
		}
		return out, prevWeights, h.HeaderSize + 1, nil

	case LiteralsCompressed, LiteralsTreeless:
		if len(body) < h.CompressedSize {
			return nil, nil, 0, zstderrors.ErrSrcSizeWrong
		}
		cSrc := body[:h.CompressedSize]
		w := prevWeights
		tableConsumed := 0
		if h.Type == LiteralsCompressed {
			w, tableConsumed, err = huff.ReadTable(cSrc)
			if err != nil {
				return nil, nil, 0, err
			}
		}
		if w == nil {
			return nil, nil, 0, zstderrors.ErrCorruption
		}
		bitstream := cSrc[tableConsumed:]
		var out []byte
		if h.FourStreams {
			out, err = huff.Decompress4X(nil, bitstream, w, h.RegeneratedSize)
		} else {
			out, err = huff.Decompress1X(nil, bitstream, w, h.RegeneratedSize)
		}
		if err != nil {
			return nil, nil, 0, err
		}
		return out, w, h.HeaderSize + h.CompressedSize, nil
	}

	return nil, nil, 0, zstderrors.ErrCorruption
}
