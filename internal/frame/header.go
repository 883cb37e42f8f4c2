package frame

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/zstderrors"
)

// Header is a decoded frame header (spec.md §6.1 FrameHeader).
type Header struct {
	DictIDFlag           uint8
	ContentChecksumFlag  bool
	SingleSegmentFlag    bool
	FrameContentSizeFlag uint8

	WindowSize       uint64 // derived from WD, or equal to FrameContentSize when SingleSegmentFlag
	DictID           uint32
	FrameContentSize uint64
	HasFCS           bool
}

// HeaderSizeFromFHD computes the total frame header length (including the
// FHD byte itself) once the first header byte is known, per the
// GetFrameHeaderSize decode stage (spec.md §4.6).
func HeaderSizeFromFHD(fhd byte) int {
	size := 1
	singleSegment := (fhd>>5)&1 == 1
	if !singleSegment {
		size++ // WD byte
	}
	dictIDFlag := fhd & 0x3
	switch dictIDFlag {
	case 1:
		size++
	case 2:
		size += 2
	case 3:
		size += 4
	}
	fcsFlag := (fhd >> 6) & 0x3
	switch {
	case fcsFlag == 0 && singleSegment:
		size++
	case fcsFlag == 1:
		size += 2
	case fcsFlag == 2:
		size += 4
	case fcsFlag == 3:
		size += 8
	}
	return size
}

// ParseHeader decodes a full frame header (excluding the 4-byte magic,
// which the caller has already consumed/verified) per spec.md §6.1.
func ParseHeader(src []byte) (Header, int, error) {
	if len(src) == 0 {
		return Header{}, 0, zstderrors.ErrSrcSizeWrong
	}
	fhd := src[0]
	if (fhd>>3)&1 != 0 {
		return Header{}, 0, zstderrors.ErrFrameParameterUnsupported
	}
	total := HeaderSizeFromFHD(fhd)
	if len(src) < total {
		return Header{}, 0, zstderrors.ErrSrcSizeWrong
	}

	h := Header{
		DictIDFlag:           fhd & 0x3,
		ContentChecksumFlag:  (fhd>>2)&1 == 1,
		SingleSegmentFlag:    (fhd>>5)&1 == 1,
		FrameContentSizeFlag: (fhd >> 6) & 0x3,
	}
	pos := 1

	var windowLog uint
	if !h.SingleSegmentFlag {
		wd := src[pos]
		pos++
		windowLog = uint(wd>>3) + 10
		h.WindowSize = (uint64(1) << windowLog) + (uint64(wd&7) * (uint64(1) << (windowLog - 3)))
	}

	switch h.DictIDFlag {
	case 1:
		h.DictID = uint32(src[pos])
		pos++
	case 2:
		h.DictID = uint32(binary.LittleEndian.Uint16(src[pos:]))
		pos += 2
	case 3:
		h.DictID = binary.LittleEndian.Uint32(src[pos:])
		pos += 4
	}

	switch {
	case h.FrameContentSizeFlag == 0 && h.SingleSegmentFlag:
		h.FrameContentSize = uint64(src[pos])
		h.HasFCS = true
		pos++
	case h.FrameContentSizeFlag == 1:
		h.FrameContentSize = uint64(binary.LittleEndian.Uint16(src[pos:])) + 256
		h.HasFCS = true
		pos += 2
	case h.FrameContentSizeFlag == 2:
		h.FrameContentSize = uint64(binary.LittleEndian.Uint32(src[pos:]))
		h.HasFCS = true
		pos += 4
	case h.FrameContentSizeFlag == 3:
		h.FrameContentSize = binary.LittleEndian.Uint64(src[pos:])
		h.HasFCS = true
		pos += 8
	}

	if h.SingleSegmentFlag {
		h.WindowSize = h.FrameContentSize
	}

	return h, pos, nil
}

// PeekContentSize reports the frame-content-size a magic-prefixed frame
// declares in its header, without otherwise touching decode state. It
// exists for callers that need the total decoded length up front — the
// random-access reader (package decompressioncache's consumer) needs it to
// report Size() before decoding a single byte.
func PeekContentSize(src []byte) (uint64, error) {
	if len(src) < 4 {
		return 0, zstderrors.ErrSrcSizeWrong
	}
	magic := binary.LittleEndian.Uint32(src)
	if magic != MagicNumber {
		return 0, zstderrors.ErrPrefixUnknown
	}
	h, _, err := ParseHeader(src[4:])
	if err != nil {
		return 0, err
	}
	if !h.HasFCS {
		return 0, zstderrors.ErrParameterUnsupported
	}
	return h.FrameContentSize, nil
}

// BlockType enumerates the three real block payload kinds plus the
// reserved value a decoder must reject (spec.md §6.1 BlockHeader).
type BlockType uint8

const (
	BlockRaw BlockType = iota
	BlockRLE
	BlockCompressed
	BlockReserved
)

// BlockHeader is the decoded 3-byte block header.
type BlockHeader struct {
	Last      bool
	Type      BlockType
	BlockSize uint32 // payload size (RAW/COMPRESSED) or decompressed size (RLE)
}

// ParseBlockHeader decodes the 3-byte little-endian block header
// (spec.md §6.1).
func ParseBlockHeader(src []byte) (BlockHeader, error) {
	if len(src) < 3 {
		return BlockHeader{}, zstderrors.ErrSrcSizeWrong
	}
	word := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
	h := BlockHeader{
		Last:      word&1 == 1,
		Type:      BlockType((word >> 1) & 0x3),
		BlockSize: word >> 3,
	}
	if h.Type == BlockReserved {
		return BlockHeader{}, zstderrors.ErrCorruption
	}
	return h, nil
}
