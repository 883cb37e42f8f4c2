package frame

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/internal/checksum"
	"github.com/zstd1/zstdcore/zstderrors"
)

// DefaultWindowLogMax is the decoder's default windowSize ceiling
// (spec.md §4.6 "Window-size check").
const DefaultWindowLogMax = 27

// DParams are the sticky decoder-side settings (spec.md §6.3, applied to
// the subset the core decoder needs).
type DParams struct {
	WindowLogMax         uint
	Magicless            bool
	StrictDictIDCheck    bool
	NoForwardProgressMax int
}

// DefaultDParams returns the zstd-standard decoder defaults.
func DefaultDParams() DParams {
	return DParams{
		WindowLogMax:         DefaultWindowLogMax,
		StrictDictIDCheck:    true,
		NoForwardProgressMax: 16,
	}
}

// SkippableFrame describes one skippable-frame region found while
// scanning, for the inspection API (spec.md §6.1, a supplemented feature
// per this module's expanded scope).
type SkippableFrame struct {
	Magic  uint32
	Offset int
	Length int
}

// DictScope selects how long an attached dictionary stays attached
// (spec.md §4.8 "Scoping").
type DictScope int

const (
	DontUse DictScope = iota
	UseOnce
	UseIndefinitely
)

// AttachedDict is the subset of a loaded dictionary the frame decoder
// needs: its ID (for the dictID match check), the entropy state a
// structured dictionary precomputed (zero value for a raw dictionary),
// and its raw content as the extDict match-history prefix.
type AttachedDict struct {
	DictID  uint32
	Entropy EntropyState
	Content []byte
}

// DCtx is a single-shot decompression context: it owns the decoder
// parameters and, across a multi-frame buffer, whatever skippable frames
// it encountered along the way.
type DCtx struct {
	Params          DParams
	SkippableFrames []SkippableFrame

	Dict      *AttachedDict
	DictScope DictScope
}

// NewDCtx returns a DCtx configured with DefaultDParams.
func NewDCtx() *DCtx {
	return &DCtx{Params: DefaultDParams()}
}

// AttachDict attaches d to the context under the given scope. Passing
// DontUse clears any previously attached dictionary.
func (d *DCtx) AttachDict(dict *AttachedDict, scope DictScope) {
	if scope == DontUse {
		d.Dict = nil
		d.DictScope = DontUse
		return
	}
	d.Dict = dict
	d.DictScope = scope
}

// Decompress runs the full GetFrameHeaderSize -> ... -> CheckChecksum state
// machine over src, which may contain multiple concatenated frames
// (spec.md §4.6), and returns the concatenated decompressed content.
func (d *DCtx) Decompress(dst []byte, src []byte) ([]byte, error) {
	d.SkippableFrames = nil
	for len(src) > 0 {
		var err error
		dst, src, err = d.decodeOneFrame(dst, src)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (d *DCtx) decodeOneFrame(dst []byte, src []byte) ([]byte, []byte, error) {
	if d.Params.Magicless {
		return d.decodeFrameBody(dst, src)
	}

	if len(src) < 4 {
		return nil, nil, zstderrors.ErrSrcSizeWrong
	}
	magic := binary.LittleEndian.Uint32(src)

	if IsSkippableMagic(magic) {
		if len(src) < 8 {
			return nil, nil, zstderrors.ErrSrcSizeWrong
		}
		length := binary.LittleEndian.Uint32(src[4:8])
		total := 8 + int(length)
		if len(src) < total {
			return nil, nil, zstderrors.ErrSrcSizeWrong
		}
		d.SkippableFrames = append(d.SkippableFrames, SkippableFrame{
			Magic: magic, Offset: 0, Length: total,
		})
		return dst, src[total:], nil
	}

	if magic != MagicNumber {
		return nil, nil, zstderrors.ErrPrefixUnknown
	}
	return d.decodeFrameBody(dst, src[4:])
}

func (d *DCtx) decodeFrameBody(dst []byte, src []byte) ([]byte, []byte, error) {
	h, n, err := ParseHeader(src)
	if err != nil {
		return nil, nil, err
	}
	// No windowSize ceiling here: WindowLogMax guards only the streaming
	// decoder, which must allocate a window-sized buffer up front (spec.md
	// §4.6 "Window-size check"). Single-shot decoding holds the whole
	// output anyway.
	src = src[n:]

	maxOFCode := windowLogToMaxOFCode(h.WindowSize)

	st := NewEntropyState()
	if d.Dict != nil {
		if h.DictIDFlag != 0 && d.Params.StrictDictIDCheck && h.DictID != d.Dict.DictID {
			return nil, nil, zstderrors.ErrDictionaryWrong
		}
		st = d.Dict.Entropy
		st.Prefix = d.Dict.Content
	}
	if d.DictScope == UseOnce {
		d.Dict = nil
		d.DictScope = DontUse
	}

	var sum *checksum.H32
	if h.ContentChecksumFlag {
		sum = checksum.New()
	}

	// Blocks decode into a frame-local buffer, never directly into dst:
	// the match window is this frame's own output (plus the dictionary
	// prefix), and an offset reaching past it into earlier frames or a
	// caller-supplied dst prefix is corruption (spec.md §3.2).
	var frameOut []byte
	for {
		bh, err := ParseBlockHeader(src)
		if err != nil {
			return nil, nil, err
		}
		src = src[3:]

		blockStart := len(frameOut)
		switch bh.Type {
		case BlockRaw:
			if uint32(len(src)) < bh.BlockSize {
				return nil, nil, zstderrors.ErrSrcSizeWrong
			}
			frameOut, err = DecodeRawBlock(frameOut, src, bh.BlockSize)
			src = src[bh.BlockSize:]
		case BlockRLE:
			if len(src) < 1 {
				return nil, nil, zstderrors.ErrSrcSizeWrong
			}
			frameOut, err = DecodeRLEBlock(frameOut, src, bh.BlockSize)
			src = src[1:]
		case BlockCompressed:
			if uint32(len(src)) < bh.BlockSize {
				return nil, nil, zstderrors.ErrSrcSizeWrong
			}
			frameOut, st, err = DecodeBlock(frameOut, src[:bh.BlockSize], st, maxOFCode)
			src = src[bh.BlockSize:]
		}
		if err != nil {
			return nil, nil, err
		}
		if len(frameOut)-blockStart > blockSizeMaxFor(h.WindowSize) {
			return nil, nil, zstderrors.ErrCorruption
		}
		if sum != nil {
			sum.Write(frameOut[blockStart:])
		}

		if bh.Last {
			break
		}
	}

	if h.HasFCS {
		if uint64(len(frameOut)) != h.FrameContentSize {
			return nil, nil, zstderrors.ErrCorruption
		}
	}
	dst = append(dst, frameOut...)

	if h.ContentChecksumFlag {
		if len(src) < 4 {
			return nil, nil, zstderrors.ErrSrcSizeWrong
		}
		want := binary.LittleEndian.Uint32(src)
		if sum.Sum32() != want {
			return nil, nil, zstderrors.ErrChecksumWrong
		}
		src = src[4:]
	}

	return dst, src, nil
}

// windowLogToMaxOFCode bounds the offset-code alphabet by the frame's
// window size: an offset can never legitimately encode a back-reference
// further than the window, which caps which FSE offset symbols are valid
// (spec.md §4.4 long-offset note).
func windowLogToMaxOFCode(windowSize uint64) uint32 {
	code := uint32(0)
	for (uint64(1) << code) < windowSize {
		code++
	}
	if code > 31 {
		code = 31
	}
	return code
}
