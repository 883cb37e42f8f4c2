package frame

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/internal/checksum"
	"github.com/zstd1/zstdcore/zstderrors"
)

// StreamStage is the decode state machine's current waiting point
// (spec.md §4.6 "Frame State Machine (Decoder)").
type StreamStage int

const (
	StageGetFrameHeaderSize StreamStage = iota
	StageDecodeFrameHeader
	StageDecodeBlockHeader
	StageDecompressBlock
	StageCheckChecksum
	StageDecodeSkippableHeader
	StageSkipFrame
)

// wildcopyOverlength is WILDCOPY_OVERLENGTH (spec.md §4.5, §4.7).
const wildcopyOverlength = 32

// blockSizeMaxFor is blockSizeMax = min(windowSize, 128 KiB) (spec.md §3.1
// "Block").
func blockSizeMaxFor(windowSize uint64) int {
	const cap128K = 128 * 1024
	if windowSize < cap128K {
		return int(windowSize)
	}
	return cap128K
}

// DecodingBufferSizeMin is spec.md §4.7's
// decodingBufferSize_min(windowSize, frameContentSize) formula: the
// smallest internal output ring buffer that can hold a full window of
// history plus one block's worth of new output with wildcopy slack.
func DecodingBufferSizeMin(windowSize, frameContentSize uint64) uint64 {
	blockSizeMax := uint64(blockSizeMaxFor(windowSize))
	want := windowSize + blockSizeMax + 2*wildcopyOverlength
	if frameContentSize != 0 && frameContentSize < want {
		return frameContentSize
	}
	return want
}

// InBuffer is a view over a caller-owned input slice with a read cursor,
// matching the reference's ZSTD_inBuffer (spec.md §6.2).
type InBuffer struct {
	Src []byte
	Pos int
}

// OutBuffer is a view over a caller-owned output slice with a write
// cursor, matching the reference's ZSTD_outBuffer (spec.md §6.2).
type OutBuffer struct {
	Dst []byte
	Pos int
}

// ringBuf is the internal forward-growing output window streaming decode
// stages past (spec.md §4.7 "Buffer layout"): decoded bytes are appended
// at a monotonically increasing logical position and copied out to the
// caller in increments; physical storage is indexed modulo capacity, so an
// append that reaches the end of the slice continues at its start.
type ringBuf struct {
	buf      []byte
	capacity int64
	written  int64 // logical bytes ever appended
	flushed  int64 // logical bytes ever copied to the caller
}

func newRingBuf(capacity uint64) *ringBuf {
	if capacity == 0 {
		capacity = 1
	}
	return &ringBuf{buf: make([]byte, capacity), capacity: int64(capacity)}
}

func (r *ringBuf) append(p []byte) {
	pos := r.written % r.capacity
	n := copy(r.buf[pos:], p)
	if n < len(p) {
		copy(r.buf, p[n:])
	}
	r.written += int64(len(p))
}

// flushTo copies as much unflushed data as fits into dst, returning the
// count copied.
func (r *ringBuf) flushTo(dst []byte) int {
	avail := r.written - r.flushed
	if avail <= 0 || len(dst) == 0 {
		return 0
	}
	n := int64(len(dst))
	if n > avail {
		n = avail
	}
	pos := r.flushed % r.capacity
	copied := copy(dst, r.buf[pos:pos+minI64(n, r.capacity-pos)])
	for int64(copied) < n {
		c := copy(dst[copied:], r.buf[:n-int64(copied)])
		copied += c
	}
	r.flushed += int64(copied)
	return copied
}

// room reports how many bytes may currently be appended without
// clobbering data not yet flushed to the caller.
func (r *ringBuf) room() int64 { return r.capacity - (r.written - r.flushed) }

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// StreamDCtx drives the streaming decompression state machine over
// however many DecompressStream calls it takes to exhaust src (spec.md
// §4.6, §4.7). A StreamDCtx is single-use per logical multi-frame
// session; create a fresh one per call to NewStreamDCtx to decode another
// independent stream.
type StreamDCtx struct {
	D *DCtx

	stage   StreamStage
	pending []byte // bytes accumulated toward the current stage's requirement

	h            Header
	st           EntropyState
	maxOFCode    uint32
	sum          *checksum.H32
	frameOutLen  int64 // bytes of this frame's content produced so far
	blockSizeMax int

	curBlock      BlockHeader
	skipMagic     uint32
	skipRemaining int

	// history is the current frame's match window: the attached
	// dictionary's content followed by every decoded byte so far. Once it
	// grows past twice the declared windowSize it is cut back to its last
	// windowSize bytes. Each block decode sees it as its extDict prefix.
	history []byte

	ring *ringBuf

	noProgress int
}

// NewStreamDCtx returns a StreamDCtx ready to decode a fresh multi-frame
// stream using d's parameters (windowLogMax, dictionary, magicless
// framing).
func NewStreamDCtx(d *DCtx) *StreamDCtx {
	return &StreamDCtx{D: d, stage: StageGetFrameHeaderSize}
}

// DecompressStream consumes as much of in as is available and produces as
// much decoded output into out as fits, advancing in.Pos/out.Pos in
// place. It returns a hint (the reference implementation's "next
// suggested input size", 0 meaning a frame just completed with nothing
// left to flush) and an error.
//
// A call that advances neither in.Pos nor out.Pos counts toward
// spec.md §4.7's NO_FORWARD_PROGRESS_MAX guard; NoForwardProgressMax
// consecutive such calls is reported as ErrSrcSizeWrong when no input is
// left, and as ErrDstSizeTooSmall otherwise.
func (s *StreamDCtx) DecompressStream(out *OutBuffer, in *InBuffer) (int, error) {
	startIn, startOut := in.Pos, out.Pos

	if s.ring != nil {
		out.Pos += s.ring.flushTo(out.Dst[out.Pos:])
	}

	hint, err := s.run(out, in)

	if in.Pos == startIn && out.Pos == startOut {
		s.noProgress++
		max := s.D.Params.NoForwardProgressMax
		if max <= 0 {
			max = 16
		}
		if err == nil && s.noProgress >= max {
			if len(in.Src)-in.Pos == 0 {
				err = zstderrors.ErrSrcSizeWrong
			} else {
				err = zstderrors.ErrDstSizeTooSmall
			}
		}
	} else {
		s.noProgress = 0
	}
	return hint, err
}

func (s *StreamDCtx) run(out *OutBuffer, in *InBuffer) (int, error) {
	for {
		switch s.stage {
		case StageGetFrameHeaderSize:
			if s.D.Params.Magicless {
				// no magic to consume; StageDecodeFrameHeader reads the
				// FHD byte directly off of s.pending (empty here).
				s.stage = StageDecodeFrameHeader
				continue
			}
			if !s.fill(in, 4) {
				return 4 - len(s.pending), nil
			}
			magic := binary.LittleEndian.Uint32(s.pending)
			if IsSkippableMagic(magic) {
				s.pending = s.pending[4:]
				s.skipMagic = magic
				s.stage = StageDecodeSkippableHeader
				continue
			}
			if magic != MagicNumber {
				return 0, zstderrors.ErrPrefixUnknown
			}
			s.pending = s.pending[4:]
			s.stage = StageDecodeFrameHeader

		case StageDecodeFrameHeader:
			if len(s.pending) == 0 {
				if !s.fill(in, 1) {
					return 1, nil
				}
			}
			hdrLen := HeaderSizeFromFHD(s.pending[0])
			if !s.fill(in, hdrLen) {
				return hdrLen - len(s.pending), nil
			}
			h, n, err := ParseHeader(s.pending)
			if err != nil {
				return 0, err
			}
			if h.WindowSize > (uint64(1)<<s.D.Params.WindowLogMax)+1 {
				return 0, zstderrors.ErrWindowTooLarge
			}
			s.h = h
			s.pending = s.pending[n:]
			s.maxOFCode = windowLogToMaxOFCode(h.WindowSize)
			s.st = NewEntropyState()
			if s.D.Dict != nil {
				if h.DictIDFlag != 0 && s.D.Params.StrictDictIDCheck && h.DictID != s.D.Dict.DictID {
					return 0, zstderrors.ErrDictionaryWrong
				}
				s.st = s.D.Dict.Entropy
				s.st.Prefix = s.D.Dict.Content
			}
			if s.D.DictScope == UseOnce {
				s.D.Dict = nil
				s.D.DictScope = DontUse
			}
			if h.ContentChecksumFlag {
				s.sum = checksum.New()
			} else {
				s.sum = nil
			}
			s.frameOutLen = 0
			s.blockSizeMax = blockSizeMaxFor(h.WindowSize)
			s.history = append([]byte(nil), s.st.Prefix...)
			s.ring = newRingBuf(DecodingBufferSizeMin(h.WindowSize, h.FrameContentSize))
			s.stage = StageDecodeBlockHeader

		case StageDecodeBlockHeader:
			if !s.fill(in, 3) {
				return 3 - len(s.pending), nil
			}
			bh, err := ParseBlockHeader(s.pending)
			if err != nil {
				return 0, err
			}
			s.pending = nil
			if bh.BlockSize == 0 && bh.Last {
				if s.h.ContentChecksumFlag {
					s.stage = StageCheckChecksum
				} else {
					s.stage = StageGetFrameHeaderSize
				}
				continue
			}
			s.curBlock = bh
			s.stage = StageDecompressBlock

		case StageDecompressBlock:
			need := int(s.curBlock.BlockSize)
			if s.curBlock.Type == BlockRLE {
				need = 1
			}
			if s.ring.room() < int64(s.blockSizeMax) {
				// caller must drain more output before we can decode
				// further (spec.md §4.7 ring-buffer backpressure).
				n := s.ring.flushTo(out.Dst[out.Pos:])
				out.Pos += n
				if n == 0 {
					return 0, nil
				}
				continue
			}
			if !s.fill(in, need) {
				return need - len(s.pending), nil
			}
			var (
				decoded []byte
				err     error
			)
			switch s.curBlock.Type {
			case BlockRaw:
				decoded, err = DecodeRawBlock(nil, s.pending, s.curBlock.BlockSize)
			case BlockRLE:
				decoded, err = DecodeRLEBlock(nil, s.pending, s.curBlock.BlockSize)
			case BlockCompressed:
				s.st.Prefix = s.history
				decoded, s.st, err = DecodeBlock(nil, s.pending, s.st, s.maxOFCode)
			}
			if err != nil {
				return 0, err
			}
			if len(decoded) > s.blockSizeMax {
				return 0, zstderrors.ErrCorruption
			}
			s.history = append(s.history, decoded...)
			if w := int(s.h.WindowSize); len(s.history) > 2*w && w > 0 {
				s.history = append([]byte(nil), s.history[len(s.history)-w:]...)
			}
			s.pending = nil
			if s.sum != nil {
				s.sum.Write(decoded)
			}
			s.frameOutLen += int64(len(decoded))
			s.ring.append(decoded)
			out.Pos += s.ring.flushTo(out.Dst[out.Pos:])

			if s.h.HasFCS && s.curBlock.Last && uint64(s.frameOutLen) != s.h.FrameContentSize {
				return 0, zstderrors.ErrCorruption
			}

			if s.curBlock.Last {
				if s.h.ContentChecksumFlag {
					s.stage = StageCheckChecksum
				} else {
					s.stage = StageGetFrameHeaderSize
				}
			} else {
				s.stage = StageDecodeBlockHeader
			}

		case StageCheckChecksum:
			if !s.fill(in, 4) {
				return 4 - len(s.pending), nil
			}
			want := binary.LittleEndian.Uint32(s.pending)
			if s.sum.Sum32() != want {
				return 0, zstderrors.ErrChecksumWrong
			}
			s.pending = nil
			s.stage = StageGetFrameHeaderSize

		case StageDecodeSkippableHeader:
			if !s.fill(in, 4) {
				return 4 - len(s.pending), nil
			}
			length := binary.LittleEndian.Uint32(s.pending)
			s.pending = nil
			s.skipRemaining = int(length)
			s.D.SkippableFrames = append(s.D.SkippableFrames, SkippableFrame{
				Magic:  s.skipMagic,
				Offset: -1, // unknowable mid-stream; callers get magic+length
				Length: 8 + int(length),
			})
			s.stage = StageSkipFrame

		case StageSkipFrame:
			for s.skipRemaining > 0 && in.Pos < len(in.Src) {
				n := len(in.Src) - in.Pos
				if n > s.skipRemaining {
					n = s.skipRemaining
				}
				in.Pos += n
				s.skipRemaining -= n
			}
			if s.skipRemaining > 0 {
				return s.skipRemaining, nil
			}
			s.stage = StageGetFrameHeaderSize

		default:
			return 0, zstderrors.ErrStageWrong
		}

		if len(in.Src)-in.Pos == 0 && s.ring != nil && s.ring.written == s.ring.flushed && s.stage == StageGetFrameHeaderSize {
			return 0, nil
		}
		if out.Pos >= len(out.Dst) && s.stage != StageGetFrameHeaderSize {
			return 1, nil
		}
	}
}

// fill accumulates bytes from in into s.pending until it holds at least
// need bytes, consuming in.Pos as it goes. Returns false if in ran dry
// first.
func (s *StreamDCtx) fill(in *InBuffer, need int) bool {
	if len(s.pending) >= need {
		return true
	}
	short := need - len(s.pending)
	avail := len(in.Src) - in.Pos
	if avail > short {
		avail = short
	}
	s.pending = append(s.pending, in.Src[in.Pos:in.Pos+avail]...)
	in.Pos += avail
	return len(s.pending) >= need
}
