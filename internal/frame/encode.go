package frame

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/internal/checksum"
	"github.com/zstd1/zstdcore/internal/huff"
)

// EncodeParams controls frame-level encoding. Match-finding (LZ77 search,
// compression-level presets) is explicitly out of this module's scope; the
// encoder here always emits sequence-free (literals-only) blocks, which is
// a conformant, if unambitious, zstd1 bitstream — the entropy layer this
// module targets is fully exercised regardless of whether a preceding
// match-finder ever ran.
type EncodeParams struct {
	ChecksumFlag    bool
	ContentSizeFlag bool
	Magicless       bool   // zstd1_magicless: omit the 4-byte magic number
	WindowLog       uint8  // stored only: EncodeFrameHeader always writes a single-segment header with no window descriptor
	BlockSizeMax    int    // 0 selects 128 KiB
	DictID          uint32 // 0 means no dictID field is written
}

func DefaultEncodeParams() EncodeParams {
	return EncodeParams{ContentSizeFlag: true, BlockSizeMax: 128 * 1024}
}

// CompressFrame writes a complete single frame for src: magic, frame
// header, one literals-only block per BlockSizeMax chunk, and an optional
// checksum trailer. It is the single-threaded path; EncodeFrameHeader,
// EncodeBlockPayload (as EncodeBlockPayloadScratch) and
// AppendChecksumTrailer below are the same building blocks the
// multi-worker scheduler (package mtcompress) calls directly so
// that a job's blocks are byte-identical to what this function would have
// produced for the same range.
func CompressFrame(dst []byte, src []byte, p EncodeParams) []byte {
	blockSizeMax := p.BlockSizeMax
	if blockSizeMax == 0 {
		blockSizeMax = 128 * 1024
	}

	dst = EncodeFrameHeader(dst, uint64(len(src)), p)

	var sum *checksum.H32
	if p.ChecksumFlag {
		sum = checksum.New()
	}

	if len(src) == 0 {
		dst = appendBlockHeader(dst, true, BlockRaw, 0)
		if sum != nil {
			dst = AppendChecksumTrailer(dst, sum.Sum32())
		}
		return dst
	}

	for off := 0; off < len(src); off += blockSizeMax {
		end := off + blockSizeMax
		if end > len(src) {
			end = len(src)
		}
		chunk := src[off:end]
		last := end == len(src)
		dst = EncodeBlockPayload(dst, chunk, last)
		if sum != nil {
			sum.Write(chunk)
		}
	}

	if sum != nil {
		dst = AppendChecksumTrailer(dst, sum.Sum32())
	}
	return dst
}

// EncodeFrameHeader writes the magic number and frame header for a
// single-segment frame of the given total contentSize (spec.md §6.1). It is
// exported so a multi-worker compressor can write the one frame header a
// whole job set shares, ahead of however many workers' blocks follow.
func EncodeFrameHeader(dst []byte, contentSize uint64, p EncodeParams) []byte {
	if !p.Magicless {
		var magicBuf [4]byte
		binary.LittleEndian.PutUint32(magicBuf[:], MagicNumber)
		dst = append(dst, magicBuf[:]...)
	}

	fhd := byte(0x20) // single-segment
	if p.ChecksumFlag {
		fhd |= 0x04
	}
	if p.DictID != 0 {
		fhd |= 0x3 // Dictionary_ID_flag = 3 => 4-byte dictID
	}
	fhdIndex := len(dst)
	dst = append(dst, fhd)

	if p.DictID != 0 {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], p.DictID)
		dst = append(dst, buf[:]...)
	}

	// Single-segment FCS, size-format 0 => 1 byte if contentSize < 256,
	// widening to the 4- or 8-byte form as the size demands.
	switch {
	case contentSize < 256:
		dst = append(dst, byte(contentSize))
	case contentSize < 1<<32:
		// FrameContentSizeFlag=2 (4-byte FCS)
		dst[fhdIndex] = fhd | (2 << 6)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(contentSize))
		dst = append(dst, buf[:]...)
	default:
		// FrameContentSizeFlag=3 (8-byte FCS)
		dst[fhdIndex] = fhd | (3 << 6)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], contentSize)
		dst = append(dst, buf[:]...)
	}
	return dst
}

// AppendChecksumTrailer appends the 4-byte little-endian content checksum
// (spec.md §6.1 Checksum).
func AppendChecksumTrailer(dst []byte, sum uint32) []byte {
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], sum)
	return append(dst, trailer[:]...)
}

// AppendBlockHeader writes a 3-byte little-endian block header (spec.md
// §3.1 "Block"). Exported so mtcompress can emit RAW padding/boundary
// blocks without reaching into unexported frame internals.
func AppendBlockHeader(dst []byte, last bool, typ BlockType, size uint32) []byte {
	return appendBlockHeader(dst, last, typ, size)
}

func appendBlockHeader(dst []byte, last bool, typ BlockType, size uint32) []byte {
	word := size<<3 | uint32(typ)<<1
	if last {
		word |= 1
	}
	return append(dst, byte(word), byte(word>>8), byte(word>>16))
}

// EncodeBlockPayload encodes one block's literals-only payload, preferring
// a Huffman-compressed literals section when it is smaller than storing the
// chunk raw. It is the per-block unit of work a ZSTDMT job runs
// independently of every other job (spec.md §4.9.2 "compressing").
func EncodeBlockPayload(dst []byte, chunk []byte, last bool) []byte {
	var count [256]uint32
	return EncodeBlockPayloadScratch(dst, chunk, last, &count)
}

// EncodeBlockPayloadScratch is EncodeBlockPayload with the symbol-count
// histogram supplied by the caller instead of stack-allocated fresh each
// call, so a pool of workers (mtcompress's cctxPool) can reuse one array
// per goroutine across many blocks instead of zeroing a new one each time.
func EncodeBlockPayloadScratch(dst []byte, chunk []byte, last bool, count *[256]uint32) []byte {
	payload, typ := EncodeBlockBody(chunk, count)
	if typ == BlockRLE {
		dst = appendBlockHeader(dst, last, BlockRLE, uint32(len(chunk)))
	} else {
		dst = appendBlockHeader(dst, last, typ, uint32(len(payload)))
	}
	return append(dst, payload...)
}

// EncodeBlockBody encodes one block's body without its 3-byte header,
// reporting the block type the header must carry: BlockRLE for a uniform
// chunk (one payload byte, run length goes in the header), BlockCompressed
// otherwise. Exported for the block-level API (spec.md §6.2
// "compressBlock"), whose callers manage their own framing.
func EncodeBlockBody(chunk []byte, count *[256]uint32) ([]byte, BlockType) {
	*count = [256]uint32{}
	for _, b := range chunk {
		count[b]++
	}
	maxSym := 0
	for s, c := range count {
		if c > 0 {
			maxSym = s
		}
	}

	// A uniform run is its own block type on the wire: one byte of payload,
	// run length in the header (spec.md §3.1 "Block", RLE). A one-symbol
	// histogram would also degenerate the Huffman table below.
	if len(chunk) > 1 && int(count[maxSym]) == len(chunk) {
		return []byte{chunk[0]}, BlockRLE
	}

	var litSection []byte
	compressed := false
	if len(chunk) >= 1024 {
		if ct, err := huff.BuildCTable(count[:maxSym+1], huff.DefaultTableLog); err == nil {
			if body, err := huff.Compress4X(nil, chunk, ct); err == nil && len(body) > 0 {
				hdr, err := huff.WriteTable(ct)
				if err == nil {
					full := append(append([]byte(nil), hdr...), body...)
					if len(full)+5 < len(chunk) {
						litSection = encodeCompressedLiteralsHeader(len(chunk), len(full))
						litSection = append(litSection, full...)
						compressed = true
					}
				}
			}
		}
	}
	if !compressed {
		litSection = encodeRawLiteralsHeader(len(chunk))
		litSection = append(litSection, chunk...)
	}

	// Sequence section: nbSequences = 0.
	return append(litSection, 0), BlockCompressed
}

func encodeRawLiteralsHeader(size int) []byte {
	switch {
	case size < 32:
		return []byte{byte(size << 3)}
	case size < 1<<12:
		return []byte{byte(1<<2) | byte(size<<4), byte(size >> 4)}
	default:
		return []byte{byte(3<<2) | byte(size<<4), byte(size >> 4), byte(size >> 12)}
	}
}

// encodeCompressedLiteralsHeader always emits a 4-stream header (sizeFormat
// 2 or 3, matching Compress4X's output), choosing the narrower 4-byte form
// (14 bits each for regenerated/compressed size) when both fit, and
// otherwise the 5-byte form (18 bits each), per spec.md §4.3.3's jump-header
// framing.
func encodeCompressedLiteralsHeader(regenSize, compSize int) []byte {
	const type_ = byte(LiteralsCompressed)
	if regenSize < 1<<14 && compSize < 1<<14 {
		combined := uint32(regenSize) | uint32(compSize)<<14
		sizeFormat := byte(2)
		b0 := type_ | sizeFormat<<2 | byte(combined<<4)
		return []byte{b0, byte(combined >> 4), byte(combined >> 12), byte(combined >> 20)}
	}
	combined := uint64(regenSize) | uint64(compSize)<<18
	sizeFormat := byte(3)
	b0 := type_ | sizeFormat<<2 | byte(combined<<4)
	return []byte{b0, byte(combined >> 4), byte(combined >> 12), byte(combined >> 20), byte(combined >> 28)}
}
