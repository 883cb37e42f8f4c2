// Package seq implements the sequences section of a compressed block: the
// code tables, the three interleaved FSE streams that carry literal
// lengths, match lengths and offsets, and the executor that replays the
// decoded (litLen, matchLen, offset) triples against the output window
// (spec.md §4.4, §4.5).
package seq

// Baseline/extra-bits tables for the three symbol types, exactly as laid
// out in spec.md §4.4.2. Codes beyond the literal table map to an extra
// field whose bit width grows by one every two codes.
var (
	LLBase = [36]uint32{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 18, 20, 22,
		24, 28, 32, 40, 48, 64, 0x80, 0x100, 0x200, 0x400, 0x800, 0x1000,
		0x2000, 0x4000, 0x8000, 0x10000,
	}
	LLBits = [36]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1,
		2, 2, 3, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	}

	MLBase = [53]uint32{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22,
		23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 37, 39, 41, 43, 47,
		51, 59, 67, 83, 99, 0x83, 0x103, 0x203, 0x403, 0x803, 0x1003, 0x2003,
		0x4003, 0x8003, 0x10003,
	}
	MLBits = [53]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 3, 3,
		4, 4, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	}
)

// OFBase/OFBits are generated, not tabulated: offset code N has extra bits
// N and baseline 1<<N, per spec.md §4.4 ("OF_base[s] = 1<<s, OF_bits[s] = s
// for s >= 1"). Every code goes through here, 0 included (baseline 1, no
// extra bits); the raw offsets 1..3 that codes 0 and 1 yield are repeat
// codes, resolved afterwards by RepOffsets.
func OFBase(code uint32) uint64 {
	return uint64(1) << code
}

func OFBits(code uint32) uint8 { return uint8(code) }

const (
	MaxLLCode = 35
	MaxMLCode = 52
	// MaxOFCode is format-dependent (bounded by windowLog or 31 for
	// long-offset mode); callers clamp against their own limit.
	MaxOFCode = 31
)

// Default distributions for Predefined_Mode, copied from spec.md §4.4.3
// (Predefined_Mode tables), used verbatim whenever a block selects the
// predefined compression mode for a given symbol type rather than shipping
// its own NCount.
var (
	DefaultLLDistribution = []int16{
		4, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1, 2, 2, 2, 2,
		2, 2, 2, 2, 2, 3, 2, 1, 1, 1, 1, 1, -1, -1, -1, -1,
	}
	DefaultMLDistribution = []int16{
		1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1, -1, -1,
		-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	}
	DefaultOFDistribution = []int16{
		1, 1, 1, 1, 1, 1, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, -1, -1, -1, -1, -1,
	}
	DefaultLLTableLog uint8 = 6
	DefaultMLTableLog uint8 = 6
	DefaultOFTableLog uint8 = 5
)
