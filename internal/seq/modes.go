package seq

import (
	"github.com/zstd1/zstdcore/internal/bitio"
	"github.com/zstd1/zstdcore/internal/fse"
	"github.com/zstd1/zstdcore/zstderrors"
)

// Mode is one of the four symbol compression modes a sequence-section
// header selects per symbol type, 2 bits each (spec.md §4.4.1).
type Mode uint8

const (
	ModePredefined Mode = iota
	ModeRLE
	ModeFSE
	ModeRepeat
)

// Header is the decoded sequences-section header: sequence count plus the
// three 2-bit mode selectors packed into the compression-modes byte.
type Header struct {
	NbSequences int
	LLMode      Mode
	OFMode      Mode
	MLMode      Mode
}

// ParseHeader reads the variable-length sequence count and the
// compression-modes byte, returning the header and bytes consumed
// (spec.md §4.4.1).
func ParseHeader(src []byte) (Header, int, error) {
	if len(src) == 0 {
		return Header{}, 0, zstderrors.ErrSrcSizeWrong
	}
	b0 := src[0]
	var nbSeq, consumed int
	switch {
	case b0 == 0:
		return Header{NbSequences: 0}, 1, nil
	case b0 < 128:
		nbSeq = int(b0)
		consumed = 1
	case b0 < 255:
		if len(src) < 2 {
			return Header{}, 0, zstderrors.ErrSrcSizeWrong
		}
		nbSeq = (int(b0)-128)<<8 + int(src[1])
		consumed = 2
	default:
		if len(src) < 3 {
			return Header{}, 0, zstderrors.ErrSrcSizeWrong
		}
		nbSeq = int(src[1]) + int(src[2])<<8 + 0x7F00
		consumed = 3
	}
	if len(src) < consumed+1 {
		return Header{}, 0, zstderrors.ErrSrcSizeWrong
	}
	modes := src[consumed]
	consumed++
	h := Header{
		NbSequences: nbSeq,
		LLMode:      Mode((modes >> 6) & 0x3),
		OFMode:      Mode((modes >> 4) & 0x3),
		MLMode:      Mode((modes >> 2) & 0x3),
	}
	return h, consumed, nil
}

// Tables holds the three live FSE decode tables used for one block's
// sequence section, carried forward across blocks when a mode is Repeat
// (spec.md §4.4.1 "Repeat_Mode").
type Tables struct {
	LL, OF, ML *fse.DTable
}

// ResolveTable builds (or reuses) the decode table for one symbol type
// according to its mode, consuming NCount bytes from src when the mode is
// FSE (spec.md §4.4.1).
func resolveTable(mode Mode, src []byte, maxSymbol uint32, defaultDist []int16, defaultLog uint8, prev *fse.DTable) (*fse.DTable, int, error) {
	switch mode {
	case ModePredefined:
		dt, err := fse.BuildDTable(defaultDist, defaultLog)
		return dt, 0, err
	case ModeRLE:
		if len(src) < 1 {
			return nil, 0, zstderrors.ErrSrcSizeWrong
		}
		// An RLE table always emits the single stored symbol: a degenerate
		// 1-entry table at tableLog 0 reproduces that with no extra bits.
		dt := &fse.DTable{TableLog: 0, Entries: []fse.DTableEntry{{Symbol: src[0], NbBits: 0, NewState: 0}}}
		return dt, 1, nil
	case ModeFSE:
		norm, tableLog, n, err := fse.ReadNCount(src, maxSymbol)
		if err != nil {
			return nil, 0, err
		}
		dt, err := fse.BuildDTable(norm, tableLog)
		if err != nil {
			return nil, 0, err
		}
		return dt, n, nil
	case ModeRepeat:
		if prev == nil {
			return nil, 0, zstderrors.ErrCorruption
		}
		return prev, 0, nil
	default:
		return nil, 0, zstderrors.ErrCorruption
	}
}

// ResolveTables builds the LL/OF/ML decode tables for one block, consuming
// whatever NCount headers the modes require and threading forward tables
// carried from a prior block for Repeat_Mode.
func ResolveTables(h Header, src []byte, maxOF uint32, prev Tables) (Tables, int, error) {
	off := 0
	ll, n, err := resolveTable(h.LLMode, src[off:], MaxLLCode, DefaultLLDistribution, DefaultLLTableLog, prev.LL)
	if err != nil {
		return Tables{}, 0, err
	}
	off += n

	of, n, err := resolveTable(h.OFMode, src[off:], maxOF, DefaultOFDistribution, DefaultOFTableLog, prev.OF)
	if err != nil {
		return Tables{}, 0, err
	}
	off += n

	ml, n, err := resolveTable(h.MLMode, src[off:], MaxMLCode, DefaultMLDistribution, DefaultMLTableLog, prev.ML)
	if err != nil {
		return Tables{}, 0, err
	}
	off += n

	return Tables{LL: ll, OF: of, ML: ml}, off, nil
}

// Sequence is one decoded (literalLength, matchLength, offset) triple
// before repeat-offset resolution.
type Sequence struct {
	LitLen    uint32
	MatchLen  uint32
	RawOffset uint32
}

// longOffsetSplit is the widest extra-bits field a single reservoir read
// may cover. An offset code past this forces a two-part read with a reload
// in between (spec.md §4.4 "Long-offset mode"); the low part is at most 6
// bits, so it never needs a second reload.
const longOffsetSplit = 25

// Decode reads nbSequences triples from the combined bitstream. The three
// FSE states share one reservoir, seeded in the fixed order LL, OF, ML.
// Per sequence, all three codes are peeked off the current states first,
// then the extra-bit fields are read in the order OF, ML, LL, and only
// then do the states advance (LL, ML, OF) — the exact mirror of how the
// encoder laid the fields down (spec.md §4.4). Decoding walks the block
// from its tail backward, as with every other FSE bitstream in this
// format.
func Decode(src []byte, tabs Tables, nbSequences int) ([]Sequence, error) {
	r, err := bitio.NewReader(src)
	if err != nil {
		return nil, err
	}
	var llState, ofState, mlState fse.DState
	llState.InitDState(tabs.LL, r)
	ofState.InitDState(tabs.OF, r)
	mlState.InitDState(tabs.ML, r)

	out := make([]Sequence, 0, nbSequences)
	for i := 0; i < nbSequences; i++ {
		llCode := llState.PeekSymbol()
		ofCode := ofState.PeekSymbol()
		mlCode := mlState.PeekSymbol()
		if int(llCode) >= len(LLBase) || int(mlCode) >= len(MLBase) || uint32(ofCode) > MaxOFCode {
			return nil, zstderrors.ErrCorruption
		}
		llBits := uint(LLBits[llCode])
		mlBits := uint(MLBits[mlCode])
		ofBits := uint(OFBits(uint32(ofCode)))

		var offset uint64
		switch {
		case ofBits == 0:
			offset = OFBase(uint32(ofCode)) // code 0: offsetCode 1, the first repeat slot
		case ofBits > longOffsetSplit:
			low := ofBits - longOffsetSplit
			hi := r.ReadBits(longOffsetSplit)
			if status := r.Reload(); status == bitio.Overflow {
				return nil, zstderrors.ErrCorruption
			}
			offset = OFBase(uint32(ofCode)) + uint64(hi)<<low + uint64(r.ReadBits(low))
		default:
			offset = OFBase(uint32(ofCode)) + uint64(r.ReadBits(ofBits))
		}

		matchLen := MLBase[mlCode] + r.ReadBits(mlBits)
		if ofBits+mlBits+llBits >= 31 {
			// keep the worst-case read run inside one container's worth
			if status := r.Reload(); status == bitio.Overflow {
				return nil, zstderrors.ErrCorruption
			}
		}
		litLen := LLBase[llCode] + r.ReadBits(llBits)

		out = append(out, Sequence{LitLen: litLen, MatchLen: matchLen, RawOffset: uint32(offset)})

		llState.Update(r)
		mlState.Update(r)
		ofState.Update(r)

		if i == nbSequences-1 {
			break
		}
		if status := r.Reload(); status == bitio.Overflow {
			return nil, zstderrors.ErrCorruption
		}
	}
	return out, nil
}
