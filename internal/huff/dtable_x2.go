package huff

import (
	"github.com/zstd1/zstdcore/internal/bitio"
	"github.com/zstd1/zstdcore/zstderrors"
)

// X2Entry is one cell of a double-symbol decode table: it may carry either
// one or two symbols, distinguished by Length (spec.md §4.3.5).
type X2Entry struct {
	Sequence [2]uint8
	NbBits   uint8 // total bits consumed by this entry
	Length   uint8 // 1 or 2 symbols produced
}

// DTableX2 packs two short codes per lookup when doing so keeps the combined
// width under the table's bit budget, roughly doubling decode throughput for
// heavily skewed alphabets at the cost of a larger table (spec.md §4.3.5).
type DTableX2 struct {
	TableLog uint8
	Entries  []X2Entry
}

type weightedSym struct {
	symbol int
	nbBits uint8
}

// BuildDTableX2 builds a double-symbol decode table from per-symbol weights.
func BuildDTableX2(weights []uint8) (*DTableX2, error) {
	tl, err := tableLogFromWeights(weights)
	if err != nil {
		return nil, err
	}
	nbBits := make([]uint8, len(weights))
	var syms []weightedSym
	for s, w := range weights {
		if w == 0 {
			continue
		}
		if w > tl {
			return nil, zstderrors.ErrCorruption
		}
		n := tl + 1 - w
		nbBits[s] = n
		syms = append(syms, weightedSym{s, n})
	}
	sortByLenThenSymbol2(syms)

	tableLog := tl
	if tableLog > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}
	tableSize := uint32(1) << tableLog
	entries := make([]X2Entry, tableSize)

	code := uint32(0)
	prevBits := uint8(0)
	codes := make([]uint32, len(syms))
	for i, e := range syms {
		code <<= (e.nbBits - prevBits)
		codes[i] = code
		prevBits = e.nbBits
		code++
	}

	// Single-symbol fill, matching X1, as the baseline every cell gets.
	for i, e := range syms {
		start := codes[i] << (tableLog - e.nbBits)
		span := uint32(1) << (tableLog - e.nbBits)
		for j := uint32(0); j < span; j++ {
			entries[start+j] = X2Entry{
				Sequence: [2]uint8{uint8(e.symbol), 0},
				NbBits:   e.nbBits,
				Length:   1,
			}
		}
	}

	// Where two symbols' combined width still fits under tableLog, replace
	// the single-symbol fill for that sub-range with a fused 2-symbol entry,
	// halving the number of decode iterations needed for that code pair.
	for i, e1 := range syms {
		start1 := codes[i] << (tableLog - e1.nbBits)
		for j, e2 := range syms {
			combined := e1.nbBits + e2.nbBits
			if combined > tableLog {
				continue
			}
			subStart := start1 + codes[j]<<(tableLog-combined)
			subSpan := uint32(1) << (tableLog - combined)
			for k := uint32(0); k < subSpan; k++ {
				entries[subStart+k] = X2Entry{
					Sequence: [2]uint8{uint8(e1.symbol), uint8(e2.symbol)},
					NbBits:   combined,
					Length:   2,
				}
			}
		}
	}

	return &DTableX2{TableLog: tableLog, Entries: entries}, nil
}

func sortByLenThenSymbol2(order []weightedSym) {
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && (order[j].nbBits < order[j-1].nbBits ||
			(order[j].nbBits == order[j-1].nbBits && order[j].symbol < order[j-1].symbol)) {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
}

// DecodeX2 decodes exactly dstLen bytes using a double-symbol table,
// falling back to single-symbol emission for entries with Length==1.
func DecodeX2(dst []byte, src []byte, dt *DTableX2, dstLen int) error {
	r, err := bitio.NewReader(src)
	if err != nil {
		return err
	}
	i := 0
	for i < dstLen {
		idx := r.Peek(uint(dt.TableLog))
		e := dt.Entries[idx]
		if e.NbBits == 0 {
			return zstderrors.ErrCorruption
		}
		dst[i] = e.Sequence[0]
		i++
		if e.Length == 2 {
			if i >= dstLen {
				// Table over-produced relative to the remaining output; this
				// only happens on the final, possibly short, tail.
				r.Advance(uint(e.NbBits))
				break
			}
			dst[i] = e.Sequence[1]
			i++
		}
		r.Advance(uint(e.NbBits))
		if status := r.Reload(); status == bitio.Overflow {
			return zstderrors.ErrCorruption
		}
	}
	return nil
}

// SelectDecoder chooses between the X1 and X2 table layouts (spec.md
// §4.3.6): X2 when dstSize exceeds both cSrcSize and 1 KiB, X1 otherwise.
// This is a simpler rule than the reference HUF_selectDecoder and does not
// reproduce its choices; both layouts decode the same bytes.
func SelectDecoder(dstSize, cSrcSize int) bool {
	if dstSize <= cSrcSize {
		return false
	}
	return uint(dstSize) > (uint(1) << 10)
}
