package huff

import (
	"github.com/zstd1/zstdcore/internal/bitio"
	"github.com/zstd1/zstdcore/zstderrors"
)

// X1Entry is one cell of a single-symbol decode table (spec.md §4.3.4).
type X1Entry struct {
	Symbol uint8
	NbBits uint8
}

// DTableX1 is a flat 2^tableLog table in the classic huffmanChunkBits
// lookup shape: each short code is replicated across every combination
// of trailing bits.
type DTableX1 struct {
	TableLog uint8
	Entries  []X1Entry
}

// BuildDTableX1 builds a single-symbol decode table from per-symbol
// weights (as produced by ReadTable), per spec.md §4.3.4.
func BuildDTableX1(weights []uint8) (*DTableX1, error) {
	tl, err := tableLogFromWeights(weights)
	if err != nil {
		return nil, err
	}
	nbBits := make([]uint8, len(weights))
	maxBits := uint8(0)
	for s, w := range weights {
		if w == 0 {
			continue
		}
		if w > tl {
			return nil, zstderrors.ErrCorruption
		}
		n := tl + 1 - w
		nbBits[s] = n
		if n > maxBits {
			maxBits = n
		}
	}
	if maxBits == 0 || maxBits > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}

	tableSize := uint32(1) << maxBits
	entries := make([]X1Entry, tableSize)

	// Assign canonical codes in increasing-length order, exactly as the
	// CTable side does, then replicate each leaf across its reachable
	// suffixes (spec.md §4.3.4).
	var order []weightedSym
	for s, n := range nbBits {
		if n > 0 {
			order = append(order, weightedSym{s, n})
		}
	}
	sortByLenThenSymbol2(order)

	code := uint32(0)
	prevBits := uint8(0)
	for _, e := range order {
		code <<= (e.nbBits - prevBits)
		prevBits = e.nbBits

		// code occupies the top e.nbBits bits of a maxBits-wide index;
		// replicate across all low (maxBits-e.nbBits) suffix bits.
		start := code << (maxBits - e.nbBits)
		span := uint32(1) << (maxBits - e.nbBits)
		for i := uint32(0); i < span; i++ {
			entries[start+i] = X1Entry{Symbol: uint8(e.symbol), NbBits: e.nbBits}
		}
		code++
	}

	return &DTableX1{TableLog: maxBits, Entries: entries}, nil
}

// tableLogFromWeights recovers the implicit tableLog: the header stores
// w = tableLog+1-nbBits per symbol, and a complete code's weights satisfy
// sum(2^(w-1)) == 2^tableLog, so the log falls out of the Kraft total. A
// total that is not an exact power of two means the weight set cannot
// describe a complete prefix code.
func tableLogFromWeights(weights []uint8) (uint8, error) {
	total := uint32(0)
	for _, w := range weights {
		if w > 0 {
			total += 1 << (w - 1)
		}
	}
	if total == 0 || total&(total-1) != 0 {
		return 0, zstderrors.ErrCorruption
	}
	tl := uint8(0)
	for uint32(1)<<(tl+1) <= total {
		tl++
	}
	if tl == 0 || tl > MaxTableLog {
		return 0, zstderrors.ErrTableLogTooLarge
	}
	return tl, nil
}

// DecodeX1 decodes exactly dstLen bytes from a single bitstream using dt.
func DecodeX1(dst []byte, src []byte, dt *DTableX1, dstLen int) error {
	r, err := bitio.NewReader(src)
	if err != nil {
		return err
	}
	for i := 0; i < dstLen; i++ {
		idx := r.Peek(uint(dt.TableLog))
		e := dt.Entries[idx]
		if e.NbBits == 0 {
			return zstderrors.ErrCorruption
		}
		dst[i] = e.Symbol
		r.Advance(uint(e.NbBits))
		if status := r.Reload(); status == bitio.Overflow {
			return zstderrors.ErrCorruption
		}
	}
	return nil
}
