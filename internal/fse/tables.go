// Package fse implements Finite State Entropy (table-driven ANS) coding
// for the sequence descriptors, per spec.md §4.2. Construction mirrors the
// canonical zstd spreading algorithm, with parse/build/execute concerns
// split across files the same way a normalize → build → decode pipeline
// for Huffman code lengths would be organized.
package fse

import "github.com/zstd1/zstdcore/zstderrors"

const (
	MinTableLog = 5
	MaxTableLog = 15

	// DefaultLitLengthLog, DefaultMatchLengthLog, DefaultOffsetLog are the
	// tableLog values of the three Predef distributions (spec.md §3.2).
	DefaultLitLengthLog   = 6
	DefaultMatchLengthLog = 6
	DefaultOffsetLog      = 5
)

// Symbol is a decoded alphabet symbol.
type Symbol = uint8

// DTableEntry is one cell of an FSE decoding table (spec.md §3.1).
type DTableEntry struct {
	Symbol   Symbol
	NbBits   uint8
	NewState uint16
}

// DTable is a complete decoding table plus its header fields.
type DTable struct {
	TableLog uint8
	FastMode bool
	Entries  []DTableEntry
}

// symbolTransform holds the per-symbol encode-side renormalization
// constants (spec.md §4.2.3 step 4).
type symbolTransform struct {
	deltaNbBits    int32
	deltaFindState int32
}

// CTable is a complete encoding table.
type CTable struct {
	TableLog   uint8
	TableSize  uint32
	stateTable []uint16
	symbolTT   []symbolTransform
}

// OptimalTableLog picks tableLog per spec.md §4.2.1.
func OptimalTableLog(maxTableLog uint, srcSize uint64, maxSymbolValue uint32) uint {
	if maxTableLog == 0 || maxTableLog > MaxTableLog {
		maxTableLog = MaxTableLog
	}
	minBitsSrc := bitLen(srcSize-1) - 2
	if srcSize <= 1 {
		minBitsSrc = 1
	}
	minBitsSymbols := bitLen(uint64(maxSymbolValue)) + 2
	minBits := minBitsSrc
	if minBitsSymbols < minBits {
		minBits = minBitsSymbols
	}
	tableLog := maxTableLog
	if minBits < int(tableLog) {
		tableLog = uint(minBits)
	}
	if tableLog < MinTableLog {
		tableLog = MinTableLog
	}
	if tableLog > MaxTableLog {
		tableLog = MaxTableLog
	}
	return tableLog
}

func bitLen(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// BuildDTable builds a decoding table from normalized counts (spec.md
// §4.2.4).
func BuildDTable(norm []int16, tableLog uint8) (*DTable, error) {
	if tableLog > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}
	tableSize := uint32(1) << tableLog
	highThreshold := tableSize - 1

	// The counts must fill the table exactly (spec.md §3.2 "Normalized
	// count sum"): a short or overfull distribution would leave phantom
	// cells or double-place symbols and decode garbage without ever
	// reporting an error.
	weight := uint32(0)
	for _, count := range norm {
		switch {
		case count == -1:
			weight++
		case count > 0:
			weight += uint32(count)
		case count < -1:
			return nil, zstderrors.ErrCorruption
		}
	}
	if weight != tableSize {
		return nil, zstderrors.ErrCorruption
	}

	// Place lowprob (-1) symbols at the high end of the table first.
	symbolNext := make([]uint16, len(norm))
	fastMode := true
	for s, count := range norm {
		if count == -1 {
			symbolNext[s] = 1
		} else if count >= 0 {
			symbolNext[s] = uint16(count)
		}
		if count >= int16(tableSize>>1) {
			fastMode = false
		}
	}

	tableSlot := make([]Symbol, tableSize)
	ht := highThreshold
	for s, count := range norm {
		if count == -1 {
			tableSlot[ht] = Symbol(s)
			ht--
		}
	}

	step := (tableSize >> 1) + (tableSize >> 3) + 3
	mask := tableSize - 1
	pos := uint32(0)
	for s, count := range norm {
		if count <= 0 {
			continue
		}
		for i := int16(0); i < count; i++ {
			tableSlot[pos] = Symbol(s)
			pos = (pos + step) & mask
			for pos > ht {
				pos = (pos + step) & mask
			}
		}
	}

	entries := make([]DTableEntry, tableSize)
	for u := uint32(0); u < tableSize; u++ {
		s := tableSlot[u]
		nextState := symbolNext[s]
		symbolNext[s]++
		nbBits := uint8(tableLog) - uint8(bitLen(uint64(nextState))-1)
		if nextState == 0 {
			nbBits = uint8(tableLog)
		}
		newState := (nextState << nbBits) - uint16(tableSize)
		entries[u] = DTableEntry{Symbol: s, NbBits: nbBits, NewState: newState}
	}

	return &DTable{TableLog: tableLog, FastMode: fastMode, Entries: entries}, nil
}

// BuildCTable builds an encoding table from normalized counts (spec.md
// §4.2.3).
func BuildCTable(norm []int16, tableLog uint8) (*CTable, error) {
	if tableLog > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}
	tableSize := uint32(1) << tableLog
	highThreshold := tableSize - 1

	maxSymbolValue := len(norm) - 1
	cumul := make([]int32, maxSymbolValue+2)
	tableSlot := make([]Symbol, tableSize)

	pos := int32(0)
	for s := 0; s <= maxSymbolValue; s++ {
		if norm[s] == -1 {
			cumul[s] = pos
			pos++
			tableSlot[highThreshold] = Symbol(s)
			highThreshold--
		} else {
			cumul[s] = pos
			pos += int32(norm[s])
		}
	}
	cumul[maxSymbolValue+1] = int32(tableSize)

	step := (tableSize >> 1) + (tableSize >> 3) + 3
	mask := tableSize - 1
	tpos := uint32(0)
	for s := 0; s <= maxSymbolValue; s++ {
		if norm[s] <= 0 {
			continue
		}
		for i := int16(0); i < norm[s]; i++ {
			tableSlot[tpos] = Symbol(s)
			tpos = (tpos + step) & mask
			for tpos > highThreshold {
				tpos = (tpos + step) & mask
			}
		}
	}

	stateTable := make([]uint16, tableSize)
	occupied := make([]int32, maxSymbolValue+2)
	copy(occupied, cumul)
	for u := uint32(0); u < tableSize; u++ {
		s := tableSlot[u]
		stateTable[occupied[s]] = uint16(tableSize) + uint16(u)
		occupied[s]++
	}

	symbolTT := make([]symbolTransform, maxSymbolValue+1)
	total := int32(0)
	for s := 0; s <= maxSymbolValue; s++ {
		switch {
		case norm[s] == 0:
			// never emitted; dummy tableLog+1 cost keeps estimators sane
			symbolTT[s].deltaNbBits = (int32(tableLog+1) << 16) - int32(tableSize)
		case norm[s] == -1 || norm[s] == 1:
			symbolTT[s].deltaNbBits = (int32(tableLog) << 16) - int32(tableSize)
			symbolTT[s].deltaFindState = total - 1
			total++
		default:
			maxBitsOut := uint(tableLog) - uint(bitLen(uint64(norm[s]-1))-1)
			symbolTT[s].deltaNbBits = (int32(maxBitsOut) << 16) - (int32(norm[s]) << maxBitsOut)
			symbolTT[s].deltaFindState = total - int32(norm[s])
			total += int32(norm[s])
		}
	}

	return &CTable{
		TableLog:   tableLog,
		TableSize:  tableSize,
		stateTable: stateTable,
		symbolTT:   symbolTT,
	}, nil
}
