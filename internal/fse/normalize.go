package fse

import "github.com/zstd1/zstdcore/zstderrors"

// rtbTable is the fixed "round-to-beat" tie-break table for low-probability
// symbols, reproduced bit-exactly from the format (spec.md §4.2.1).
var rtbTable = [8]uint32{0, 473195, 504333, 520860, 550000, 700000, 750000, 830000}

// Normalize turns raw counts into normalized counts summing to 2^tableLog,
// per spec.md §4.2.1. Returns (nil, nil) when a symbol occupies the entire
// input (caller should emit RLE instead).
func Normalize(count []uint32, total uint64, tableLog uint8) ([]int16, error) {
	if tableLog < MinTableLog || tableLog > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}
	tableSize := uint64(1) << tableLog

	for _, c := range count {
		if uint64(c) == total && total > 0 {
			return nil, nil // caller emits RLE
		}
	}

	norm := make([]int16, len(count))
	lowThreshold := uint32(total >> tableLog)

	stillToDistribute := int64(tableSize)
	largest, largestNorm := -1, int16(0)

	for s, c := range count {
		if c == 0 {
			continue
		}
		if c <= lowThreshold {
			norm[s] = -1
			stillToDistribute--
			continue
		}
		// proportional share with round-to-nearest; the rtbTable tie-break
		// nudges small probabilities toward the value that costs fewer
		// bits in expectation.
		proba := int16((uint64(c) * tableSize) / total)
		if proba < 1 {
			proba = 1
		}
		rest := (uint64(c) * tableSize) % total
		if int(proba) < len(rtbTable) {
			threshold := uint64(rtbTable[proba]) * total >> 20
			if rest > threshold {
				proba++
			}
		}
		norm[s] = proba
		stillToDistribute -= int64(proba)
		if proba > largestNorm {
			largestNorm = proba
			largest = s
		}
	}

	if largest < 0 {
		return nil, zstderrors.ErrGeneric
	}

	if -stillToDistribute >= int64(norm[largest])>>1 {
		// The correction would gut the largest symbol's share: fall back to
		// the flat+proportional redistribution (spec.md §4.2.1's "M2").
		normalizeM2(count, total, tableSize, lowThreshold, norm)
	} else {
		norm[largest] += int16(stillToDistribute)
	}
	return norm, nil
}

// normalizeM2 is the fallback path described in spec.md §4.2.1 for when the
// residual correction would overshoot the largest symbol's share: every
// surviving symbol gets a floor of 1, then the leftover table slots are
// spread proportionally to the raw counts in 62-bit fixed point, with the
// final symbol absorbing rounding dust so the total stays exact.
func normalizeM2(count []uint32, total uint64, tableSize uint64, lowThreshold uint32, norm []int16) {
	const fixedPointBits = 62
	slots := int64(tableSize)
	var weightTotal uint64
	for s, c := range count {
		if c == 0 {
			continue
		}
		if norm[s] == -1 || c <= lowThreshold {
			norm[s] = -1
			slots--
			continue
		}
		norm[s] = 1
		slots--
		weightTotal += uint64(c)
	}
	if weightTotal == 0 || slots <= 0 {
		return
	}
	remaining := uint64(slots)
	var distributed uint64
	lastIdx := -1
	for s, c := range count {
		if c == 0 || norm[s] == -1 {
			continue
		}
		lastIdx = s
		share := (uint64(c) << fixedPointBits) / weightTotal * remaining >> fixedPointBits
		norm[s] += int16(share)
		distributed += share
	}
	if lastIdx >= 0 && distributed < remaining {
		norm[lastIdx] += int16(remaining - distributed)
	}
}
