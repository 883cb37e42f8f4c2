package fse

import (
	"encoding/binary"

	"github.com/zstd1/zstdcore/zstderrors"
)

// The NCount header is a forward little-endian bitstream (unlike the
// symbol payload, which runs through the reverse reservoir in package
// bitio). Both sides accumulate through a 32-bit window flushed 16 bits
// at a time, following the reference layout so the encoding stays
// bit-exact.

// WriteNCountBound returns the worst-case byte length of a serialized
// NCount header for the given alphabet/tableLog, per spec.md §4.2.2.
func WriteNCountBound(maxSymbolValue uint32, tableLog uint8) int {
	return int((uint64(maxSymbolValue+1)*uint64(tableLog))/8) + 3
}

// WriteNCount serializes normalized counts using the threshold-and-remaining
// variable-bit encoding described in spec.md §4.2.2: each count is written
// as count+1 so the -1 lowprob sentinel encodes as 0, values below the
// current "max" bound take one bit fewer, and runs of zeros collapse into
// 2-bit repeat codes (with a 0xFFFF escape covering 24 at a time).
func WriteNCount(dst []byte, norm []int16, tableLog uint8) ([]byte, error) {
	if tableLog > MaxTableLog {
		return nil, zstderrors.ErrTableLogTooLarge
	}
	if tableLog < MinTableLog {
		return nil, zstderrors.ErrGeneric
	}

	var (
		bitStream uint32
		bitCount  int
	)
	out := dst

	flush16 := func() {
		out = append(out, byte(bitStream), byte(bitStream>>8))
		bitStream >>= 16
		bitCount -= 16
	}

	bitStream |= uint32(tableLog-MinTableLog) << bitCount
	bitCount += 4

	tableSize := 1 << tableLog
	remaining := tableSize + 1 // +1 for extra accuracy
	threshold := tableSize
	nbBits := int(tableLog) + 1
	alphabetSize := len(norm)
	symbol := 0
	previousIs0 := false

	for symbol < alphabetSize && remaining > 1 {
		if previousIs0 {
			start := symbol
			for symbol < alphabetSize && norm[symbol] == 0 {
				symbol++
			}
			if symbol == alphabetSize {
				return nil, zstderrors.ErrGeneric // distribution never reaches its total
			}
			for symbol >= start+24 {
				start += 24
				// 16 escape bits go in and 16 bits go out, so bitCount
				// stays where it was.
				bitStream |= 0xFFFF << bitCount
				out = append(out, byte(bitStream), byte(bitStream>>8))
				bitStream >>= 16
			}
			for symbol >= start+3 {
				start += 3
				bitStream |= 3 << bitCount
				bitCount += 2
			}
			bitStream |= uint32(symbol-start) << bitCount
			bitCount += 2
			if bitCount > 16 {
				flush16()
			}
		}

		count := int(norm[symbol])
		symbol++
		max := (2*threshold - 1) - remaining
		if count < 0 {
			remaining -= -count
		} else {
			remaining -= count
		}
		count++ // +1 for extra accuracy; the -1 sentinel becomes 0
		if count >= threshold {
			count += max // shift the top range clear of the short codes
		}
		bitStream |= uint32(count) << bitCount
		bitCount += nbBits
		if count < max {
			bitCount-- // short form
		}
		previousIs0 = count == 1
		if remaining < 1 {
			return nil, zstderrors.ErrGeneric
		}
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}

		if bitCount > 16 {
			flush16()
		}
	}

	if remaining != 1 {
		return nil, zstderrors.ErrGeneric // counts don't sum to tableSize
	}
	out = append(out, byte(bitStream), byte(bitStream>>8))
	// Only (bitCount+7)/8 of the trailing pair are real bytes.
	return out[:len(out)-2+(bitCount+7)/8], nil
}

// ReadNCount parses a serialized NCount header, returning the normalized
// counts, tableLog, and number of bytes consumed (spec.md §4.2.2). It is
// the exact mirror of WriteNCount; a stream whose counts fail to land on
// remaining == 1 is corrupt.
func ReadNCount(src []byte, maxSymbolValue uint32) (norm []int16, tableLog uint8, consumed int, err error) {
	if len(src) < 4 {
		// The 32-bit window below needs 4 readable bytes; parse a
		// zero-padded copy, then re-check the consumed size against the
		// real input.
		var buf [4]byte
		copy(buf[:], src)
		norm, tableLog, consumed, err = ReadNCount(buf[:], maxSymbolValue)
		if err != nil {
			return nil, 0, 0, err
		}
		if consumed > len(src) {
			return nil, 0, 0, zstderrors.ErrCorruption
		}
		return norm, tableLog, consumed, nil
	}

	ip := 0
	iend := len(src)
	bitStream := binary.LittleEndian.Uint32(src[ip:])
	nbBits := int(bitStream&0xF) + MinTableLog
	if nbBits > MaxTableLog {
		return nil, 0, 0, zstderrors.ErrTableLogTooLarge
	}
	bitStream >>= 4
	bitCount := 4
	tableLog = uint8(nbBits)
	remaining := (1 << nbBits) + 1
	threshold := 1 << nbBits
	nbBits++

	norm = make([]int16, maxSymbolValue+1)
	charnum := 0
	previous0 := false

	reload32 := func() uint32 {
		if ip+4 <= iend {
			return binary.LittleEndian.Uint32(src[ip:])
		}
		var buf [4]byte
		copy(buf[:], src[ip:])
		return binary.LittleEndian.Uint32(buf[:])
	}

	for remaining > 1 && charnum <= int(maxSymbolValue) {
		if previous0 {
			n0 := charnum
			for bitStream&0xFFFF == 0xFFFF {
				n0 += 24
				if ip < iend-5 {
					ip += 2
					bitStream = reload32() >> bitCount
				} else {
					bitStream >>= 16
					bitCount += 16
				}
			}
			for bitStream&3 == 3 {
				n0 += 3
				bitStream >>= 2
				bitCount += 2
			}
			n0 += int(bitStream & 3)
			bitCount += 2
			if n0 > int(maxSymbolValue) {
				return nil, 0, 0, zstderrors.ErrMaxSymbolValueTooSmall
			}
			for charnum < n0 {
				norm[charnum] = 0
				charnum++
			}
			if ip <= iend-7 || ip+(bitCount>>3) <= iend-4 {
				ip += bitCount >> 3
				bitCount &= 7
				bitStream = reload32() >> bitCount
			} else {
				bitStream >>= 2
			}
		}

		max := (2*threshold - 1) - remaining
		var count int
		if int(bitStream&uint32(threshold-1)) < max {
			count = int(bitStream & uint32(threshold-1))
			bitCount += nbBits - 1
		} else {
			count = int(bitStream & uint32(2*threshold-1))
			if count >= threshold {
				count -= max
			}
			bitCount += nbBits
		}

		count-- // undo the +1; an encoded 0 becomes the -1 lowprob sentinel
		if count < 0 {
			remaining -= -count
		} else {
			remaining -= count
		}
		norm[charnum] = int16(count)
		charnum++
		previous0 = count == 0
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}

		if ip <= iend-7 || ip+(bitCount>>3) <= iend-4 {
			ip += bitCount >> 3
			bitCount &= 7
		} else {
			bitCount -= 8 * (iend - 4 - ip)
			ip = iend - 4
		}
		bitStream = reload32() >> (bitCount & 31)
	}

	if remaining != 1 {
		return nil, 0, 0, zstderrors.ErrCorruption
	}
	if bitCount > 32 {
		return nil, 0, 0, zstderrors.ErrCorruption
	}
	for ; charnum <= int(maxSymbolValue); charnum++ {
		norm[charnum] = 0
	}
	return norm, tableLog, ip + (bitCount+7)>>3, nil
}
