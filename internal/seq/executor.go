package seq

import "github.com/zstd1/zstdcore/zstderrors"

// RepOffsets is the 3-entry repeat-offset LRU carried across sequences
// within a block and reset at frame/block boundaries per spec.md §4.4.4.
type RepOffsets [3]uint64

// DefaultRepOffsets is the initial LRU state at the start of a frame.
func DefaultRepOffsets() RepOffsets { return RepOffsets{1, 4, 8} }

// resolve turns a wire offset code's decoded value into a concrete match
// offset and updates the LRU, applying the litLen==0 special case where
// each repeat code shifts up one slot (1 selects repeat-offset 2, 2 selects
// repeat-offset 3) and 3 selects repeat-offset 1 minus one (spec.md §4.4.4).
func (rep *RepOffsets) resolve(rawOffset uint64, litLen uint32) uint64 {
	if rawOffset > 3 {
		offset := rawOffset - 3
		rep[2] = rep[1]
		rep[1] = rep[0]
		rep[0] = offset
		return offset
	}

	idx := rawOffset
	if litLen == 0 {
		idx++
	}
	var offset uint64
	switch idx {
	case 1:
		offset = rep[0]
	case 2:
		offset = rep[1]
		rep[1] = rep[0]
		rep[0] = offset
	case 3:
		offset = rep[2]
		rep[2] = rep[1]
		rep[1] = rep[0]
		rep[0] = offset
	default: // idx == 4, only reachable when litLen == 0 and rawOffset == 3
		offset = rep[0] - 1
		rep[2] = rep[1]
		rep[1] = rep[0]
		rep[0] = offset
	}
	return offset
}

// wildcopyOverlength is the reference's WILDCOPY_OVERLENGTH allowance
// (spec.md §4.5.2). The executor here copies exact lengths and does not
// use it.
const wildcopyOverlength = 32

// Execute replays sequences against literals, appending to dst (which must
// already hold any previously decoded window content so match offsets can
// reach back into it) and returns the extended buffer. It is ExecuteExtDict
// with an empty prefix, for callers with no dictionary attached.
func Execute(dst []byte, literals []byte, sequences []Sequence, rep RepOffsets) ([]byte, RepOffsets, error) {
	return ExecuteExtDict(dst, nil, literals, sequences, rep)
}

// ExecuteExtDict replays sequences against literals exactly as Execute
// does, except a match offset that reaches further back than dst's current
// length is satisfied out of prefix instead of failing: prefix stands in
// for the extDict segment a loaded dictionary (or an earlier ZSTDMT job's
// overlap window) supplies, conceptually located immediately before dst[0]
// (spec.md §4.5.1 "extDict").
func ExecuteExtDict(dst []byte, prefix []byte, literals []byte, sequences []Sequence, rep RepOffsets) ([]byte, RepOffsets, error) {
	litPos := 0
	for _, s := range sequences {
		if litPos+int(s.LitLen) > len(literals) {
			return nil, rep, zstderrors.ErrCorruption
		}
		dst = append(dst, literals[litPos:litPos+int(s.LitLen)]...)
		litPos += int(s.LitLen)

		offset := rep.resolve(uint64(s.RawOffset), s.LitLen)
		if offset == 0 || offset > uint64(len(dst)+len(prefix)) {
			return nil, rep, zstderrors.ErrCorruption
		}

		if s.MatchLen > 0 {
			matchStart := len(dst) - int(offset)
			if matchStart < 0 {
				dst = copyFromPrefix(dst, prefix, matchStart, int(s.MatchLen))
			} else {
				dst = wildcopy(dst, matchStart, int(s.MatchLen))
			}
		}
	}
	if litPos < len(literals) {
		dst = append(dst, literals[litPos:]...)
	}
	return dst, rep, nil
}

// wildcopy appends n bytes read starting at src (an index into dst itself)
// to the end of dst, byte by byte when the source and destination ranges
// overlap (the offset-less-than-matchLen case a literal memcpy can't
// handle), matching the reference's dec32table/dec64table fallback
// described in spec.md §4.5.2.
func wildcopy(dst []byte, src int, n int) []byte {
	out := len(dst)
	dst = append(dst, make([]byte, n)...)
	if out-src >= n {
		copy(dst[out:out+n], dst[src:src+n])
		return dst
	}
	for i := 0; i < n; i++ {
		dst[out+i] = dst[src+i]
	}
	return dst
}

// copyFromPrefix copies n bytes starting at the negative index src (as
// measured from dst[0], so prefix[len(prefix)+src] is the first byte),
// crossing over into dst itself once the match's tail catches up past
// prefix's end, the same way a match can overlap its own output.
func copyFromPrefix(dst []byte, prefix []byte, src int, n int) []byte {
	prefixPos := len(prefix) + src
	for i := 0; i < n; i++ {
		var b byte
		if prefixPos+i < len(prefix) {
			b = prefix[prefixPos+i]
		} else {
			b = dst[prefixPos+i-len(prefix)]
		}
		dst = append(dst, b)
	}
	return dst
}
