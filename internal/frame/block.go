package frame

import (
	"github.com/zstd1/zstdcore/internal/seq"
	"github.com/zstd1/zstdcore/zstderrors"
)

// EntropyState carries everything a block can inherit from its
// predecessor: the Huffman weight table (for Treeless literals) and the
// three FSE decode tables (for Repeat_Mode sequences), reset at the start
// of a frame and whenever a dictionary supplies its own initial state
// (spec.md §4.6 "entropy-table reset rules").
type EntropyState struct {
	HuffWeights []uint8
	SeqTables   seq.Tables
	RepOffsets  seq.RepOffsets

	// Prefix is the dictionary's (or a prior job's) extDict content: match
	// offsets that reach past the start of dst are satisfied from here
	// (spec.md §4.8 "extDict of the next frame").
	Prefix []byte
}

// NewEntropyState returns the entropy state a frame starts with absent a
// dictionary.
func NewEntropyState() EntropyState {
	return EntropyState{RepOffsets: seq.DefaultRepOffsets()}
}

// DecodeBlock decompresses one COMPRESSED block payload, appending the
// result to dst and returning the (possibly updated) entropy state to
// carry into the next block.
func DecodeBlock(dst []byte, payload []byte, st EntropyState, maxOFCode uint32) ([]byte, EntropyState, error) {
	literals, weights, n, err := DecodeLiterals(payload, st.HuffWeights)
	if err != nil {
		return nil, st, err
	}
	st.HuffWeights = weights
	rest := payload[n:]

	seqHeader, hn, err := seq.ParseHeader(rest)
	if err != nil {
		return nil, st, err
	}
	rest = rest[hn:]

	if seqHeader.NbSequences == 0 {
		dst = append(dst, literals...)
		return dst, st, nil
	}

	tabs, tn, err := seq.ResolveTables(seqHeader, rest, maxOFCode, st.SeqTables)
	if err != nil {
		return nil, st, err
	}
	st.SeqTables = tabs
	rest = rest[tn:]

	sequences, err := seq.Decode(rest, tabs, seqHeader.NbSequences)
	if err != nil {
		return nil, st, err
	}

	dst, rep, err := seq.ExecuteExtDict(dst, st.Prefix, literals, sequences, st.RepOffsets)
	if err != nil {
		return nil, st, err
	}
	st.RepOffsets = rep
	return dst, st, nil
}

// DecodeRawBlock appends size bytes verbatim.
func DecodeRawBlock(dst []byte, payload []byte, size uint32) ([]byte, error) {
	if uint32(len(payload)) < size {
		return nil, zstderrors.ErrSrcSizeWrong
	}
	return append(dst, payload[:size]...), nil
}

// DecodeRLEBlock appends a single repeated byte size times.
func DecodeRLEBlock(dst []byte, payload []byte, size uint32) ([]byte, error) {
	if len(payload) < 1 {
		return nil, zstderrors.ErrSrcSizeWrong
	}
	b := payload[0]
	for i := uint32(0); i < size; i++ {
		dst = append(dst, b)
	}
	return dst, nil
}
