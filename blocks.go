package zstdcore

import (
	"github.com/zstd1/zstdcore/internal/frame"
)

// CompressBlock encodes src as a single COMPRESSED-type block body,
// without any frame or block header, for callers managing their own frame
// structure (spec.md §6.2 "Block-level"). The returned body decodes with
// BlockDCtx.DecompressBlock. A nil return means the chunk came out as an
// RLE run, which this headerless surface cannot express; store it raw.
func CompressBlock(dst []byte, src []byte) []byte {
	var count [256]uint32
	body, typ := frame.EncodeBlockBody(src, &count)
	if typ != frame.BlockCompressed {
		return nil
	}
	return append(dst, body...)
}

// BlockDCtx decodes a caller-framed stream of blocks: entropy tables and
// repeat offsets carry across DecompressBlock calls (so Repeat/Treeless
// modes work), and the decoded output accumulates as the match window.
type BlockDCtx struct {
	st frame.EntropyState
}

// NewBlockDCtx returns a BlockDCtx with frame-start entropy state.
func NewBlockDCtx() *BlockDCtx {
	return &BlockDCtx{st: frame.NewEntropyState()}
}

// DecompressBlock decodes one COMPRESSED block body (as produced by
// CompressBlock, or cut out of a foreign frame by the caller), appends the
// output to dst, and folds it into the window for later blocks.
func (b *BlockDCtx) DecompressBlock(dst []byte, block []byte) ([]byte, error) {
	decoded, st, err := frame.DecodeBlock(nil, block, b.st, 31)
	if err != nil {
		return nil, err
	}
	b.st = st
	b.st.Prefix = append(b.st.Prefix, decoded...)
	return append(dst, decoded...), nil
}

// InsertBlock registers already-decoded (or never-compressed) content in
// the decoding window without producing output, mirroring the reference's
// insertBlock: a caller that stored a chunk raw still needs later blocks'
// matches to be able to reach back into it.
func (b *BlockDCtx) InsertBlock(content []byte) {
	b.st.Prefix = append(b.st.Prefix, content...)
}
