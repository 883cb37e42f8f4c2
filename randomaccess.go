package zstdcore

import (
	"github.com/zstd1/zstdcore/internal/decompressioncache"
)

// NewRandomAccessReader wraps a single magic-prefixed zstd frame in src
// with an io.ReaderAt that decodes lazily and caches what it has already
// produced, so repeated out-of-order reads over the same stream don't
// re-run the entropy decoder from frame start every time (spec.md §4.6
// "Frame State Machine (Decoder)", §4.7 "Streaming Buffering"). The frame
// header must declare its content size.
func NewRandomAccessReader(src []byte) (*decompressioncache.ReaderAt, error) {
	return decompressioncache.New(src)
}
