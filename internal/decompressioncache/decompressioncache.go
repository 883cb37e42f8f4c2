// Package decompressioncache turns the forward-only zstd frame decoder
// into an io.ReaderAt. A frame can only be decoded front to back, so the
// reader keeps one live streaming-decode cursor and serves random reads
// chunk by chunk: each 128 KiB slice of decoded output is cached in a
// process-wide bigcache under its chunk index, and a read either hits the
// cache or drives the cursor forward to produce the missing chunk. If the
// cache has evicted a chunk the cursor already passed, the cursor rewinds
// to the frame start and re-decodes forward — the cost of a miss is
// bounded by how far into the frame the evicted chunk sat.
package decompressioncache

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"

	"github.com/zstd1/zstdcore/internal/frame"
)

// chunkSize is the decoded span each cache entry covers: one maximum
// block's worth of output, so a chunk boundary never splits more blocks
// than it has to and a single block decode never spans three chunks.
const chunkSize = 128 * 1024

// ReaderAt serves out-of-order reads over one magic-prefixed zstd frame.
// Not safe for concurrent use: it owns a single decode cursor.
type ReaderAt struct {
	uniq uint64
	src  []byte
	size int64

	sdctx   *frame.StreamDCtx
	in      *frame.InBuffer
	decoded int64 // decoded bytes the cursor has produced so far
}

// New prepares a ReaderAt over src, which must hold one complete frame
// whose header declares its content size (the reader needs Size before
// decoding anything).
func New(src []byte) (*ReaderAt, error) {
	size, err := frame.PeekContentSize(src)
	if err != nil {
		return nil, err
	}
	r := &ReaderAt{
		uniq: atomic.AddUint64(&readerSeq, 1),
		src:  src,
		size: int64(size),
	}
	r.rewind()
	return r, nil
}

// Size returns the frame's declared decoded length.
func (r *ReaderAt) Size() int64 {
	return r.size
}

func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	atEnd := off+int64(len(p)) >= r.size
	if atEnd {
		p = p[:r.size-off]
	}

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		blob, err := r.chunk(pos / chunkSize)
		if err != nil {
			return n, err
		}
		cut := int(pos % chunkSize)
		if cut >= len(blob) {
			return n, io.ErrUnexpectedEOF // frame ended short of its declared size
		}
		n += copy(p[n:], blob[cut:])
	}
	if atEnd {
		return n, io.EOF
	}
	return n, nil
}

// chunk returns the decoded bytes of chunk idx, from cache if warm,
// otherwise by stepping the cursor (rewinding first if it is already past
// idx).
func (r *ReaderAt) chunk(idx int64) ([]byte, error) {
	if blob, err := chunkCache.Get(chunkKey(r.uniq, idx)); err == nil {
		return blob, nil
	}
	if r.decoded > idx*chunkSize {
		r.rewind()
	}
	for {
		blob, err := r.step()
		if err != nil {
			return nil, err
		}
		if r.decoded > idx*chunkSize {
			return blob, nil
		}
	}
}

// rewind restarts the decode cursor at the frame's first byte.
func (r *ReaderAt) rewind() {
	r.sdctx = frame.NewStreamDCtx(frame.NewDCtx())
	r.in = &frame.InBuffer{Src: r.src}
	r.decoded = 0
}

// step decodes the next chunk (the cursor is always chunk-aligned except
// after the frame's final, possibly short, chunk), caches it, and
// advances the cursor.
func (r *ReaderAt) step() ([]byte, error) {
	idx := r.decoded / chunkSize
	chunk := make([]byte, chunkSize)
	out := &frame.OutBuffer{Dst: chunk}
	for out.Pos < len(chunk) {
		before, beforeIn := out.Pos, r.in.Pos
		if _, err := r.sdctx.DecompressStream(out, r.in); err != nil {
			return nil, err
		}
		if out.Pos == before && r.in.Pos == beforeIn {
			break // frame exhausted with nothing left to flush
		}
	}
	if out.Pos == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	blob := chunk[:out.Pos]
	chunkCache.Set(chunkKey(r.uniq, idx), blob)
	r.decoded += int64(out.Pos)
	return blob, nil
}

var readerSeq uint64

// chunkCache holds decoded chunks across every ReaderAt in the process,
// bounded so a long scan over many frames cannot hold every decoded byte
// resident.
var chunkCache *bigcache.BigCache

func init() {
	c, err := bigcache.New(context.Background(), bigcache.Config{
		HardMaxCacheSize: 512, // megabytes
		Shards:           256,
	})
	if err != nil {
		panic(err)
	}
	chunkCache = c
}

func chunkKey(uniq uint64, idx int64) string {
	return fmt.Sprintf("%d/%d", uniq, idx)
}
