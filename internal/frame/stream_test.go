package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zstd1/zstdcore/zstderrors"
)

func streamDecodeAll(t *testing.T, d *DCtx, src []byte, outChunk, inChunk int) []byte {
	t.Helper()
	s := NewStreamDCtx(d)
	in := &InBuffer{Src: src}
	var result []byte
	for {
		end := in.Pos + inChunk
		if end > len(src) {
			end = len(src)
		}
		win := &InBuffer{Src: src[:end], Pos: in.Pos}
		out := &OutBuffer{Dst: make([]byte, outChunk)}
		_, err := s.DecompressStream(out, win)
		if err != nil {
			t.Fatalf("DecompressStream: %v", err)
		}
		result = append(result, out.Dst[:out.Pos]...)
		if win.Pos == in.Pos && out.Pos == 0 && end == len(src) {
			break
		}
		in.Pos = win.Pos
	}
	return result
}

func TestStreamingRoundTripSmallBuffers(t *testing.T) {
	src := bytes.Repeat([]byte("streaming decode with tiny buffers, one block at a time. "), 400)
	framed := CompressFrame(nil, src, DefaultEncodeParams())

	for _, chunk := range []struct{ out, in int }{{1024, 7}, {64 * 1024, 1}, {37, 4096}} {
		got := streamDecodeAll(t, NewDCtx(), framed, chunk.out, chunk.in)
		if !bytes.Equal(got, src) {
			t.Fatalf("out=%d in=%d: mismatch (%d vs %d bytes)", chunk.out, chunk.in, len(got), len(src))
		}
	}
}

func TestStreamingConcatenatedFramesWithSkippable(t *testing.T) {
	var framed []byte
	framed = CompressFrame(framed, []byte("foo"), DefaultEncodeParams())
	// skippable frame carrying "opaque"
	framed = append(framed, 0x53, 0x2A, 0x4D, 0x18, 6, 0, 0, 0)
	framed = append(framed, []byte("opaque")...)
	framed = CompressFrame(framed, []byte("bar"), DefaultEncodeParams())

	d := NewDCtx()
	got := streamDecodeAll(t, d, framed, 64, 5)
	if !bytes.Equal(got, []byte("foobar")) {
		t.Fatalf("got %q, want %q", got, "foobar")
	}
	if len(d.SkippableFrames) != 1 || d.SkippableFrames[0].Magic&0xF != 3 {
		t.Fatalf("skippable frame not surfaced: %+v", d.SkippableFrames)
	}
}

func TestStreamingChecksumVerified(t *testing.T) {
	p := DefaultEncodeParams()
	p.ChecksumFlag = true
	src := bytes.Repeat([]byte("checksummed"), 100)
	framed := CompressFrame(nil, src, p)

	got := streamDecodeAll(t, NewDCtx(), framed, 4096, 11)
	if !bytes.Equal(got, src) {
		t.Fatal("round trip mismatch")
	}

	// Corrupt the 4-byte trailer: the decoder must notice.
	bad := append([]byte(nil), framed...)
	bad[len(bad)-1] ^= 0xFF
	s := NewStreamDCtx(NewDCtx())
	in := &InBuffer{Src: bad}
	var err error
	for in.Pos < len(bad) {
		out := &OutBuffer{Dst: make([]byte, 4096)}
		if _, err = s.DecompressStream(out, in); err != nil {
			break
		}
	}
	if !errors.Is(err, zstderrors.ErrChecksumWrong) {
		t.Fatalf("expected ErrChecksumWrong, got %v", err)
	}
}

func TestStreamingNoForwardProgressGuard(t *testing.T) {
	s := NewStreamDCtx(NewDCtx())
	var err error
	for i := 0; i < 20; i++ {
		in := &InBuffer{}
		out := &OutBuffer{}
		if _, err = s.DecompressStream(out, in); err != nil {
			break
		}
	}
	if !errors.Is(err, zstderrors.ErrSrcSizeWrong) {
		t.Fatalf("expected ErrSrcSizeWrong after 16 stalled calls, got %v", err)
	}
}

func TestStreamingWindowTooLarge(t *testing.T) {
	// Hand-build a header declaring windowLog 30 (> default max 27): FHD
	// with no single-segment flag, window descriptor byte (30-10)<<3.
	src := []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00, byte(20 << 3), 0x01, 0x00, 0x00}
	s := NewStreamDCtx(NewDCtx())
	in := &InBuffer{Src: src}
	out := &OutBuffer{Dst: make([]byte, 16)}
	_, err := s.DecompressStream(out, in)
	if !errors.Is(err, zstderrors.ErrWindowTooLarge) {
		t.Fatalf("expected ErrWindowTooLarge, got %v", err)
	}
}

func TestStreamingMagicless(t *testing.T) {
	src := []byte("magicless framing")
	framed := CompressFrame(nil, src, DefaultEncodeParams())

	d := NewDCtx()
	d.Params.Magicless = true
	got := streamDecodeAll(t, d, framed[4:], 64, 64)
	if !bytes.Equal(got, src) {
		t.Fatalf("got %q, want %q", got, src)
	}
}

func TestDecodingBufferSizeMin(t *testing.T) {
	// Capped by frameContentSize when the frame is smaller than a window.
	if got := DecodingBufferSizeMin(1<<20, 100); got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
	win := uint64(1 << 17)
	want := win + 128*1024 + 2*wildcopyOverlength
	if got := DecodingBufferSizeMin(win, 1<<30); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
