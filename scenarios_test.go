package zstdcore

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/zstd1/zstdcore/zstderrors"
)

// The canonical empty frame: magic, FHD 0x20 (single-segment, 1-byte FCS
// of zero), and an empty RAW last block.
func TestEmptyInputCanonicalFrame(t *testing.T) {
	got := Compress(nil, nil)
	want := []byte{0x28, 0xB5, 0x2F, 0xFD, 0x20, 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("empty frame = % X, want % X", got, want)
	}
}

func TestAllSameByteCompressesToRLEBlock(t *testing.T) {
	src := bytes.Repeat([]byte{'A'}, 100000)
	framed := Compress(nil, src)
	if len(framed) > 20 {
		t.Fatalf("uniform input should land in ~a dozen bytes, got %d", len(framed))
	}
	out, err := Decompress(nil, framed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("round trip mismatch: %d bytes out", len(out))
	}
}

func TestConcatenatedFramesWithSkippable(t *testing.T) {
	var stream []byte
	stream = Compress(stream, []byte("foo"))
	stream = append(stream, 0x50, 0x2A, 0x4D, 0x18, 6, 0, 0, 0)
	stream = append(stream, []byte("opaque")...)
	stream = Compress(stream, []byte("bar"))

	d := NewDCtx()
	out, err := d.Decompress(nil, stream)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, []byte("foobar")) {
		t.Fatalf("got %q, want %q", out, "foobar")
	}
	if len(d.SkippableFrames) != 1 {
		t.Fatalf("expected 1 skippable frame, got %d", len(d.SkippableFrames))
	}
}

func TestChecksumCorruptionDetected(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	src := make([]byte, 1<<20)
	for i := range src {
		src[i] = byte(rng.Intn(256))
	}
	framed := CompressWithChecksum(nil, src)

	out, err := Decompress(nil, framed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip mismatch")
	}

	bad := append([]byte(nil), framed...)
	bad[len(bad)-2] ^= 0x01
	if _, err := Decompress(nil, bad); !errors.Is(err, zstderrors.ErrChecksumWrong) {
		t.Fatalf("expected ErrChecksumWrong, got %v", err)
	}
}

func TestCCtxParameterStickiness(t *testing.T) {
	cctx := NewCCtx()
	cctx.SetChecksumFlag(true)

	src := []byte("sticky parameters apply to every later frame")
	frame1 := cctx.Compress2(nil, src)
	frame2 := cctx.Compress2(nil, src)
	if !bytes.Equal(frame1, frame2) {
		t.Fatal("same parameters and input must produce identical frames")
	}
	// checksum flag stayed on: trailer present means a longer frame than a
	// fresh default context produces.
	plain := NewCCtx().Compress2(nil, src)
	if len(frame1) != len(plain)+4 {
		t.Fatalf("expected a 4-byte checksum trailer: %d vs %d", len(frame1), len(plain))
	}

	cctx.ResetParams()
	if got := cctx.Compress2(nil, src); len(got) != len(plain) {
		t.Fatal("ResetParams should drop the checksum flag")
	}
}

func TestCCtxParameterBounds(t *testing.T) {
	cctx := NewCCtx()
	if err := cctx.SetWindowLog(9); !errors.Is(err, zstderrors.ErrParameterOutOfBound) {
		t.Fatalf("windowLog 9: got %v", err)
	}
	if err := cctx.SetNbWorkers(201); !errors.Is(err, zstderrors.ErrParameterOutOfBound) {
		t.Fatalf("nbWorkers 201: got %v", err)
	}
	if err := cctx.SetJobSize(1000); !errors.Is(err, zstderrors.ErrParameterOutOfBound) {
		t.Fatalf("jobSize 1000: got %v", err)
	}
	if err := cctx.SetOverlapLog(10); !errors.Is(err, zstderrors.ErrParameterOutOfBound) {
		t.Fatalf("overlapLog 10: got %v", err)
	}
	if err := cctx.SetWindowLog(0); err != nil {
		t.Fatalf("windowLog 0 selects the default: %v", err)
	}
}

func TestCCtxMultiWorkerDispatch(t *testing.T) {
	cctx := NewCCtx()
	if err := cctx.SetNbWorkers(4); err != nil {
		t.Fatalf("SetNbWorkers: %v", err)
	}
	src := bytes.Repeat([]byte("dispatch through the job scheduler "), 10000)
	framed := cctx.Compress2(nil, src)
	out, err := Decompress(nil, framed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip mismatch")
	}
}

func TestRandomAccessReader(t *testing.T) {
	src := make([]byte, 600000)
	for i := range src {
		src[i] = byte(i % 251)
	}
	framed := Compress(nil, src)

	r, err := NewRandomAccessReader(framed)
	if err != nil {
		t.Fatalf("NewRandomAccessReader: %v", err)
	}
	if r.Size() != int64(len(src)) {
		t.Fatalf("Size = %d, want %d", r.Size(), len(src))
	}

	for _, span := range []struct{ off, n int }{
		{500000, 1000}, {0, 64}, {250000, 4096}, {599000, 1000},
	} {
		buf := make([]byte, span.n)
		n, err := r.ReadAt(buf, int64(span.off))
		if err != nil && err != io.EOF {
			t.Fatalf("ReadAt(%d, %d): %v", span.off, span.n, err)
		}
		if !bytes.Equal(buf[:n], src[span.off:span.off+n]) {
			t.Fatalf("ReadAt(%d, %d): content mismatch", span.off, span.n)
		}
	}
}

// Format invariance (spec.md §8.1): the magicless frame is the zstd1
// frame minus its leading 4 bytes, bit for bit.
func TestMagiclessFormatInvariance(t *testing.T) {
	src := []byte("format invariance, bit for bit")

	withMagic := NewCCtx().Compress2(nil, src)

	cctx := NewCCtx()
	cctx.SetMagicless(true)
	magicless := cctx.Compress2(nil, src)

	if !bytes.Equal(magicless, withMagic[4:]) {
		t.Fatal("magicless frame must equal the zstd1 frame with its magic stripped")
	}

	d := NewDCtx()
	d.Params.Magicless = true
	out, err := d.Decompress(nil, magicless)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("got %q, want %q", out, src)
	}
}

func TestBlockLevelAPI(t *testing.T) {
	chunk1 := bytes.Repeat([]byte("block-level framing, caller managed. "), 100)
	chunk2 := bytes.Repeat([]byte("a second block in the same window. "), 100)

	body1 := CompressBlock(nil, chunk1)
	if body1 == nil {
		t.Fatal("compressible chunk should produce a block body")
	}
	body2 := CompressBlock(nil, chunk2)

	d := NewBlockDCtx()
	out, err := d.DecompressBlock(nil, body1)
	if err != nil {
		t.Fatalf("DecompressBlock: %v", err)
	}
	if !bytes.Equal(out, chunk1) {
		t.Fatal("block 1 mismatch")
	}
	out, err = d.DecompressBlock(nil, body2)
	if err != nil {
		t.Fatalf("DecompressBlock: %v", err)
	}
	if !bytes.Equal(out, chunk2) {
		t.Fatal("block 2 mismatch")
	}
}

func TestBlockLevelInsertBlock(t *testing.T) {
	d := NewBlockDCtx()
	d.InsertBlock([]byte("raw chunk the caller stored uncompressed"))
	body := CompressBlock(nil, bytes.Repeat([]byte("then a compressed one "), 60))
	if body == nil {
		t.Fatal("expected a compressed block body")
	}
	if _, err := d.DecompressBlock(nil, body); err != nil {
		t.Fatalf("DecompressBlock after InsertBlock: %v", err)
	}
}

func TestBlockLevelRLESignal(t *testing.T) {
	if CompressBlock(nil, bytes.Repeat([]byte{'x'}, 5000)) != nil {
		t.Fatal("uniform chunk must be signalled back to the caller, not silently mis-typed")
	}
}
