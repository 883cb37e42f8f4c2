package zstdcore

import (
	"bytes"
	"testing"
)

func TestRoundTripEmpty(t *testing.T) {
	frame := Compress(nil, nil)
	out, err := Decompress(nil, frame)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %q, want empty", out)
	}
}

func TestRoundTripSmall(t *testing.T) {
	src := []byte("hello, zstd")
	frame := Compress(nil, src)
	out, err := Decompress(nil, frame)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("got %q, want %q", out, src)
	}
}

func TestRoundTripWithChecksum(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50)
	frame := CompressWithChecksum(nil, src)
	out, err := Decompress(nil, frame)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("roundtrip mismatch, lengths %d vs %d", len(out), len(src))
	}
}

func TestRoundTripLargeSkewedAlphabet(t *testing.T) {
	// Heavily skewed byte distribution exercises the Huffman-compressed
	// literals path in frame.EncodeBlockBody.
	src := bytes.Repeat([]byte{'a'}, 5000)
	src = append(src, []byte("a few other bytes to round things out")...)
	frame := Compress(nil, src)
	out, err := Decompress(nil, frame)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("roundtrip mismatch, lengths %d vs %d", len(out), len(src))
	}
}

func TestDictionaryIDMismatchIsRejected(t *testing.T) {
	frameBytes := CompressWithDict(nil, []byte("payload needing a dictionary"), 0x01020304)

	dict, err := LoadDictionary([]byte("some raw dictionary content, long enough"), true)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	dict.DictID = 0x0A0B0C0D // deliberately wrong ID

	d := NewDCtx()
	d.AttachDict(dict.ToAttached(), UseDictIndefinitely)
	if _, err := d.Decompress(nil, frameBytes); err == nil {
		t.Fatal("expected dictionary_wrong for a mismatched dictID")
	}
}

func TestDictionaryIDMatchSucceeds(t *testing.T) {
	src := []byte("payload needing a dictionary")
	frameBytes := CompressWithDict(nil, src, 0x01020304)

	dict, err := LoadDictionary([]byte("some raw dictionary content, long enough"), true)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	dict.DictID = 0x01020304

	d := NewDCtx()
	d.AttachDict(dict.ToAttached(), UseDictOnce)
	out, err := d.Decompress(nil, frameBytes)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("got %q, want %q", out, src)
	}
	if d.Dict != nil {
		t.Fatal("use-once dictionary should be cleared after one frame")
	}
}

func TestDecompressAppendsToExistingDst(t *testing.T) {
	prefix := []byte("prefix:")
	frame := Compress(nil, []byte("payload"))
	out, err := Decompress(append([]byte(nil), prefix...), frame)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, []byte("prefix:payload")) {
		t.Fatalf("got %q", out)
	}
}
