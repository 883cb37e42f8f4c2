package huff

import (
	"bytes"
	"testing"
)

func histogram(src []byte) []uint32 {
	var count [256]uint32
	for _, b := range src {
		count[b]++
	}
	maxSym := 0
	for s, c := range count {
		if c > 0 {
			maxSym = s
		}
	}
	return count[:maxSym+1]
}

func TestBuildCTableSingleSymbol(t *testing.T) {
	ct, err := BuildCTable([]uint32{0, 5}, DefaultTableLog)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	if ct.NbBits[1] != 1 {
		t.Fatalf("expected 1 bit for sole symbol, got %d", ct.NbBits[1])
	}
}

func TestBuildCTableRespectsMaxNbBits(t *testing.T) {
	src := bytes.Repeat([]byte{0}, 1000)
	src = append(src, 1, 2, 3, 4, 5)
	ct, err := BuildCTable(histogram(src), 6)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	if ct.MaxNbBits() > 6 {
		t.Fatalf("code length %d exceeds cap 6", ct.MaxNbBits())
	}
}

func TestWriteReadTableDirectForm(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog")
	ct, err := BuildCTable(histogram(src), DefaultTableLog)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	hdr, err := WriteTable(ct)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	weights, consumed, err := ReadTable(hdr)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if consumed != len(hdr) {
		t.Fatalf("consumed %d, want %d", consumed, len(hdr))
	}
	want := weightsFromTable(ct, ct.MaxNbBits())
	if len(weights) != len(want) {
		t.Fatalf("weight count mismatch: got %d want %d", len(weights), len(want))
	}
	for i := range want {
		if weights[i] != want[i] {
			t.Fatalf("weight[%d] = %d, want %d", i, weights[i], want[i])
		}
	}
}

func TestCompressDecompress1X(t *testing.T) {
	src := []byte("abracadabra abracadabra abracadabra")
	ct, err := BuildCTable(histogram(src), DefaultTableLog)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	encoded, err := Compress1X(nil, src, ct)
	if err != nil {
		t.Fatalf("Compress1X: %v", err)
	}
	weights := weightsFromTable(ct, ct.MaxNbBits())
	dt, err := BuildDTableX1(weights)
	if err != nil {
		t.Fatalf("BuildDTableX1: %v", err)
	}
	out := make([]byte, len(src))
	if err := DecodeX1(out, encoded, dt, len(src)); err != nil {
		t.Fatalf("DecodeX1: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("roundtrip mismatch: got %q want %q", out, src)
	}
}

func TestCompressDecompress4X(t *testing.T) {
	src := bytes.Repeat([]byte("mississippi river "), 20)
	ct, err := BuildCTable(histogram(src), DefaultTableLog)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	encoded, err := Compress4X(nil, src, ct)
	if err != nil {
		t.Fatalf("Compress4X: %v", err)
	}
	weights := weightsFromTable(ct, ct.MaxNbBits())
	out, err := Decompress4X(nil, encoded, weights, len(src))
	if err != nil {
		t.Fatalf("Decompress4X: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("roundtrip mismatch: got %q want %q", out, src)
	}
}

func TestSelectDecoder(t *testing.T) {
	if SelectDecoder(100, 200) {
		t.Fatal("expected X1 when dst is not larger than src")
	}
	if !SelectDecoder(1<<20, 1<<16) {
		t.Fatal("expected X2 for a large, well-compressed block")
	}
}
