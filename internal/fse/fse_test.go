package fse

import (
	"bytes"
	"math/rand"
	"testing"
)

func histogram(src []byte) ([]uint32, uint64) {
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
	return count[:maxSym+1], uint64(len(src))
}

func TestNormalizeSumsToTableSize(t *testing.T) {
	srcs := [][]byte{
		bytes.Repeat([]byte("abcabcabd"), 100),
		bytes.Repeat([]byte{0, 0, 0, 0, 0, 0, 0, 1, 2}, 57),
		[]byte("the quick brown fox jumps over the lazy dog, twice over"),
	}
	for _, src := range srcs {
		count, total := histogram(src)
		const tableLog = 6
		norm, err := Normalize(count, total, tableLog)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		sum := 0
		for _, v := range norm {
			if v < 0 {
				sum++
			} else {
				sum += int(v)
			}
		}
		if sum != 1<<tableLog {
			t.Fatalf("sum |norm| = %d, want %d (norm %v)", sum, 1<<tableLog, norm)
		}
		for s, c := range count {
			if c > 0 && norm[s] == 0 {
				t.Fatalf("symbol %d has count %d but norm 0", s, c)
			}
		}
	}
}

func TestNormalizeRLESignal(t *testing.T) {
	count := []uint32{0, 50}
	norm, err := Normalize(count, 50, 6)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if norm != nil {
		t.Fatalf("single-symbol input should signal RLE with a nil norm, got %v", norm)
	}
}

func TestNormalizeRejectsBadTableLog(t *testing.T) {
	if _, err := Normalize([]uint32{1, 1}, 2, MaxTableLog+1); err == nil {
		t.Fatal("expected tableLog rejection")
	}
}

func TestNCountRoundTrip(t *testing.T) {
	cases := [][]byte{
		bytes.Repeat([]byte("abcabcabd"), 100),
		bytes.Repeat([]byte{0, 0, 0, 0, 0, 0, 0, 1, 9}, 57), // zero runs in the alphabet
		bytes.Repeat([]byte("nmlkjihgfedcba"), 30),
	}
	for _, src := range cases {
		count, total := histogram(src)
		const tableLog = 6
		norm, err := Normalize(count, total, tableLog)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		wire, err := WriteNCount(nil, norm, tableLog)
		if err != nil {
			t.Fatalf("WriteNCount: %v", err)
		}
		got, gotLog, consumed, err := ReadNCount(wire, uint32(len(norm)-1))
		if err != nil {
			t.Fatalf("ReadNCount: %v", err)
		}
		if gotLog != tableLog {
			t.Fatalf("tableLog %d, want %d", gotLog, tableLog)
		}
		if consumed != len(wire) {
			t.Fatalf("consumed %d of %d header bytes", consumed, len(wire))
		}
		for s := range norm {
			if got[s] != norm[s] {
				t.Fatalf("norm[%d] = %d, want %d (full: got %v want %v)", s, got[s], norm[s], got, norm)
			}
		}
	}
}

func TestOptimalTableLogBounds(t *testing.T) {
	if got := OptimalTableLog(0, 1<<20, 255); got < MinTableLog || got > MaxTableLog {
		t.Fatalf("tableLog %d out of [%d, %d]", got, MinTableLog, MaxTableLog)
	}
	if got := OptimalTableLog(9, 100, 20); got > 9 {
		t.Fatalf("tableLog %d exceeds requested max 9", got)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	srcs := [][]byte{
		bytes.Repeat([]byte("abcabcabd"), 200),
		bytes.Repeat([]byte("aaaaaaab"), 150), // heavily skewed
		func() []byte {
			rng := rand.New(rand.NewSource(7))
			b := make([]byte, 2000)
			for i := range b {
				b[i] = byte(rng.Intn(8)) // small alphabet
			}
			return b
		}(),
	}
	for i, src := range srcs {
		count, total := histogram(src)
		tableLog := uint8(OptimalTableLog(0, total, uint32(len(count)-1)))
		norm, err := Normalize(count, total, tableLog)
		if err != nil {
			t.Fatalf("case %d: Normalize: %v", i, err)
		}
		if norm == nil {
			t.Fatalf("case %d: unexpected RLE signal", i)
		}
		ct, err := BuildCTable(norm, tableLog)
		if err != nil {
			t.Fatalf("case %d: BuildCTable: %v", i, err)
		}
		encoded, err := Compress(nil, src, ct)
		if err != nil {
			t.Fatalf("case %d: Compress: %v", i, err)
		}
		dt, err := BuildDTable(norm, tableLog)
		if err != nil {
			t.Fatalf("case %d: BuildDTable: %v", i, err)
		}
		out, err := Decompress(nil, encoded, dt, len(src))
		if err != nil {
			t.Fatalf("case %d: Decompress: %v", i, err)
		}
		if !bytes.Equal(out, src) {
			t.Fatalf("case %d: roundtrip mismatch (%d in, %d out)", i, len(src), len(out))
		}
	}
}

func TestDecompressAllRecoversLength(t *testing.T) {
	src := bytes.Repeat([]byte{1, 2, 3, 1, 2, 1, 1, 4}, 40)
	count, total := histogram(src)
	const tableLog = 6
	norm, err := Normalize(count, total, tableLog)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	ct, err := BuildCTable(norm, tableLog)
	if err != nil {
		t.Fatalf("BuildCTable: %v", err)
	}
	encoded, err := Compress(nil, src, ct)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dt, err := BuildDTable(norm, tableLog)
	if err != nil {
		t.Fatalf("BuildDTable: %v", err)
	}
	out, err := DecompressAll(nil, encoded, dt, len(src)+16)
	if err != nil {
		t.Fatalf("DecompressAll: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("mismatch: %d in, %d out", len(src), len(out))
	}
}

func TestBuildDTableFastModeFlag(t *testing.T) {
	// One symbol holding more than half the table disables fast mode.
	norm := []int16{40, 24} // tableLog 6, 40 >= 32
	dt, err := BuildDTable(norm, 6)
	if err != nil {
		t.Fatalf("BuildDTable: %v", err)
	}
	if dt.FastMode {
		t.Fatal("fastMode should be off when a symbol's probability exceeds 1/2")
	}
	norm = []int16{30, 30, 4}
	dt, err = BuildDTable(norm, 6)
	if err != nil {
		t.Fatalf("BuildDTable: %v", err)
	}
	if !dt.FastMode {
		t.Fatal("fastMode should be on for a balanced table")
	}
}
