package seq

import (
	"bytes"
	"testing"
)

func TestRepOffsetsResolveSimpleRepeat(t *testing.T) {
	rep := DefaultRepOffsets()
	off := rep.resolve(1, 5) // repeat offset 1, litLen != 0
	if off != 1 {
		t.Fatalf("expected offset 1, got %d", off)
	}
	if rep[0] != 1 {
		t.Fatalf("rep[0] should remain 1, got %d", rep[0])
	}
}

func TestRepOffsetsResolveLitLenZeroSpecialCase(t *testing.T) {
	rep := DefaultRepOffsets()
	// rawOffset==1 with litLen==0 means "repeat offset 2", per spec.md §4.4.4
	off := rep.resolve(1, 0)
	if off != 4 {
		t.Fatalf("expected offset 4 (repeat-offset-2), got %d", off)
	}
}

func TestRepOffsetsResolveNewOffset(t *testing.T) {
	rep := DefaultRepOffsets()
	off := rep.resolve(10, 3) // rawOffset > 3 => brand new literal offset
	if off != 7 {
		t.Fatalf("expected offset 7, got %d", off)
	}
	if rep[0] != 7 {
		t.Fatalf("new offset should become MRU, got rep[0]=%d", rep[0])
	}
}

func TestExecuteLiteralsOnly(t *testing.T) {
	out, _, err := Execute(nil, []byte("hello"), nil, DefaultRepOffsets())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(out, []byte("hello")) {
		t.Fatalf("got %q, want %q", out, "hello")
	}
}

func TestExecuteSingleMatch(t *testing.T) {
	// "abcabc": literal "abc" then a match copying 3 bytes from offset 3.
	seqs := []Sequence{{LitLen: 3, MatchLen: 3, RawOffset: 6}} // rawOffset 6 -> offset 3
	out, _, err := Execute(nil, []byte("abc"), seqs, DefaultRepOffsets())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(out, []byte("abcabc")) {
		t.Fatalf("got %q, want %q", out, "abcabc")
	}
}

func TestExecuteOverlappingMatch(t *testing.T) {
	// "a" then a match of length 5 at offset 1 should replicate "a" x5.
	seqs := []Sequence{{LitLen: 1, MatchLen: 5, RawOffset: 4}} // rawOffset 4 -> offset 1
	out, _, err := Execute(nil, []byte("a"), seqs, DefaultRepOffsets())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(out, []byte("aaaaaa")) {
		t.Fatalf("got %q, want %q", out, "aaaaaa")
	}
}

func TestParseHeaderSmallCount(t *testing.T) {
	src := []byte{5, 0x90} // 5 sequences, modes byte 0x90 = 10 01 00 00: LL=FSE, OF=RLE
	h, n, err := ParseHeader(src)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if n != 2 {
		t.Fatalf("consumed %d, want 2", n)
	}
	if h.NbSequences != 5 {
		t.Fatalf("NbSequences = %d, want 5", h.NbSequences)
	}
	if h.LLMode != ModeFSE {
		t.Fatalf("LLMode = %v, want FSE", h.LLMode)
	}
}

func TestParseHeaderZeroSequences(t *testing.T) {
	h, n, err := ParseHeader([]byte{0})
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if n != 1 || h.NbSequences != 0 {
		t.Fatalf("got n=%d nbSeq=%d, want 1,0", n, h.NbSequences)
	}
}

func TestDecodeRLEModeSequence(t *testing.T) {
	// All three fields in RLE mode: LL symbol 1 (litLen 1), OF symbol 0
	// (offsetCode 1, the first repeat slot), ML symbol 0 (matchLen 3).
	h := Header{NbSequences: 1, LLMode: ModeRLE, OFMode: ModeRLE, MLMode: ModeRLE}
	tabs, consumed, err := ResolveTables(h, []byte{1, 0, 0}, MaxOFCode, Tables{})
	if err != nil {
		t.Fatalf("ResolveTables: %v", err)
	}
	if consumed != 3 {
		t.Fatalf("consumed %d, want 3", consumed)
	}

	// No symbol carries extra bits, so the bitstream is just the marker.
	seqs, err := Decode([]byte{0x01}, tabs, 1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("decoded %d sequences, want 1", len(seqs))
	}
	s := seqs[0]
	if s.LitLen != 1 || s.MatchLen != 3 || s.RawOffset != 1 {
		t.Fatalf("got %+v, want litLen 1, matchLen 3, rawOffset 1", s)
	}

	out, _, err := Execute(nil, []byte("a"), seqs, DefaultRepOffsets())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !bytes.Equal(out, []byte("aaaa")) {
		t.Fatalf("got %q, want %q", out, "aaaa")
	}
}

func TestDecodeRepeatModeWithoutPriorTableFails(t *testing.T) {
	h := Header{NbSequences: 1, LLMode: ModeRepeat, OFMode: ModeRepeat, MLMode: ModeRepeat}
	if _, _, err := ResolveTables(h, nil, MaxOFCode, Tables{}); err == nil {
		t.Fatal("Repeat mode with no prior table must be rejected")
	}
}
