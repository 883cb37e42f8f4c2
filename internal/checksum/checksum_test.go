package checksum

import "testing"

func TestSum32Deterministic(t *testing.T) {
	a := Sum32([]byte("hello"))
	b := Sum32([]byte("hello"))
	if a != b {
		t.Fatalf("Sum32 not deterministic: %d != %d", a, b)
	}
}

func TestH32MatchesSum32(t *testing.T) {
	data := []byte("the quick brown fox")
	h := New()
	h.Write(data[:10])
	h.Write(data[10:])
	if h.Sum32() != Sum32(data) {
		t.Fatalf("incremental H32 disagrees with one-shot Sum32")
	}
}
