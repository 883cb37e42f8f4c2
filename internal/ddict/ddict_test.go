package ddict

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/zstd1/zstdcore/internal/frame"
)

func TestLoadRawDictionary(t *testing.T) {
	content := bytes.Repeat([]byte("hello world "), 10)
	d, err := Load(content, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Structured {
		t.Fatal("plain content misclassified as structured")
	}
	if !bytes.Equal(d.Content, content) {
		t.Fatal("raw dictionary content not preserved")
	}
}

func TestLoadShortBufferIsAlwaysRaw(t *testing.T) {
	// Fewer than 8 bytes: always raw, even if it happens to start with
	// the structured magic's first few bytes.
	d, err := Load([]byte{0x37, 0xA4, 0x30}, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Structured {
		t.Fatal("short buffer misclassified as structured")
	}
}

func TestLoadByCopyDoesNotAliasInput(t *testing.T) {
	content := []byte("some dictionary content, long enough to matter")
	d, err := Load(content, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	content[0] = 'X'
	if d.Content[0] == 'X' {
		t.Fatal("byCopy dictionary aliases caller's buffer")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(4)
	d := &DDict{DictID: 42, Structured: true, Content: []byte("abc")}
	c.Put(d)
	got := c.Get(42)
	if got != d {
		t.Fatal("cache did not return the inserted dictionary")
	}
	if c.Get(43) != nil {
		t.Fatal("cache returned a dictionary for an unknown ID")
	}
}

func TestLoadCachedSkipsReparsing(t *testing.T) {
	c := NewCache(4)
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:], 0xEC30A437)
	binary.LittleEndian.PutUint32(buf[4:], 7)

	first := &DDict{DictID: 7, Structured: true, Content: []byte("cached")}
	c.Put(first)

	got, err := c.LoadCached(buf[:], true)
	if err != nil {
		t.Fatalf("LoadCached: %v", err)
	}
	if got != first {
		t.Fatal("LoadCached reparsed instead of returning the cached dictionary")
	}
}

func TestToAttachedProjectsFields(t *testing.T) {
	d := &DDict{DictID: 9, Content: []byte("xyz"), Entropy: frame.EntropyState{}}
	a := d.ToAttached()
	if a.DictID != 9 || string(a.Content) != "xyz" {
		t.Fatalf("unexpected projection: %+v", a)
	}
}
