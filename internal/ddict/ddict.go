// Package ddict implements decoder-side dictionary loading (spec.md
// §4.8): raw-vs-structured detection, the structured dictionary's
// precomputed entropy tables and initial repcodes, and a tinylfu-backed
// cache keyed by dictID so a long-running process doesn't re-parse the
// same dictionary on every attach.
package ddict

import (
	"encoding/binary"
	"hash/maphash"

	tinylfu "github.com/dgryski/go-tinylfu"

	"github.com/zstd1/zstdcore/internal/frame"
	"github.com/zstd1/zstdcore/internal/fse"
	"github.com/zstd1/zstdcore/internal/huff"
	"github.com/zstd1/zstdcore/internal/seq"
	"github.com/zstd1/zstdcore/zstderrors"
)

// minDictSize is the smallest buffer the structured-dictionary magic
// check is even attempted against; anything shorter is always raw content
// (spec.md §4.8 "Detection").
const minDictSize = 8

// DDict is a loaded, parsed dictionary ready to attach to a decoder
// context. A raw dictionary has a zero-value Entropy and its whole buffer
// as Content; a structured dictionary carries precomputed Huffman/FSE
// tables and repcodes besides.
type DDict struct {
	DictID     uint32
	Structured bool
	Entropy    frame.EntropyState
	Content    []byte
}

// ToAttached projects a DDict into the narrower view the frame decoder
// consumes.
func (d *DDict) ToAttached() *frame.AttachedDict {
	return &frame.AttachedDict{
		DictID:  d.DictID,
		Entropy: d.Entropy,
		Content: d.Content,
	}
}

// Load detects whether buf is a raw or structured dictionary and parses
// it accordingly (spec.md §4.8). byRef keeps the returned DDict's Content
// aliasing buf; otherwise buf is copied so the caller's buffer can be
// reused or discarded.
func Load(buf []byte, byRef bool) (*DDict, error) {
	if !byRef {
		buf = append([]byte(nil), buf...)
	}

	if len(buf) < minDictSize || binary.LittleEndian.Uint32(buf) != frame.DictMagicNumber {
		return &DDict{Content: buf}, nil
	}
	return loadStructured(buf)
}

// loadStructured implements the five-step structured DDict load (spec.md
// §4.8 "Structured DDict load"): skip magic, read dictID, parse the
// Huffman literals table, parse the three FSE tables in OF/ML/LL order,
// read three initial repcodes, and treat what remains as extDict content.
func loadStructured(buf []byte) (*DDict, error) {
	pos := 4
	dictID := binary.LittleEndian.Uint32(buf[pos:])
	pos += 4

	weights, n, err := huff.ReadTable(buf[pos:])
	if err != nil {
		return nil, zstderrors.ErrDictionaryCorrupted
	}
	pos += n

	of, n, err := readFSEDTable(buf[pos:], seq.MaxOFCode)
	if err != nil {
		return nil, zstderrors.ErrDictionaryCorrupted
	}
	pos += n

	ml, n, err := readFSEDTable(buf[pos:], seq.MaxMLCode)
	if err != nil {
		return nil, zstderrors.ErrDictionaryCorrupted
	}
	pos += n

	ll, n, err := readFSEDTable(buf[pos:], seq.MaxLLCode)
	if err != nil {
		return nil, zstderrors.ErrDictionaryCorrupted
	}
	pos += n

	if len(buf) < pos+12 {
		return nil, zstderrors.ErrDictionaryCorrupted
	}
	content := buf[pos+12:]
	var rep seq.RepOffsets
	for i := 0; i < 3; i++ {
		v := binary.LittleEndian.Uint32(buf[pos+4*i:])
		if v == 0 || uint64(v) > uint64(len(content)) {
			return nil, zstderrors.ErrDictionaryCorrupted
		}
		rep[i] = uint64(v)
	}

	return &DDict{
		DictID:     dictID,
		Structured: true,
		Content:    content,
		Entropy: frame.EntropyState{
			HuffWeights: weights,
			SeqTables:   seq.Tables{LL: ll, OF: of, ML: ml},
			RepOffsets:  rep,
		},
	}, nil
}

// readFSEDTable parses one NCount header and builds its decode table in
// one step, the combination loadStructured needs three times in a row for
// the offset-code, match-length, and literal-length sub-tables (spec.md
// §4.8 step 3).
func readFSEDTable(src []byte, maxSymbol uint32) (*fse.DTable, int, error) {
	norm, tableLog, n, err := fse.ReadNCount(src, maxSymbol)
	if err != nil {
		return nil, 0, err
	}
	dt, err := fse.BuildDTable(norm, tableLog)
	if err != nil {
		return nil, 0, err
	}
	return dt, n, nil
}

// cacheEntry is what the tinylfu cache stores: pointer identity is enough
// since DDicts are treated as immutable once loaded.
type cacheEntry = *DDict

var dictHashSeed = maphash.MakeSeed()

func dictHasher(id uint32) uint64 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], id)
	return maphash.Bytes(dictHashSeed, buf[:])
}

// Cache is a bounded, dictID-keyed cache of parsed dictionaries: a
// tinylfu admission policy with a fixed capacity rather than an
// unbounded map, so a process attaching many distinct dictionaries over
// its lifetime doesn't grow without limit.
type Cache struct {
	t *tinylfu.T[uint32, cacheEntry]
}

// NewCache returns a Cache admitting up to size distinct dictionaries.
func NewCache(size int) *Cache {
	return &Cache{t: tinylfu.New[uint32, cacheEntry](size, size*10, dictHasher)}
}

// Get returns the cached dictionary for id, or nil if absent.
func (c *Cache) Get(id uint32) *DDict {
	v, ok := c.t.Get(id)
	if !ok {
		return nil
	}
	return v
}

// Put inserts d under its own DictID.
func (c *Cache) Put(d *DDict) {
	c.t.Add(d.DictID, d)
}

// LoadCached loads buf (as Load does) unless a dictionary with the same
// leading dictID is already cached, in which case the cached copy is
// returned and buf is not reparsed. The dictID is read directly off buf
// rather than trusting the cache key, since a raw dictionary has no
// embedded ID to check against.
func (c *Cache) LoadCached(buf []byte, byRef bool) (*DDict, error) {
	if len(buf) >= minDictSize && binary.LittleEndian.Uint32(buf) == frame.DictMagicNumber {
		id := binary.LittleEndian.Uint32(buf[4:])
		if d := c.Get(id); d != nil {
			return d, nil
		}
	}
	d, err := Load(buf, byRef)
	if err != nil {
		return nil, err
	}
	if d.Structured {
		c.Put(d)
	}
	return d, nil
}
