// Package checksum wraps xxhash64 to produce the 32-bit content checksum a
// frame trailer carries (spec.md §7 "H32"), using the same incremental
// xxhash.Digest.Write idiom as other content-identity hashing in this
// module.
package checksum

import "github.com/cespare/xxhash/v2"

// H32 is an incremental 32-bit checksum accumulator. Internally it runs a
// full 64-bit xxhash digest and folds the result down to 32 bits, matching
// the reference's "truncate the 64-bit xxhash" contract (spec.md treats H32
// as opaque beyond that contract, per the stated Non-goal on the primitive
// itself).
type H32 struct {
	d *xxhash.Digest
}

// New returns a fresh H32 accumulator.
func New() *H32 {
	return &H32{d: xxhash.New()}
}

// Write feeds p into the running digest.
func (h *H32) Write(p []byte) (int, error) {
	return h.d.Write(p)
}

// Sum32 folds the current 64-bit digest down to the low 32 bits, which is
// what a frame's trailing Checksum field stores.
func (h *H32) Sum32() uint32 {
	return uint32(h.d.Sum64())
}

// Sum32 is a one-shot convenience wrapper over New/Write/Sum32.
func Sum32(p []byte) uint32 {
	return uint32(xxhash.Sum64(p))
}
