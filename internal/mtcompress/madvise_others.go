//go:build !linux

package mtcompress

// adviseDontNeed is a hint only; platforms without a cheap way to drop
// clean anonymous pages do nothing.
func adviseDontNeed(b []byte) {}
