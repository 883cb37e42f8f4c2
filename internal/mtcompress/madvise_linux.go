//go:build linux

package mtcompress

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

var pageSize = int64(os.Getpagesize())

// adviseDontNeed tells the kernel the given slice's pages won't be read
// again before being overwritten, so they can be dropped under memory
// pressure. Only whole pages strictly inside the slice are advised; the
// ragged edges stay resident because they may share a page with live
// bytes. Errors are ignored — this is a hint, and a buffer too small to
// contain a full page simply gets no advice.
func adviseDontNeed(b []byte) {
	if len(b) == 0 {
		return
	}
	start := (int64(uintptrOf(b)) + pageSize - 1) &^ (pageSize - 1)
	end := (int64(uintptrOf(b)) + int64(len(b))) &^ (pageSize - 1)
	if end <= start {
		return
	}
	off := start - int64(uintptrOf(b))
	unix.Madvise(b[off:off+(end-start)], unix.MADV_DONTNEED)
}

func uintptrOf(b []byte) uintptr { return uintptr(unsafe.Pointer(&b[0])) }
