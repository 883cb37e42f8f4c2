package zstdcore

import (
	"fmt"

	"github.com/zstd1/zstdcore/internal/frame"
	"github.com/zstd1/zstdcore/internal/mtcompress"
	"github.com/zstd1/zstdcore/zstderrors"
)

// CCtx is a compression context with sticky parameters: every setter's
// effect persists across Compress2 calls until ResetParams (spec.md §3.3,
// §8.1 "Parameter stickiness"). A CCtx must not be shared between
// goroutines; distinct contexts are independent.
type CCtx struct {
	params EncodeParams
	mt     MTParams
}

// EncodeParams re-exports the frame package's single-threaded encoder
// parameters.
type EncodeParams = frame.EncodeParams

// NewCCtx returns a CCtx holding the standard encoder defaults.
func NewCCtx() *CCtx {
	return &CCtx{
		params: frame.DefaultEncodeParams(),
		mt:     mtcompress.DefaultParams(0),
	}
}

// ResetParams restores every sticky parameter to its default.
func (c *CCtx) ResetParams() {
	c.params = frame.DefaultEncodeParams()
	c.mt = mtcompress.DefaultParams(0)
}

// SetWindowLog records a windowLog; 0 clears it. Out-of-range values
// (spec.md §6.3: [10, 31]) are rejected. The value is not written into
// frames: the encoder always emits single-segment frame headers, which
// carry no window descriptor.
func (c *CCtx) SetWindowLog(windowLog int) error {
	if windowLog != 0 && (windowLog < 10 || windowLog > 31) {
		return fmt.Errorf("%w: windowLog %d not in [10, 31]", zstderrors.ErrParameterOutOfBound, windowLog)
	}
	c.params.WindowLog = uint8(windowLog)
	return nil
}

// SetChecksumFlag toggles the 4-byte content-checksum trailer.
func (c *CCtx) SetChecksumFlag(on bool) {
	c.params.ChecksumFlag = on
	c.mt.ChecksumFlag = on
}

// SetContentSizeFlag toggles writing the frame-content-size header field
// when the input size is known (it always is for this API's whole-buffer
// calls). Default on.
func (c *CCtx) SetContentSizeFlag(on bool) {
	c.params.ContentSizeFlag = on
	c.mt.ContentSizeFlag = on
}

// SetDictID records the dictionary ID to stamp into frame headers, so a
// decoder can check it has the matching dictionary attached. 0 omits the
// field.
func (c *CCtx) SetDictID(id uint32) {
	c.params.DictID = id
	c.mt.DictID = id
}

// SetNbWorkers selects single-threaded compression (0) or the ZSTDMT
// scheduler with that many workers. Bounds per spec.md §6.3: [0, 200].
func (c *CCtx) SetNbWorkers(n int) error {
	if n < 0 || n > 200 {
		return fmt.Errorf("%w: nbWorkers %d not in [0, 200]", zstderrors.ErrParameterOutOfBound, n)
	}
	c.mt.NbWorkers = n
	return nil
}

// SetJobSize sets the per-job byte count for multi-worker compression.
// 0 restores the default; otherwise the value must lie in [1 MiB, 1 GiB].
func (c *CCtx) SetJobSize(size int64) error {
	if size != 0 && (size < 1<<20 || size > 1<<30) {
		return fmt.Errorf("%w: jobSize %d not in [1MiB, 1GiB]", zstderrors.ErrParameterOutOfBound, size)
	}
	if size == 0 {
		size = mtcompress.DefaultParams(c.mt.NbWorkers).JobSize
	}
	c.mt.JobSize = size
	return nil
}

// SetOverlapLog sets how much of the window adjacent jobs share
// (spec.md §4.9.4), range [0, 9].
func (c *CCtx) SetOverlapLog(overlapLog int) error {
	if overlapLog < 0 || overlapLog > 9 {
		return fmt.Errorf("%w: overlapLog %d not in [0, 9]", zstderrors.ErrParameterOutOfBound, overlapLog)
	}
	c.mt.OverlapLog = overlapLog
	return nil
}

// SetRsyncable toggles rolling-hash job cut-points (spec.md §4.9.5). Only
// meaningful with NbWorkers > 0.
func (c *CCtx) SetRsyncable(on bool) {
	c.mt.Rsyncable = on
}

// SetMagicless selects the zstd1_magicless format: the emitted frame is
// the zstd1 frame with the leading 4-byte magic stripped, bit for bit
// (spec.md §8.1 "Format invariance"). Single-threaded frames only.
func (c *CCtx) SetMagicless(on bool) {
	c.params.Magicless = on
}

// Compress2 compresses src into a fresh frame appended to dst using the
// context's sticky parameters, dispatching to the multi-worker scheduler
// when NbWorkers > 0.
func (c *CCtx) Compress2(dst []byte, src []byte) []byte {
	if c.mt.NbWorkers > 0 {
		return mtcompress.Compress(dst, src, c.mt)
	}
	return frame.CompressFrame(dst, src, c.params)
}
