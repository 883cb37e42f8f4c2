// Package mtcompress implements the multi-worker streaming job scheduler
// (ZSTDMT, spec.md §4.9): splitting a source buffer into overlapping jobs,
// compressing each job's blocks on its own goroutine, threading a single
// serial pass (the content checksum) across jobs in strict order, and
// flushing job output to the caller in strict jobID order regardless of
// which worker finishes first.
//
// This runs the same shape of pipeline used elsewhere for a fixed pool of
// long-lived goroutines pulling work off a channel with replies threaded
// back per caller: a fixed pool of long-lived goroutines pulls work from
// a channel, replies flow back over per-caller channels, and a table of
// outstanding work tracks what's still owed to whom. Here the "caller" is
// always the single submitting goroutine in Compress, and "outstanding
// work" is the jobTable (job.go) with a stronger ordering contract than a
// generic dispatcher needs: ZSTDMT must flush strictly by jobID, not in
// whatever order workers happen to finish.
package mtcompress

import (
	"math/bits"
	"sync"

	"github.com/zstd1/zstdcore/internal/checksum"
	"github.com/zstd1/zstdcore/internal/frame"
)

// Params controls parallel frame compression (spec.md §6.3's nbWorkers,
// jobSize, overlapLog, rsyncable; §4.9 generally).
type Params struct {
	NbWorkers       int
	JobSize         int64 // bytes per job; 0 selects a 4 MiB default
	OverlapLog      int   // [0,9], spec.md §4.9.4
	Rsyncable       bool
	ChecksumFlag    bool
	ContentSizeFlag bool
	DictID          uint32
	BlockSizeMax    int // 0 selects 128 KiB, spec.md §3.2 "Block bound"
}

const (
	minJobSize = 1 << 20 // spec.md §6.3 jobSize lower bound
	maxJobSize = 1 << 30 // spec.md §6.3 jobSize upper bound
	defJobSize = 4 << 20
)

// DefaultParams returns ZSTDMT defaults for an nbWorkers-sized pool.
func DefaultParams(nbWorkers int) Params {
	return Params{
		NbWorkers:       nbWorkers,
		JobSize:         defJobSize,
		OverlapLog:      6,
		ContentSizeFlag: true,
	}
}

func (p Params) clamped() Params {
	if p.NbWorkers < 1 {
		p.NbWorkers = 1
	}
	if p.JobSize == 0 {
		p.JobSize = defJobSize
	}
	if p.JobSize < minJobSize {
		p.JobSize = minJobSize
	}
	if p.JobSize > maxJobSize {
		p.JobSize = maxJobSize
	}
	if p.OverlapLog < 0 {
		p.OverlapLog = 0
	}
	if p.OverlapLog > 9 {
		p.OverlapLog = 9
	}
	if p.BlockSizeMax <= 0 {
		p.BlockSizeMax = 128 * 1024
	}
	return p
}

// overlapSize returns the byte count of history each job shares with its
// predecessor (spec.md §4.9.4: overlapLog 0 => window/256 ... 9 => full
// window). windowSize here is nominal — this module emits literals-only
// blocks and never reaches back across a job boundary for a match — but
// the range is still computed and fed to the round buffer's backpressure
// accounting so Job.PrefixStart is meaningful per spec.md §3.1.
func overlapSize(windowSize int64, overlapLog int) int64 {
	if overlapLog == 0 {
		return windowSize >> 8
	}
	shift := 9 - overlapLog
	return windowSize >> uint(shift)
}

// Compress splits src across p.NbWorkers goroutines and returns one
// complete zstd frame equivalent to frame.CompressFrame(dst, src, ...)
// with the same EncodeParams, for any src and any valid Params (spec.md
// §8.1 "ZSTDMT output-order invariance": nbWorkers=k and nbWorkers=1 must
// decode to the same bytes, though they need not be byte-identical).
func Compress(dst []byte, src []byte, p Params) []byte {
	return compress(dst, src, p.clamped())
}

func compress(dst []byte, src []byte, p Params) []byte {
	if p.BlockSizeMax <= 0 {
		p.BlockSizeMax = 128 * 1024
	}
	if p.NbWorkers < 1 {
		p.NbWorkers = 1
	}
	if p.JobSize <= 0 {
		p.JobSize = defJobSize
	}
	ep := frame.EncodeParams{
		ChecksumFlag:    p.ChecksumFlag,
		ContentSizeFlag: p.ContentSizeFlag,
		BlockSizeMax:    p.BlockSizeMax,
		DictID:          p.DictID,
	}
	dst = frame.EncodeFrameHeader(dst, uint64(len(src)), ep)

	if len(src) == 0 {
		dst = frame.AppendBlockHeader(dst, true, frame.BlockRaw, 0)
		if p.ChecksumFlag {
			dst = frame.AppendChecksumTrailer(dst, checksum.Sum32(nil))
		}
		return dst
	}

	jobs := planJobs(src, p)

	windowSize := int64(p.JobSize) * int64(p.NbWorkers)
	if windowSize < minJobSize {
		windowSize = minJobSize
	}
	rb := newRoundBuffer(windowSize + 2*p.JobSize)
	ss := newSerialState(p.ChecksumFlag)
	jt := newJobTable(p.NbWorkers)
	bp := newBufPool()
	cp := newCctxPool()
	_ = newSeqPool()

	reqCh := make(chan jobRequest)
	var wg sync.WaitGroup
	for i := 0; i < p.NbWorkers; i++ {
		wg.Add(1)
		go worker(reqCh, &wg, ss, bp, cp, p.BlockSizeMax)
	}

	// Feed jobs to the round buffer in order, then dispatch, from a
	// goroutine of its own. Reserve blocks (backpressure) until the flush
	// loop below has Released enough earlier, already flushed jobs to free
	// head room, so dispatch and flush run concurrently; the blocking path
	// is exercised by TestRoundBufferBackpressure.
	results := make(chan jobResult, len(jobs))
	go func() {
		for _, j := range jobs {
			data := src[j.SrcStart:j.SrcEnd]
			rb.Reserve(j.SrcStart, data)
			reqCh <- jobRequest{job: j, src: data, reply: results}
		}
		close(reqCh)
	}()

	flushed := 0
	for flushed < len(jobs) {
		res := <-results
		jt.store(res)
		for {
			next, ok := jt.take(flushed)
			if !ok {
				break
			}
			dst = append(dst, next.payload...)
			bp.put(next.payload)
			rb.Release(jobs[flushed].SrcEnd)
			flushed++
		}
	}
	wg.Wait()

	if p.ChecksumFlag {
		dst = frame.AppendChecksumTrailer(dst, ss.digest())
	}
	return dst
}

type jobRequest struct {
	job   Job
	src   []byte
	reply chan jobResult
}

func worker(reqCh <-chan jobRequest, wg *sync.WaitGroup, ss *serialState, bp *bufPool, cp *cctxPool, blockSizeMax int) {
	defer wg.Done()
	scratch := cp.get()
	defer cp.put(scratch)
	for req := range reqCh {
		payload := encodeJob(bp.get(), req.src, req.job.Last, blockSizeMax, scratch)
		ss.runSerial(req.job.ID, req.src)
		req.reply <- jobResult{id: req.job.ID, payload: payload}
	}
}

// encodeJob emits one block per blockSizeMax chunk of a job's source
// range, exactly as frame.CompressFrame's single-threaded loop does, so a
// multi-worker frame's bytes for any given job are what a single-threaded
// encode would have produced for that same byte range (spec.md §4.9.2
// "compressing").
func encodeJob(dst []byte, src []byte, jobIsLast bool, blockSizeMax int, scratch *[256]uint32) []byte {
	if len(src) == 0 {
		return dst
	}
	for off := 0; off < len(src); off += blockSizeMax {
		end := off + blockSizeMax
		if end > len(src) {
			end = len(src)
		}
		chunk := src[off:end]
		last := jobIsLast && end == len(src)
		dst = frame.EncodeBlockPayloadScratch(dst, chunk, last, scratch)
	}
	return dst
}

// planJobs splits src into Job descriptors. In rsyncable mode, cut points
// are chosen by a rolling hash over the trailing 32 bytes of each
// candidate boundary (spec.md §4.9.5); otherwise jobs are fixed-size
// (last job absorbs the remainder).
func planJobs(src []byte, p Params) []Job {
	var bounds []int64
	if p.Rsyncable {
		bounds = rsyncBoundaries(src, p.JobSize)
	} else {
		for off := int64(0); off < int64(len(src)); off += p.JobSize {
			end := off + p.JobSize
			if end > int64(len(src)) {
				end = int64(len(src))
			}
			bounds = append(bounds, end)
		}
	}

	windowSize := p.JobSize * int64(p.NbWorkers)
	overlap := overlapSize(windowSize, p.OverlapLog)

	jobs := make([]Job, len(bounds))
	start := int64(0)
	for i, end := range bounds {
		prefixStart := start - overlap
		if prefixStart < 0 {
			prefixStart = 0
		}
		jobs[i] = Job{
			ID:            i,
			PrefixStart:   prefixStart,
			SrcStart:      start,
			SrcEnd:        end,
			First:         i == 0,
			Last:          i == len(bounds)-1,
			FullFrameSize: int64(len(src)),
		}
		start = end
	}
	return jobs
}

// rsyncBoundaries returns cut offsets chosen so that, on average, a
// boundary occurs every jobSize bytes, using a hit-mask sized per spec.md
// §4.9.5: "20 + ceil(log2(jobSizeMB))" bits. The window is the trailing 32
// bytes before the candidate cut, updated incrementally (add incoming
// byte, subtract the byte leaving the 32-byte span) so the scan is O(n).
func rsyncBoundaries(src []byte, jobSize int64) []int64 {
	const window = 32
	jobSizeMB := jobSize >> 20
	if jobSizeMB < 1 {
		jobSizeMB = 1
	}
	maskBits := 20 + bits.Len64(uint64(jobSizeMB-1))
	if maskBits > 63 {
		maskBits = 63
	}
	hitMask := uint64(1)<<uint(maskBits) - 1

	var bounds []int64
	var hash uint64
	lastCut := int64(0)
	minLen := jobSize / 2
	maxLen := jobSize * 2

	for i := 0; i < len(src); i++ {
		hash = hash*prime + uint64(src[i])
		if i >= window {
			hash -= uint64(src[i-window]) * pow
		}

		pos := int64(i + 1)
		segLen := pos - lastCut
		if segLen < minLen {
			continue
		}
		if segLen >= maxLen || (hash&hitMask) == hitMask {
			bounds = append(bounds, pos)
			lastCut = pos
			hash = 0
		}
	}
	if lastCut < int64(len(src)) {
		bounds = append(bounds, int64(len(src)))
	}
	if len(bounds) == 0 {
		bounds = append(bounds, int64(len(src)))
	}
	return bounds
}

const prime = 1099511628211

var pow = func() uint64 {
	p := uint64(1)
	for i := 0; i < 32; i++ {
		p *= prime
	}
	return p
}()
