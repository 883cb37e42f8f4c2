package mtcompress

import "sync"

// Job mirrors spec.md §3.1's Job entity: a (prefix-range, src-range)
// descriptor plus the frame-level flags a worker needs to know whether it
// is writing the first/last job of the stream.
type Job struct {
	ID            int
	PrefixStart   int64
	SrcStart      int64
	SrcEnd        int64
	First         bool
	Last          bool
	FullFrameSize int64
}

func (j Job) srcSize() int64 { return j.SrcEnd - j.SrcStart }

// nextPow2 returns the smallest power of two >= n, n >= 1 (spec.md §4.9.1:
// "A job table sized nextPow2(nbWorkers + 2)").
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// jobTable holds completed-but-not-yet-flushed job results, indexed
// cyclically by jobID & mask, each slot with its own mutex so workers
// finishing out of order never contend with each other (spec.md §4.9.1
// "job table").
type jobTable struct {
	mask  int
	slots []jobSlot
}

type jobSlot struct {
	mu    sync.Mutex
	ready bool
	res   jobResult
}

func newJobTable(nbWorkers int) *jobTable {
	size := nextPow2(nbWorkers + 2)
	return &jobTable{mask: size - 1, slots: make([]jobSlot, size)}
}

func (t *jobTable) store(res jobResult) {
	s := &t.slots[res.id&t.mask]
	s.mu.Lock()
	s.res = res
	s.ready = true
	s.mu.Unlock()
}

// take returns the slot for jobID and clears it, or ok=false if not yet
// stored.
func (t *jobTable) take(jobID int) (jobResult, bool) {
	s := &t.slots[jobID&t.mask]
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return jobResult{}, false
	}
	res := s.res
	s.ready = false
	s.res = jobResult{}
	return res, true
}

type jobResult struct {
	id      int
	payload []byte // encoded blocks for this job's range, no frame header/trailer
	err     error
}

// bufPool and cctxPool are the two reusable-resource pools spec.md §4.9.1
// names: output staging buffers, and per-worker scratch (here, the
// symbol-count histogram BuildCTable needs, which is otherwise a fresh
// allocation per block).
type bufPool struct{ p sync.Pool }

func newBufPool() *bufPool { return &bufPool{} }

func (b *bufPool) get() []byte {
	if v := b.p.Get(); v != nil {
		return v.([]byte)[:0]
	}
	return nil
}

func (b *bufPool) put(buf []byte) { b.p.Put(buf) }

type cctxPool struct{ p sync.Pool }

func newCctxPool() *cctxPool { return &cctxPool{} }

func (c *cctxPool) get() *[256]uint32 {
	if v := c.p.Get(); v != nil {
		a := v.(*[256]uint32)
		*a = [256]uint32{}
		return a
	}
	return new([256]uint32)
}

func (c *cctxPool) put(a *[256]uint32) { c.p.Put(a) }

// seqPool is the long-distance-matcher sequence scratch spec.md §3.1 names
// as part of a Job's shared pools. Match-finding (including the LDM
// pre-pass) is explicitly out of this module's scope (spec.md §1), so this
// pool has no content to scratch-hold; it is kept as a named, documented
// no-op so the Job/pool wiring matches the spec's resource model and a
// future LDM implementation has a clear place to plug in.
type seqPool struct{}

func newSeqPool() *seqPool { return &seqPool{} }
