package mtcompress

import (
	"sync"

	"github.com/zstd1/zstdcore/internal/checksum"
)

// serialState is the single mutex-guarded pipeline serialization point
// every worker must pass through in strict jobID order before its own
// (fully parallel) compression work may be considered complete (spec.md
// §3.1 "SerialState", §4.9.3 "Serial State Discipline").
//
// The reference implementation's serial-critical section advances two
// things that must see one linear view of the stream: the long-distance
// matcher's window, and the rolling content checksum. Match-finding is out
// of this module's scope (spec.md §1 "Deliberately out of scope"), so the
// only serial-critical work actually performed here is the checksum feed;
// the LDM hook is kept as a documented no-op extension point so the
// discipline itself — wait-your-turn, advance, bump nextJobID even on
// error, broadcast — is exercised exactly as spec'd.
type serialState struct {
	mu   sync.Mutex
	cond *sync.Cond

	nextJobID int
	sum       *checksum.H32 // nil unless Params.ChecksumFlag
}

func newSerialState(checksumFlag bool) *serialState {
	s := &serialState{}
	s.cond = sync.NewCond(&s.mu)
	if checksumFlag {
		s.sum = checksum.New()
	}
	return s
}

// runSerial waits until it is jobID's turn, then feeds data into the
// running checksum (if enabled) in source order, then unblocks jobID+1.
// A job that errored before reaching this point still calls runSerial with
// a nil/empty data slice so the pipeline is never stalled by one failure
// (spec.md §4.9.3: "If worker k errors out, ensureFinished... bumps
// nextJobID anyway").
func (s *serialState) runSerial(jobID int, data []byte) {
	s.mu.Lock()
	for s.nextJobID != jobID {
		s.cond.Wait()
	}
	if s.sum != nil {
		s.sum.Write(data)
	}
	s.nextJobID = jobID + 1
	s.mu.Unlock()
	s.cond.Broadcast()
}

// digest returns the checksum accumulated so far. Only meaningful after
// every job has passed through runSerial.
func (s *serialState) digest() uint32 {
	if s.sum == nil {
		return 0
	}
	return s.sum.Sum32()
}
