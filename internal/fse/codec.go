package fse

import (
	"github.com/zstd1/zstdcore/internal/bitio"
	"github.com/zstd1/zstdcore/zstderrors"
)

// CState is one of the two interleaved encoder states (spec.md §4.2.5).
type CState struct {
	value uint32
	ct    *CTable
}

// InitCState seeds state to the smallest legal state for symbol, per the
// reference FSE_initCState2 (spec.md §4.2.3 "initCState2").
func (s *CState) InitCState(ct *CTable, symbol Symbol) {
	s.ct = ct
	tt := ct.symbolTT[symbol]
	nbBitsOut := uint32(tt.deltaNbBits+(1<<15)) >> 16
	value := (nbBitsOut << 16) - uint32(tt.deltaNbBits)
	idx := int32(value>>nbBitsOut) + tt.deltaFindState
	s.value = uint32(ct.stateTable[idx])
}

// Encode emits symbol's bits into w and advances state (spec.md §4.2.3).
func (s *CState) Encode(w *bitio.Writer, symbol Symbol) {
	tt := s.ct.symbolTT[symbol]
	nbBitsOut := (uint32(int32(s.value) + tt.deltaNbBits)) >> 16
	w.AddBits(s.value, uint(nbBitsOut))
	idx := int32(s.value>>nbBitsOut) + tt.deltaFindState
	s.value = uint32(s.ct.stateTable[idx])
}

// Flush writes the final tableLog bits of state (spec.md §4.2.5).
func (s *CState) Flush(w *bitio.Writer) {
	w.AddBits(s.value-s.ct.TableSize, uint(s.ct.TableLog))
}

// DState is an active decoder state.
type DState struct {
	state DTableEntry
	dt    *DTable
}

// InitDState reads tableLog bits to seed state (spec.md §4.2.5).
func (s *DState) InitDState(dt *DTable, r *bitio.Reader) {
	s.dt = dt
	idx := r.ReadBits(uint(dt.TableLog))
	s.state = dt.Entries[idx]
}

// PeekSymbol returns the symbol the current state resolves to without
// consuming any bits. The sequence decoder reads all three states'
// symbols (and their extra-bit fields) before any state advances, so the
// peek and the update are split operations there (spec.md §4.4).
func (s *DState) PeekSymbol() Symbol { return s.state.Symbol }

// Update advances the state past the current symbol, consuming its
// transition bits.
func (s *DState) Update(r *bitio.Reader) {
	lowBits := r.ReadBits(uint(s.state.NbBits))
	s.state = s.dt.Entries[s.state.NewState+uint16(lowBits)]
}

// DecodeSymbol returns the current symbol and advances state.
func (s *DState) DecodeSymbol(r *bitio.Reader) Symbol {
	sym := s.state.Symbol
	lowBits := r.ReadBits(uint(s.state.NbBits))
	s.state = s.dt.Entries[s.state.NewState+uint16(lowBits)]
	return sym
}

// DecodeSymbolFast is DecodeSymbol assuming FastMode (NbBits always >= 1).
func (s *DState) DecodeSymbolFast(r *bitio.Reader) Symbol {
	sym := s.state.Symbol
	lowBits := r.ReadBitsFast(uint(s.state.NbBits))
	s.state = s.dt.Entries[s.state.NewState+uint16(lowBits)]
	return sym
}

// Decompress decodes nbSymbols symbols from src into dst using dt,
// interleaving two states exactly as spec.md §4.2.5 describes. A reload
// that reports overflow is corruption; once nbSymbols symbols are out it
// stops, without checking that the reservoir is drained or what values
// the two states end on.
func Decompress(dst []byte, src []byte, dt *DTable, nbSymbols int) ([]byte, error) {
	r, err := bitio.NewReader(src)
	if err != nil {
		return nil, err
	}
	var s1, s2 DState
	s1.InitDState(dt, r)
	s2.InitDState(dt, r)

	for i := 0; i < nbSymbols; i += 2 {
		dst = append(dst, s1.DecodeSymbol(r))
		if i+1 >= nbSymbols {
			break
		}
		dst = append(dst, s2.DecodeSymbol(r))
		if i+2 >= nbSymbols {
			// The final pops read the never-written seed-state bits; a
			// reload here would misreport that as overflow.
			break
		}
		if status := r.Reload(); status == bitio.Overflow {
			return nil, zstderrors.ErrCorruption
		}
	}
	return dst, nil
}

// DecompressAll decodes symbols until the bit reservoir reports the stream
// is exhausted, for callers (like the Huffman weight header) that do not
// carry an explicit symbol count on the wire and instead rely on the
// bitstream's own termination marker.
func DecompressAll(dst []byte, src []byte, dt *DTable, maxSymbols int) ([]byte, error) {
	r, err := bitio.NewReader(src)
	if err != nil {
		return nil, err
	}
	var s1, s2 DState
	s1.InitDState(dt, r)
	s2.InitDState(dt, r)

	// Termination mirrors the reference's tail loop: a state pop that
	// pushes the consumed-bit count past the marker means the other state
	// is sitting on the stream's true final symbol — its seed — which is
	// emitted without touching the reservoir again.
	for {
		if len(dst) > maxSymbols {
			return nil, zstderrors.ErrCorruption
		}
		dst = append(dst, s1.DecodeSymbol(r))
		if r.Reload() == bitio.Overflow {
			return append(dst, s2.PeekSymbol()), nil
		}
		if len(dst) > maxSymbols {
			return nil, zstderrors.ErrCorruption
		}
		dst = append(dst, s2.DecodeSymbol(r))
		if r.Reload() == bitio.Overflow {
			return append(dst, s1.PeekSymbol()), nil
		}
	}
}

// Compress encodes src into dst using ct, writing two interleaved states
// (spec.md §4.2.5), most recent symbol first as required by the
// reverse-read decoder. The init/flush discipline mirrors the reference
// exactly: for an even length state 2 is seeded from the final symbol, for
// an odd length state 1 is (and encodes one extra symbol up front), and
// state 2 is always flushed first, so the decoder's state 1 (the first it
// initializes off the marker) lands on the even output positions.
func Compress(dst []byte, src []byte, ct *CTable) ([]byte, error) {
	if len(src) <= 2 {
		return nil, zstderrors.ErrSrcSizeWrong // too short to seed two states
	}
	buf := make([]byte, 0, len(src)+16)
	w, err := bitio.NewWriter(buf[:0:cap(buf)])
	if err != nil {
		return nil, err
	}

	i := len(src)
	var s1, s2 CState
	if i&1 == 1 {
		s1.InitCState(ct, Symbol(src[i-1]))
		s2.InitCState(ct, Symbol(src[i-2]))
		s1.Encode(w, Symbol(src[i-3]))
		w.FlushBits()
		i -= 3
	} else {
		s2.InitCState(ct, Symbol(src[i-1]))
		s1.InitCState(ct, Symbol(src[i-2]))
		i -= 2
	}

	for ; i >= 2; i -= 2 {
		s2.Encode(w, Symbol(src[i-1]))
		if !bitio.CanDeferFlush(uint(ct.TableLog)) {
			w.FlushBits()
		}
		s1.Encode(w, Symbol(src[i-2]))
		w.FlushBits()
	}

	s2.Flush(w)
	s1.Flush(w)
	nbytes, err := w.Close()
	if err != nil {
		return nil, err
	}
	return append(dst, w.Bytes()[:nbytes]...), nil
}
