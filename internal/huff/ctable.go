// Package huff implements the canonical-prefix-code (Huffman) coder for
// literals, per spec.md §4.3. The X1/single-symbol decode table layout
// builds a flat "huffmanChunkBits"-wide lookup table with replicated
// entries for short codes — the same trick spec.md §4.3.4 describes for
// X1 tables, just applied here to zstd's code-length cap instead of
// DEFLATE's.
package huff

import (
	"sort"

	"github.com/zstd1/zstdcore/zstderrors"
)

const (
	DefaultTableLog = 11
	MaxTableLog     = 12
)

// CTable is a canonical prefix code: per-symbol (code, nbBits).
type CTable struct {
	MaxSymbolValue int
	Codes          []uint32
	NbBits         []uint8
}

type nodeElt struct {
	weight int
	symbol int
}

// BuildCTable builds a weight-limited canonical Huffman code from a
// histogram (spec.md §4.3.1).
func BuildCTable(count []uint32, maxNbBits uint) (*CTable, error) {
	maxSymbolValue := len(count) - 1

	var elts []nodeElt
	for s, c := range count {
		if c > 0 {
			elts = append(elts, nodeElt{weight: int(c), symbol: s})
		}
	}
	if len(elts) == 0 {
		return nil, zstderrors.ErrGeneric
	}
	if len(elts) == 1 {
		ct := &CTable{MaxSymbolValue: maxSymbolValue, Codes: make([]uint32, maxSymbolValue+1), NbBits: make([]uint8, maxSymbolValue+1)}
		ct.Codes[elts[0].symbol] = 0
		ct.NbBits[elts[0].symbol] = 1
		return ct, nil
	}

	nbBits := huffmanCodeLengths(elts, maxNbBits)

	ct := &CTable{MaxSymbolValue: maxSymbolValue, Codes: make([]uint32, maxSymbolValue+1), NbBits: make([]uint8, maxSymbolValue+1)}
	for _, e := range elts {
		ct.NbBits[e.symbol] = nbBits[e.symbol]
	}
	assignCanonicalCodes(ct, maxSymbolValue)
	return ct, nil
}

// huffmanCodeLengths builds a length-limited Huffman tree via repeated
// pairing of the two lightest nodes (a standard package-merge stand-in),
// then clamps any length exceeding maxNbBits by shifting weight from
// depth d+1 to depth d until the cap holds (spec.md §4.3.1 step 1).
func huffmanCodeLengths(elts []nodeElt, maxNbBits uint) []uint8 {
	type hnode struct {
		weight      int
		left, right *hnode
		symbol      int
		isLeaf      bool
	}
	nodes := make([]*hnode, len(elts))
	for i, e := range elts {
		nodes[i] = &hnode{weight: e.weight, symbol: e.symbol, isLeaf: true}
	}

	for len(nodes) > 1 {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].weight < nodes[j].weight })
		a, b := nodes[0], nodes[1]
		merged := &hnode{weight: a.weight + b.weight, left: a, right: b}
		nodes = append(nodes[2:], merged)
	}

	maxSymbol := 0
	for _, e := range elts {
		if e.symbol > maxSymbol {
			maxSymbol = e.symbol
		}
	}
	depth := make([]uint8, maxSymbol+1)
	var walk func(n *hnode, d uint8)
	walk = func(n *hnode, d uint8) {
		if n.isLeaf {
			depth[n.symbol] = d
			return
		}
		walk(n.left, d+1)
		walk(n.right, d+1)
	}
	if len(nodes) == 1 {
		walk(nodes[0], 0)
	}

	// Clamp to maxNbBits: cap every over-long leaf at the limit, which
	// over-subscribes the code space, then repay the debt by pushing the
	// deepest still-movable leaves one level down. Each deepening of a
	// leaf at depth d frees 2^(maxNbBits-d-1) units of the 2^maxNbBits
	// space; the deepest affordable leaf always exists while debt remains,
	// so the loop lands on an exactly complete code (Kraft sum == 1).
	debt := 0
	for _, e := range elts {
		if depth[e.symbol] > uint8(maxNbBits) {
			depth[e.symbol] = uint8(maxNbBits)
		}
		debt += 1 << (uint(maxNbBits) - uint(depth[e.symbol]))
	}
	debt -= 1 << maxNbBits
	for debt > 0 {
		best := -1
		for _, e := range elts {
			d := depth[e.symbol]
			if d == 0 || d >= uint8(maxNbBits) {
				continue
			}
			if 1<<(uint(maxNbBits)-uint(d)-1) > debt {
				continue
			}
			if best < 0 || d > depth[best] {
				best = e.symbol
			}
		}
		if best < 0 {
			break // complete already; capping freed nothing extra
		}
		debt -= 1 << (uint(maxNbBits) - uint(depth[best]) - 1)
		depth[best]++
	}

	return depth
}

// assignCanonicalCodes derives canonical codes from sorted-by-length
// symbol order (spec.md §4.3.1 step 2).
func assignCanonicalCodes(ct *CTable, maxSymbolValue int) {
	type sv struct {
		symbol int
		nbBits uint8
	}
	var order []sv
	for s := 0; s <= maxSymbolValue; s++ {
		if ct.NbBits[s] > 0 {
			order = append(order, sv{s, ct.NbBits[s]})
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].nbBits != order[j].nbBits {
			return order[i].nbBits < order[j].nbBits
		}
		return order[i].symbol < order[j].symbol
	})

	code := uint32(0)
	prevBits := uint8(0)
	for _, e := range order {
		code <<= (e.nbBits - prevBits)
		ct.Codes[e.symbol] = code
		prevBits = e.nbBits
		code++
	}
}

// MaxNbBits reports the longest code length assigned.
func (ct *CTable) MaxNbBits() uint8 {
	var m uint8
	for _, n := range ct.NbBits {
		if n > m {
			m = n
		}
	}
	return m
}
