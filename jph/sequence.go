package jph

import (
	"sort"

	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/tile"
)

// blockRef addresses one code-block inside a tile.
type blockRef struct {
	comp     uint16
	res      uint8
	sb       int // index into the resolution's subband slice
	blk      int
	precinct uint32
}

// blockSequence lists every code-block of a tile in the order its packets
// appear, as fixed by the declared progression. The encoder and decoder
// both walk this sequence, so the layout is deterministic.
func blockSequence(t *tile.Tile, order uint8) []blockRef {
	var refs []blockRef
	for _, comp := range t.Comps {
		for _, res := range comp.Resolutions {
			for sbIdx, sb := range res.Subbands {
				for blkIdx, blk := range sb.Blocks {
					refs = append(refs, blockRef{
						comp:     comp.Index,
						res:      res.Level,
						sb:       sbIdx,
						blk:      blkIdx,
						precinct: blk.Precinct,
					})
				}
			}
		}
	}

	less := func(a, b blockRef) bool {
		switch order {
		case codestream.ProgRPCL:
			return cmpKeys(
				int(a.res), int(b.res),
				int(a.precinct), int(b.precinct),
				int(a.comp), int(b.comp))
		case codestream.ProgPCRL:
			return cmpKeys(
				int(a.precinct), int(b.precinct),
				int(a.comp), int(b.comp),
				int(a.res), int(b.res))
		case codestream.ProgCPRL:
			return cmpKeys(
				int(a.comp), int(b.comp),
				int(a.precinct), int(b.precinct),
				int(a.res), int(b.res))
		default: // LRCP and RLCP coincide with a single layer
			return cmpKeys(
				int(a.res), int(b.res),
				int(a.comp), int(b.comp),
				int(a.precinct), int(b.precinct))
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return less(refs[i], refs[j]) })
	return refs
}

// cmpKeys compares up to three key pairs lexicographically.
func cmpKeys(a1, b1, a2, b2, a3, b3 int) bool {
	if a1 != b1 {
		return a1 < b1
	}
	if a2 != b2 {
		return a2 < b2
	}
	return a3 < b3
}
