package winnow

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// indexThreshold is the collection size from which Comparator.Score counts
// matches through an inverted index instead of intersecting every pair.
const indexThreshold = 32

// Index maps each fingerprint hash to the set of documents that selected it.
// Document IDs are assigned in insertion order starting at 0. An Index is
// not safe for concurrent mutation.
type Index struct {
	postings map[uint64]*roaring.Bitmap
	docs     uint32
}

// NewIndex returns an Index holding fps under IDs 0..len(fps)-1.
func NewIndex(fps []*Fingerprint) *Index {
	x := &Index{postings: make(map[uint64]*roaring.Bitmap)}
	for _, fp := range fps {
		x.Add(fp)
	}
	return x
}

// Add indexes fp and returns its document ID.
func (x *Index) Add(fp *Fingerprint) uint32 {
	id := x.docs
	x.docs++
	for h := range fp.hashes {
		bm, ok := x.postings[h]
		if !ok {
			bm = roaring.New()
			x.postings[h] = bm
		}
		bm.Add(id)
	}
	return id
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return int(x.docs) }

// Postings returns a copy of the documents that selected h, or an empty
// bitmap. Scoring does not use it; it serves callers that keep an Index to
// look up where a hash occurs.
func (x *Index) Postings(h uint64) *roaring.Bitmap {
	if bm, ok := x.postings[h]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// Candidates returns every indexed document sharing at least one hash
// with fp. Like Postings it is a lookup for callers holding an Index, such
// as narrowing a new document to the ones worth intersecting.
func (x *Index) Candidates(fp *Fingerprint) *roaring.Bitmap {
	lists := make([]*roaring.Bitmap, 0, len(fp.hashes))
	for h := range fp.hashes {
		if bm, ok := x.postings[h]; ok {
			lists = append(lists, bm)
		}
	}
	return roaring.FastOr(lists...)
}

// Matches returns the symmetric shared-hash matrix of the indexed
// documents. Each posting list contributes one match to every pair of
// documents it contains, so hashes selected by a single document cost
// nothing.
func (x *Index) Matches() [][]int {
	n := int(x.docs)
	matches := make([][]int, n)
	for i := range matches {
		matches[i] = make([]int, n)
	}
	for _, bm := range x.postings {
		if bm.GetCardinality() < 2 {
			continue
		}
		ids := bm.ToArray()
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				matches[ids[a]][ids[b]]++
				matches[ids[b]][ids[a]]++
			}
		}
	}
	return matches
}
