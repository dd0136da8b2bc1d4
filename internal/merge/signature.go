package merge

import (
	"hash/fnv"
	"math"
	"strings"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/seekr/internal/result"
)

// SignatureIndex finds Results whose signatures are close to a new one.
// It only proposes candidates; a SimilarityOracle decides.
type SignatureIndex interface {
	Add(r *result.Result)
	// Candidates returns up to k ids of indexed Results, nearest first.
	Candidates(r *result.Result, k int) []int
	Len() int
}

// Signature returns the L2-normalized hashed character-trigram vector of
// r's canonical URL and lowercase title.
func Signature(r *result.Result, dims int) []float32 {
	vec := make([]float32, dims)
	text := " " + r.CanonicalURL + " " + strings.ToLower(r.Title) + " "
	runes := []rune(text)

	h := fnv.New32a()
	for i := 0; i+3 <= len(runes); i++ {
		h.Reset()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%uint32(dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// HNSWIndex is a SignatureIndex over an in-memory HNSW graph.
type HNSWIndex struct {
	dims  int
	graph *hnsw.Graph[uint64]
}

// NewHNSWIndex returns an empty index of dims-dimensional signatures.
func NewHNSWIndex(dims int) *HNSWIndex {
	if dims <= 0 {
		dims = 128
	}
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 32
	graph.Ml = 0.25
	return &HNSWIndex{dims: dims, graph: graph}
}

// Add indexes r under its id. r must already be in the arena.
func (x *HNSWIndex) Add(r *result.Result) {
	x.graph.Add(hnsw.MakeNode(uint64(r.ID), Signature(r, x.dims)))
}

// Candidates implements SignatureIndex.
func (x *HNSWIndex) Candidates(r *result.Result, k int) []int {
	if x.graph.Len() == 0 || k <= 0 {
		return nil
	}
	nodes := x.graph.Search(Signature(r, x.dims), k)
	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, int(n.Key))
	}
	return ids
}

// Len returns the number of indexed Results.
func (x *HNSWIndex) Len() int { return x.graph.Len() }
