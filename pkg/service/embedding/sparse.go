package embedding

import (
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/caseops-lab/argus/pkg/domain/model"
)

// BM25 term weighting parameters, standard defaults
const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// avgDocLength normalizes the saturation curve. Corpus statistics are
	// not available at embed time, so a fixed prior is used, matching how
	// query-independent sparse encoders weight documents.
	avgDocLength = 256.0
)

var termPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// SparseEmbed computes a BM25-weighted sparse vector for the text. Terms are
// lowercased and hashed to 32-bit indices; values carry the document-side
// BM25 term-frequency saturation. IDF is left to the retrieval engine, which
// owns the corpus statistics.
func SparseEmbed(text string) *model.SparseVector {
	terms := termPattern.FindAllString(strings.ToLower(text), -1)
	if len(terms) == 0 {
		return &model.SparseVector{Indices: []uint32{}, Values: []float32{}}
	}

	freq := make(map[uint32]int, len(terms))
	for _, term := range terms {
		freq[hashTerm(term)]++
	}

	docLen := float64(len(terms))
	norm := bm25K1 * (1 - bm25B + bm25B*docLen/avgDocLength)

	indices := make([]uint32, 0, len(freq))
	for idx := range freq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		tf := float64(freq[idx])
		values[i] = float32(tf * (bm25K1 + 1) / (tf + norm))
	}

	return &model.SparseVector{Indices: indices, Values: values}
}

func hashTerm(term string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return h.Sum32()
}
