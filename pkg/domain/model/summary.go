package model

// EmbeddingDimension is the dimension of the dense embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// SummaryUnit is the intermediate artifact of summarizing one chunk group
// during a hierarchical pass. Units live only for the duration of the pass:
// they are merged in index order and discarded.
type SummaryUnit struct {
	Index  int
	Text   string
	Tokens int
}
