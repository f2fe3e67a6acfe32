package types

// ContentType discriminates stored vector entries. Normal document chunks and
// cached insight records live in the same collection and must never be
// confused: chunk retrieval filters insights out, cache lookup filters them in.
type ContentType string

const (
	ContentTypeChunk    ContentType = "chunk"
	ContentTypeInsights ContentType = "insights"
)

// String returns the string representation of the content type
func (t ContentType) String() string {
	return string(t)
}

// Provenance indicates whether an insight was freshly generated or served
// from a previously cached record
type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceCached    Provenance = "cached"
)

// String returns the string representation of the provenance
func (p Provenance) String() string {
	return string(p)
}
