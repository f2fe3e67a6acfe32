package model

import (
	"time"

	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// InsightRequest identifies the target document for insight generation.
// CaseType is free text; unknown values fall back to the generic prompt.
type InsightRequest struct {
	CaseID     types.CaseID
	FileID     types.FileID
	CaseType   string
	DataSource types.DataSource
}

// Validate checks the request before any external call is made
func (r *InsightRequest) Validate() error {
	if err := r.CaseID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid request")
	}
	if err := r.FileID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid request")
	}
	if r.CaseType == "" {
		return goerr.New("case_type cannot be empty")
	}
	if !r.DataSource.IsValid() {
		return goerr.New("invalid data_source",
			goerr.V("data_source", r.DataSource.String()),
			goerr.V("supported", types.AllDataSources()))
	}
	return nil
}

// InsightRecord is the final artifact of one generation run. Exactly one
// record exists per (file_id, case_type, data_source); regeneration replaces
// the previous record rather than duplicating it.
type InsightRecord struct {
	CaseID            types.CaseID
	FileID            types.FileID
	CaseType          string
	DataSource        types.DataSource
	Insights          string
	Provenance        types.Provenance
	ChunkCount        int
	TotalTokens       int
	UsedSummarization bool
	NumSummaryChunks  int
	Metadata          map[string]string
	CreatedAt         time.Time
}

// SparseVector is a lexical (BM25-style) vector representation stored
// alongside the dense embedding for hybrid retrieval
type SparseVector struct {
	Indices []uint32
	Values  []float32
}
