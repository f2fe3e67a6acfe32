package interfaces

import (
	"context"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
)

// VectorStore defines the persistence contract of the insight pipeline. The
// store holds both document chunks (written by the ingestion pipeline) and
// cached insight records, distinguished by their content_type payload field.
type VectorStore interface {
	// QueryChunks retrieves all document chunks for the file ordered by
	// sequence position. Insight records are always excluded. An empty
	// dataSource means no data source filtering.
	QueryChunks(ctx context.Context, fileID types.FileID, dataSource types.DataSource) ([]*model.DocumentChunk, error)

	// QueryInsight looks up a cached insight record for the identity key.
	// Returns (nil, nil) when no record exists.
	QueryInsight(ctx context.Context, fileID types.FileID, caseType string, dataSource types.DataSource) (*model.InsightRecord, error)

	// UpsertInsight stores an insight record with its dense and sparse
	// embeddings, replacing any existing record for the same
	// (file_id, case_type, data_source) key.
	UpsertInsight(ctx context.Context, rec *model.InsightRecord, dense []float32, sparse *model.SparseVector) error

	// Ping verifies store connectivity for health reporting
	Ping(ctx context.Context) error

	// Close releases client resources
	Close() error
}
