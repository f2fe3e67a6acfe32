package model

import (
	"github.com/caseops-lab/argus/pkg/domain/types"
)

// ChunkJoiner is the separator used when concatenating chunk texts into one
// document. The splitter treats it as the preferred split boundary, so the
// concatenated document can be re-divided without cutting inside a chunk.
const ChunkJoiner = "\n\n"

// DocumentChunk is the smallest retrievable unit of extracted evidence
// content. Chunks are produced by the ingestion pipeline and owned by the
// vector store; this service only reads them.
type DocumentChunk struct {
	ID          string
	CaseID      types.CaseID
	FileID      types.FileID
	DataSource  types.DataSource
	ContentType types.ContentType
	Text        string
	Seq         int
	Metadata    map[string]string
}
