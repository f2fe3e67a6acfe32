// Package memory provides an in-memory vector store used by tests and the
// development repository backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
)

type insightKey struct {
	fileID     types.FileID
	caseType   string
	dataSource types.DataSource
}

type storedInsight struct {
	rec    *model.InsightRecord
	dense  []float32
	sparse *model.SparseVector
}

// Store is a mutex-guarded in-memory implementation of
// interfaces.VectorStore. Values are deep-copied in and out.
type Store struct {
	mu       sync.RWMutex
	chunks   map[types.FileID][]*model.DocumentChunk
	insights map[insightKey]*storedInsight
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		chunks:   make(map[types.FileID][]*model.DocumentChunk),
		insights: make(map[insightKey]*storedInsight),
	}
}

func copyChunk(c *model.DocumentChunk) *model.DocumentChunk {
	copied := &model.DocumentChunk{
		ID:          c.ID,
		CaseID:      c.CaseID,
		FileID:      c.FileID,
		DataSource:  c.DataSource,
		ContentType: c.ContentType,
		Text:        c.Text,
		Seq:         c.Seq,
	}
	if c.Metadata != nil {
		copied.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			copied.Metadata[k] = v
		}
	}
	return copied
}

func copyRecord(r *model.InsightRecord) *model.InsightRecord {
	copied := *r
	if r.Metadata != nil {
		copied.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

// PutChunks stores document chunks for retrieval. Ingestion is out of scope
// of the pipeline; this exists for tests and local seeding.
func (s *Store) PutChunks(ctx context.Context, chunks []*model.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.FileID] = append(s.chunks[chunk.FileID], copyChunk(chunk))
	}
	return nil
}

func (s *Store) QueryChunks(ctx context.Context, fileID types.FileID, dataSource types.DataSource) ([]*model.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.DocumentChunk
	for _, chunk := range s.chunks[fileID] {
		if chunk.ContentType == types.ContentTypeInsights {
			continue
		}
		if dataSource != "" && chunk.DataSource != dataSource {
			continue
		}
		result = append(result, copyChunk(chunk))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

func (s *Store) QueryInsight(ctx context.Context, fileID types.FileID, caseType string, dataSource types.DataSource) (*model.InsightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := insightKey{fileID: fileID, caseType: caseType, dataSource: dataSource}
	stored, exists := s.insights[key]
	if !exists {
		return nil, nil
	}
	return copyRecord(stored.rec), nil
}

func (s *Store) UpsertInsight(ctx context.Context, rec *model.InsightRecord, dense []float32, sparse *model.SparseVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := insightKey{fileID: rec.FileID, caseType: rec.CaseType, dataSource: rec.DataSource}

	copiedDense := make([]float32, len(dense))
	copy(copiedDense, dense)

	s.insights[key] = &storedInsight{
		rec:    copyRecord(rec),
		dense:  copiedDense,
		sparse: sparse,
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// InsightCount returns the number of stored insight records
func (s *Store) InsightCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.insights)
}
