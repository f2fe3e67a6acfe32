package qdrant_test

import (
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/caseops-lab/argus/pkg/domain/interfaces"
	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/repository/qdrant"
	"github.com/m-mizutani/gt"
)

var _ interfaces.VectorStore = (*qdrant.Store)(nil)

func newTestStore(t *testing.T) *qdrant.Store {
	t.Helper()

	host := os.Getenv("TEST_QDRANT_HOST")
	if host == "" {
		t.Skip("TEST_QDRANT_HOST not set")
	}

	port := 6334
	if p := os.Getenv("TEST_QDRANT_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		gt.NoError(t, err).Required()
		port = parsed
	}

	store, err := qdrant.New(t.Context(), qdrant.Config{
		Host:       host,
		Port:       port,
		Collection: fmt.Sprintf("argus-test-%d", time.Now().UnixNano()),
	})
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, store.Close())
	})
	return store
}

func TestQdrantStore(t *testing.T) {
	ctx := t.Context()
	store := newTestStore(t)

	gt.NoError(t, store.Ping(ctx))

	t.Run("insight round trip", func(t *testing.T) {
		missing, err := store.QueryInsight(ctx, "file-1", "fraud", types.DataSourceAudio)
		gt.NoError(t, err)
		gt.Value(t, missing).Nil()

		rec := &model.InsightRecord{
			CaseID:            "case-1",
			FileID:            "file-1",
			CaseType:          "fraud",
			DataSource:        types.DataSourceAudio,
			Insights:          "the subject coordinated transfers",
			ChunkCount:        3,
			TotalTokens:       120,
			UsedSummarization: false,
			Metadata:          map[string]string{"language": "en"},
			CreatedAt:         time.Now().UTC(),
		}
		dense := make([]float32, model.EmbeddingDimension)
		dense[0] = 0.5
		sparse := &model.SparseVector{Indices: []uint32{3, 7}, Values: []float32{1.2, 0.8}}
		gt.NoError(t, store.UpsertInsight(ctx, rec, dense, sparse))

		got, err := store.QueryInsight(ctx, "file-1", "fraud", types.DataSourceAudio)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.Insights).Equal("the subject coordinated transfers")
		gt.Number(t, got.ChunkCount).Equal(3)
	})

	t.Run("upsert replaces existing record", func(t *testing.T) {
		rec := &model.InsightRecord{
			FileID:     "file-2",
			CaseType:   "fraud",
			DataSource: types.DataSourceVideo,
			Insights:   "first version",
		}
		dense := make([]float32, model.EmbeddingDimension)
		sparse := &model.SparseVector{Indices: []uint32{1}, Values: []float32{1.0}}
		gt.NoError(t, store.UpsertInsight(ctx, rec, dense, sparse))

		rec2 := *rec
		rec2.Insights = "second version"
		gt.NoError(t, store.UpsertInsight(ctx, &rec2, dense, sparse))

		got, err := store.QueryInsight(ctx, "file-2", "fraud", types.DataSourceVideo)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Insights).Equal("second version")
	})

	t.Run("chunk query excludes insight records", func(t *testing.T) {
		rec := &model.InsightRecord{
			FileID:     "file-3",
			CaseType:   "fraud",
			DataSource: types.DataSourceAudio,
			Insights:   "derived only",
		}
		dense := make([]float32, model.EmbeddingDimension)
		sparse := &model.SparseVector{Indices: []uint32{1}, Values: []float32{1.0}}
		gt.NoError(t, store.UpsertInsight(ctx, rec, dense, sparse))

		chunks, err := store.QueryChunks(ctx, "file-3", types.DataSourceAudio)
		gt.NoError(t, err)
		gt.Array(t, chunks).Length(0)
	})
}
