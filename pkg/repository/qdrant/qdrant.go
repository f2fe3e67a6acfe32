// Package qdrant implements the vector store contract against a Qdrant
// collection holding both document chunks and cached insight records,
// discriminated by the content_type payload field.
package qdrant

import (
	"context"
	"sort"
	"strconv"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

const (
	denseVectorName  = "dense-embed"
	sparseVectorName = "sparse-embed"

	scrollPageSize  = 100
	grpcMaxRecvSize = 32 * 1024 * 1024
)

// payload field names, shared with the ingestion pipeline
const (
	fieldContent     = "page_content"
	fieldCaseID      = "case_id"
	fieldFileID      = "file_id"
	fieldContentType = "content_type"
	fieldCaseType    = "case_type"
	fieldDataSource  = "data_source"
	fieldSeq         = "seq"
	fieldChunkCount  = "chunk_count"
	fieldTotalTokens = "total_tokens"
	fieldSummarized  = "used_summarization"
	fieldNumSummary  = "num_summary_chunks"
)

// reservedFields are payload keys written by the store itself; everything
// else in a chunk payload is carried as opaque metadata.
var reservedFields = map[string]struct{}{
	fieldContent: {}, fieldCaseID: {}, fieldFileID: {}, fieldContentType: {},
	fieldCaseType: {}, fieldDataSource: {}, fieldSeq: {}, fieldChunkCount: {},
	fieldTotalTokens: {}, fieldSummarized: {}, fieldNumSummary: {},
}

// Config holds Qdrant connection settings
type Config struct {
	Host       string
	Port       int
	APIKey     string `masq:"secret"`
	UseTLS     bool
	Collection string
}

// Store is a Qdrant-backed vector store
type Store struct {
	client     *qdrant.Client
	collection string
}

// New connects to Qdrant and ensures the collection exists with the named
// dense and sparse vector configuration.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, goerr.New("collection name is required")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(grpcMaxRecvSize)),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create qdrant client",
			goerr.V("host", cfg.Host), goerr.V("port", cfg.Port))
	}

	s := &Store{client: client, collection: cfg.Collection}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return goerr.Wrap(err, "failed to check collection",
			goerr.V("collection", s.collection))
	}
	if exists {
		return nil
	}

	logging.From(ctx).Info("Creating collection", "collection", s.collection)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			denseVectorName: {
				Size:     uint64(model.EmbeddingDimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
		SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
			sparseVectorName: {},
		}),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create collection",
			goerr.V("collection", s.collection))
	}
	return nil
}

// scroll pages through all points matching the filter
func (s *Store) scroll(ctx context.Context, filter *qdrant.Filter) ([]*qdrant.RetrievedPoint, error) {
	var points []*qdrant.RetrievedPoint
	var offset *qdrant.PointId

	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, goerr.Wrap(err, "scroll failed",
				goerr.V("collection", s.collection))
		}

		points = append(points, resp.GetResult()...)
		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return points, nil
}

func (s *Store) QueryChunks(ctx context.Context, fileID types.FileID, dataSource types.DataSource) ([]*model.DocumentChunk, error) {
	must := []*qdrant.Condition{
		qdrant.NewMatch(fieldFileID, fileID.String()),
	}
	if dataSource != "" {
		must = append(must, qdrant.NewMatch(fieldDataSource, dataSource.String()))
	}

	points, err := s.scroll(ctx, &qdrant.Filter{
		Must: must,
		MustNot: []*qdrant.Condition{
			qdrant.NewMatch(fieldContentType, types.ContentTypeInsights.String()),
		},
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]*model.DocumentChunk, 0, len(points))
	for _, point := range points {
		chunks = append(chunks, chunkFromPayload(point))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })

	logging.From(ctx).Debug("Retrieved chunks",
		"file_id", fileID,
		"data_source", dataSource,
		"count", len(chunks),
	)
	return chunks, nil
}

func (s *Store) QueryInsight(ctx context.Context, fileID types.FileID, caseType string, dataSource types.DataSource) (*model.InsightRecord, error) {
	points, err := s.scroll(ctx, insightFilter(fileID, caseType, dataSource))
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	return recordFromPayload(points[0]), nil
}

func (s *Store) UpsertInsight(ctx context.Context, rec *model.InsightRecord, dense []float32, sparse *model.SparseVector) error {
	// Replace semantics: drop any prior record for the identity key so the
	// single-record invariant holds under regeneration (last writer wins).
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(insightFilter(rec.FileID, rec.CaseType, rec.DataSource)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete previous insight",
			goerr.V("file_id", rec.FileID))
	}

	payload := map[string]any{
		fieldContent:     rec.Insights,
		fieldCaseID:      rec.CaseID.String(),
		fieldFileID:      rec.FileID.String(),
		fieldContentType: types.ContentTypeInsights.String(),
		fieldCaseType:    rec.CaseType,
		fieldDataSource:  rec.DataSource.String(),
		fieldChunkCount:  int64(rec.ChunkCount),
		fieldTotalTokens: int64(rec.TotalTokens),
		fieldSummarized:  rec.UsedSummarization,
		fieldNumSummary:  int64(rec.NumSummaryChunks),
	}
	for k, v := range rec.Metadata {
		if _, reserved := reservedFields[k]; !reserved {
			payload[k] = v
		}
	}

	point := &qdrant.PointStruct{
		Id: qdrant.NewID(uuid.New().String()),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			denseVectorName:  qdrant.NewVector(dense...),
			sparseVectorName: qdrant.NewVectorSparse(sparse.Indices, sparse.Values),
		}),
		Payload: qdrant.NewValueMap(payload),
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert insight",
			goerr.V("file_id", rec.FileID),
			goerr.V("collection", s.collection))
	}

	logging.From(ctx).Info("Upserted insight record",
		"file_id", rec.FileID,
		"case_type", rec.CaseType,
		"data_source", rec.DataSource,
	)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return goerr.Wrap(err, "qdrant health check failed")
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func insightFilter(fileID types.FileID, caseType string, dataSource types.DataSource) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(fieldFileID, fileID.String()),
			qdrant.NewMatch(fieldContentType, types.ContentTypeInsights.String()),
			qdrant.NewMatch(fieldCaseType, caseType),
			qdrant.NewMatch(fieldDataSource, dataSource.String()),
		},
	}
}

func chunkFromPayload(point *qdrant.RetrievedPoint) *model.DocumentChunk {
	payload := point.GetPayload()

	chunk := &model.DocumentChunk{
		ID:          pointIDString(point.GetId()),
		CaseID:      types.CaseID(payload[fieldCaseID].GetStringValue()),
		FileID:      types.FileID(payload[fieldFileID].GetStringValue()),
		DataSource:  types.DataSource(payload[fieldDataSource].GetStringValue()),
		ContentType: types.ContentType(payload[fieldContentType].GetStringValue()),
		Text:        payload[fieldContent].GetStringValue(),
		Seq:         int(payload[fieldSeq].GetIntegerValue()),
	}

	for k, v := range payload {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		if sv := v.GetStringValue(); sv != "" {
			if chunk.Metadata == nil {
				chunk.Metadata = make(map[string]string)
			}
			chunk.Metadata[k] = sv
		}
	}
	return chunk
}

func recordFromPayload(point *qdrant.RetrievedPoint) *model.InsightRecord {
	payload := point.GetPayload()

	return &model.InsightRecord{
		CaseID:            types.CaseID(payload[fieldCaseID].GetStringValue()),
		FileID:            types.FileID(payload[fieldFileID].GetStringValue()),
		CaseType:          payload[fieldCaseType].GetStringValue(),
		DataSource:        types.DataSource(payload[fieldDataSource].GetStringValue()),
		Insights:          payload[fieldContent].GetStringValue(),
		ChunkCount:        int(payload[fieldChunkCount].GetIntegerValue()),
		TotalTokens:       int(payload[fieldTotalTokens].GetIntegerValue()),
		UsedSummarization: payload[fieldSummarized].GetBoolValue(),
		NumSummaryChunks:  int(payload[fieldNumSummary].GetIntegerValue()),
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
