package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/repository/memory"
	"github.com/caseops-lab/argus/pkg/service/summarize"
	"github.com/caseops-lab/argus/pkg/service/tokenizer"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
	generateOptsFn    func(options ...gollem.GenerateOption)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, options ...gollem.GenerateOption) (*gollem.Response, error) {
	if s.generateOptsFn != nil {
		s.generateOptsFn(options...)
	}
	return s.generateContentFn(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, options ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient counts generation and embedding calls across sessions.
// optCounts records how many generate options each call carried.
type mockLLMClient struct {
	generateCalls     int
	embedCalls        int
	optCounts         []int
	generateContentFn func(call int, ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockLLMSession{
		generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			c.generateCalls++
			if c.generateContentFn != nil {
				return c.generateContentFn(c.generateCalls, ctx, input...)
			}
			return &gollem.Response{Texts: []string{"generated insight"}}, nil
		},
		generateOptsFn: func(options ...gollem.GenerateOption) {
			c.optCounts = append(c.optCounts, len(options))
		},
	}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.embedCalls++
	vec := make([]float64, dimension)
	return [][]float64{vec}, nil
}

// spyStore counts retrieval calls on top of the in-memory store
type spyStore struct {
	*memory.Store
	queryChunksCalls int
}

func (s *spyStore) QueryChunks(ctx context.Context, fileID types.FileID, dataSource types.DataSource) ([]*model.DocumentChunk, error) {
	s.queryChunksCalls++
	return s.Store.QueryChunks(ctx, fileID, dataSource)
}

func testConfig() usecase.Config {
	return usecase.Config{
		Summarize: summarize.Config{
			MaxTokensBeforeSummarization: 100,
			ChunkSize:                    50,
			MegaSummaryTarget:            20,
			MaxDepth:                     3,
			LLMTimeout:                   time.Second,
		},
		InsightsMaxTokens: 50,
		LLMTimeout:        time.Second,
	}
}

func newUseCases(t *testing.T, store *memory.Store, mock *mockLLMClient) *usecase.UseCases {
	t.Helper()
	uc, err := usecase.New(store, mock,
		usecase.WithConfig(testConfig()),
		usecase.WithCounter(tokenizer.NewEstimator()),
	)
	gt.NoError(t, err).Required()
	return uc
}

func seedChunks(t *testing.T, store *memory.Store, fileID types.FileID, texts ...string) {
	t.Helper()
	chunks := make([]*model.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &model.DocumentChunk{
			CaseID:      "case-1",
			FileID:      fileID,
			DataSource:  types.DataSourceAudio,
			ContentType: types.ContentTypeChunk,
			Text:        text,
			Seq:         i,
			Metadata:    map[string]string{"language": "en"},
		})
	}
	gt.NoError(t, store.PutChunks(context.Background(), chunks))
}

func audioRequest(fileID types.FileID) *model.InsightRequest {
	return &model.InsightRequest{
		CaseID:     "case-1",
		FileID:     fileID,
		CaseType:   "fraud",
		DataSource: types.DataSourceAudio,
	}
}

func TestGenerate_DirectPath(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{}
	uc := newUseCases(t, store, mock)

	seedChunks(t, store, "file-1",
		"the caller identified himself as the account manager",
		"a transfer of 40,000 EUR was requested before noon",
		"the recipient account had been opened two days earlier",
	)

	rec, err := uc.Insight.Generate(ctx, audioRequest("file-1"))
	gt.NoError(t, err).Required()

	gt.Value(t, rec.Insights).Equal("generated insight")
	gt.Value(t, rec.Provenance).Equal(types.ProvenanceGenerated)
	gt.Number(t, rec.ChunkCount).Equal(3)
	gt.B(t, rec.UsedSummarization).False()
	gt.Number(t, rec.NumSummaryChunks).Equal(0)
	gt.Value(t, rec.Metadata["language"]).Equal("en")

	// direct path: a single generation call, one embedding call, one record
	gt.Number(t, mock.generateCalls).Equal(1)
	gt.Number(t, mock.embedCalls).Equal(1)
	gt.Number(t, store.InsightCount()).Equal(1)

	// the generation call carries the output token bound
	gt.Array(t, mock.optCounts).Length(1)
	gt.Number(t, mock.optCounts[0]).Equal(1)
}

func TestGenerate_SummarizationPath(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{
		generateContentFn: func(call int, ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			if call <= 4 {
				return &gollem.Response{Texts: []string{"sum"}}, nil
			}
			return &gollem.Response{Texts: []string{"condensed insight"}}, nil
		},
	}
	uc := newUseCases(t, store, mock)

	// Four chunks whose join is exactly 200 estimator tokens: over the
	// threshold of 100, splitting into exactly four 50-token pieces.
	seedChunks(t, store, "file-big",
		strings.Repeat("a", 198),
		strings.Repeat("a", 198),
		strings.Repeat("a", 198),
		strings.Repeat("a", 200),
	)

	rec, err := uc.Insight.Generate(ctx, audioRequest("file-big"))
	gt.NoError(t, err).Required()

	gt.Value(t, rec.Insights).Equal("condensed insight")
	gt.B(t, rec.UsedSummarization).True()
	gt.Number(t, rec.NumSummaryChunks).Equal(4)
	gt.Number(t, rec.ChunkCount).Equal(4)
	gt.Number(t, rec.TotalTokens).Equal(200)

	// four chunk summaries plus the final generation call
	gt.Number(t, mock.generateCalls).Equal(5)
	gt.Number(t, store.InsightCount()).Equal(1)
}

func TestGenerate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{}
	uc := newUseCases(t, store, mock)

	req := audioRequest("file-1")
	req.DataSource = "hologram"

	_, err := uc.Insight.Generate(ctx, req)
	gt.B(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	gt.Number(t, mock.generateCalls).Equal(0)
	gt.Number(t, mock.embedCalls).Equal(0)
	gt.Number(t, store.InsightCount()).Equal(0)
}

func TestGenerate_NoChunks(t *testing.T) {
	ctx := context.Background()
	spy := &spyStore{Store: memory.New()}
	mock := &mockLLMClient{}

	uc, err := usecase.New(spy, mock,
		usecase.WithConfig(testConfig()),
		usecase.WithCounter(tokenizer.NewEstimator()),
	)
	gt.NoError(t, err).Required()

	_, err = uc.Insight.Generate(ctx, audioRequest("file-empty"))
	gt.B(t, errors.Is(err, usecase.ErrNoChunksFound)).True()
	gt.Number(t, spy.queryChunksCalls).Equal(1)
	gt.Number(t, mock.generateCalls).Equal(0)
}

func TestGenerate_CachedSecondCall(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{}
	uc := newUseCases(t, store, mock)

	seedChunks(t, store, "file-1", "a short interview transcript")

	first, err := uc.Insight.Generate(ctx, audioRequest("file-1"))
	gt.NoError(t, err).Required()
	gt.Value(t, first.Provenance).Equal(types.ProvenanceGenerated)

	second, err := uc.Insight.Generate(ctx, audioRequest("file-1"))
	gt.NoError(t, err).Required()
	gt.Value(t, second.Provenance).Equal(types.ProvenanceCached)
	gt.Value(t, second.Insights).Equal(first.Insights)

	// the cached run makes no LLM or embedding calls
	gt.Number(t, mock.generateCalls).Equal(1)
	gt.Number(t, mock.embedCalls).Equal(1)
}

func TestGenerate_DistinctCaseTypesCachedSeparately(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{}
	uc := newUseCases(t, store, mock)

	seedChunks(t, store, "file-1", "a short interview transcript")

	req := audioRequest("file-1")
	_, err := uc.Insight.Generate(ctx, req)
	gt.NoError(t, err).Required()

	other := audioRequest("file-1")
	other.CaseType = "homicide"
	_, err = uc.Insight.Generate(ctx, other)
	gt.NoError(t, err).Required()

	gt.Number(t, store.InsightCount()).Equal(2)
	gt.Number(t, mock.generateCalls).Equal(2)
}

func TestGenerate_UpstreamFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mock := &mockLLMClient{
		generateContentFn: func(call int, ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return nil, goerr.New("model unavailable")
		},
	}
	uc := newUseCases(t, store, mock)

	seedChunks(t, store, "file-1", "a short interview transcript")

	_, err := uc.Insight.Generate(ctx, audioRequest("file-1"))
	gt.B(t, errors.Is(err, usecase.ErrUpstream)).True()
	gt.Number(t, store.InsightCount()).Equal(0)
}
