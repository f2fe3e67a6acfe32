package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpctrl "github.com/caseops-lab/argus/pkg/controller/http"
	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/repository/memory"
	"github.com/caseops-lab/argus/pkg/service/tokenizer"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

type mockSession struct {
	resp *gollem.Response
	err  error
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, options ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.resp, s.err
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, options ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.resp, s.err
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) History() (*gollem.History, error) { return nil, nil }

func (s *mockSession) AppendHistory(*gollem.History) error { return nil }

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockClient struct {
	generateErr error
}

func (c *mockClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockSession{
		resp: &gollem.Response{Texts: []string{"insight body"}},
		err:  c.generateErr,
	}, nil
}

func (c *mockClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return [][]float64{make([]float64, dimension)}, nil
}

func newTestServer(t *testing.T, store *memory.Store, client *mockClient) *httpctrl.Server {
	t.Helper()
	uc, err := usecase.New(store, client, usecase.WithCounter(tokenizer.NewEstimator()))
	gt.NoError(t, err).Required()
	return httpctrl.New(uc, httpctrl.WithPinger(store))
}

func seedChunk(t *testing.T, store *memory.Store, fileID types.FileID) {
	t.Helper()
	gt.NoError(t, store.PutChunks(context.Background(), []*model.DocumentChunk{{
		CaseID:      "case-1",
		FileID:      fileID,
		DataSource:  types.DataSourceAudio,
		ContentType: types.ContentTypeChunk,
		Text:        "a short wiretap transcript",
		Seq:         0,
	}}))
}

func postInsights(srv *httpctrl.Server, body map[string]string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/insights", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestInsightsEndpoint(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, &mockClient{})
	seedChunk(t, store, "file-1")

	rec := postInsights(srv, map[string]string{
		"case_id":     "case-1",
		"file_id":     "file-1",
		"case_type":   "fraud",
		"data_source": "audio",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp map[string]any
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Value(t, resp["insights"]).Equal("insight body")
	gt.Value(t, resp["source"]).Equal("generated")
	gt.Value(t, resp["used_summarization"]).Equal(false)
}

func TestInsightsEndpoint_BadRequest(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, &mockClient{})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/insights", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("invalid data source", func(t *testing.T) {
		rec := postInsights(srv, map[string]string{
			"case_id":     "case-1",
			"file_id":     "file-1",
			"case_type":   "fraud",
			"data_source": "hologram",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("missing case type", func(t *testing.T) {
		rec := postInsights(srv, map[string]string{
			"case_id":     "case-1",
			"file_id":     "file-1",
			"data_source": "audio",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestInsightsEndpoint_NotFound(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, &mockClient{})

	rec := postInsights(srv, map[string]string{
		"case_id":     "case-1",
		"file_id":     "file-without-chunks",
		"case_type":   "fraud",
		"data_source": "audio",
	})
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
}

func TestInsightsEndpoint_UpstreamFailure(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, &mockClient{generateErr: goerr.New("model unavailable")})
	seedChunk(t, store, "file-1")

	rec := postInsights(srv, map[string]string{
		"case_id":     "case-1",
		"file_id":     "file-1",
		"case_type":   "fraud",
		"data_source": "audio",
	})
	gt.Number(t, rec.Code).Equal(http.StatusBadGateway)
}

func TestServiceInfoEndpoint(t *testing.T) {
	store := memory.New()
	uc, err := usecase.New(store, &mockClient{},
		usecase.WithCounter(tokenizer.NewEstimator()),
		usecase.WithPrompts(usecase.NewPromptLibrary(map[string]string{
			"Fraud": "focus on transfer instructions",
		})),
	)
	gt.NoError(t, err).Required()
	srv := httpctrl.New(uc, httpctrl.WithVersion("1.2.3"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Version              string            `json:"version"`
		Endpoints            map[string]string `json:"endpoints"`
		CommonCaseTypes      []string          `json:"common_case_types"`
		SupportedDataSources []string          `json:"supported_data_sources"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Value(t, resp.Version).Equal("1.2.3")
	gt.Array(t, resp.CommonCaseTypes).Has("fraud")
	gt.Array(t, resp.SupportedDataSources).Has("audio")
	gt.Array(t, resp.SupportedDataSources).Has("ufed_extraction")
	gt.String(t, resp.Endpoints["GET /health"]).NotEqual("")
}

func TestHealthEndpoint(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, &mockClient{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Value(t, resp["status"]).Equal("healthy")
}
