package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/caseops-lab/argus/pkg/utils/errutil"
	"github.com/caseops-lab/argus/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type insightRequest struct {
	CaseID     string `json:"case_id"`
	FileID     string `json:"file_id"`
	CaseType   string `json:"case_type"`
	DataSource string `json:"data_source"`
}

type insightResponse struct {
	CaseID            string            `json:"case_id"`
	FileID            string            `json:"file_id"`
	CaseType          string            `json:"case_type"`
	DataSource        string            `json:"data_source"`
	Insights          string            `json:"insights"`
	Source            string            `json:"source"`
	ChunkCount        int               `json:"chunk_count"`
	TotalTokens       int               `json:"total_tokens"`
	UsedSummarization bool              `json:"used_summarization"`
	NumSummaryChunks  int               `json:"num_summary_chunks"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at,omitempty"`
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body insightRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	rec, err := s.uc.Insight.Generate(ctx, &model.InsightRequest{
		CaseID:     types.CaseID(body.CaseID),
		FileID:     types.FileID(body.FileID),
		CaseType:   body.CaseType,
		DataSource: types.DataSource(body.DataSource),
	})
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusForError(err))
		return
	}

	resp := insightResponse{
		CaseID:            rec.CaseID.String(),
		FileID:            rec.FileID.String(),
		CaseType:          rec.CaseType,
		DataSource:        rec.DataSource.String(),
		Insights:          rec.Insights,
		Source:            rec.Provenance.String(),
		ChunkCount:        rec.ChunkCount,
		TotalTokens:       rec.TotalTokens,
		UsedSummarization: rec.UsedSummarization,
		NumSummaryChunks:  rec.NumSummaryChunks,
		Metadata:          rec.Metadata,
		CreatedAt:         rec.CreatedAt,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal insight response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(ctx, w, data)
}

// statusForError maps pipeline errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoChunksFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type serviceInfo struct {
	Message              string            `json:"message"`
	Version              string            `json:"version"`
	Endpoints            map[string]string `json:"endpoints"`
	CommonCaseTypes      []string          `json:"common_case_types,omitempty"`
	SupportedDataSources []string          `json:"supported_data_sources"`
}

func (s *Server) handleServiceInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all := types.AllDataSources()
	sources := make([]string, 0, len(all))
	for _, src := range all {
		sources = append(sources, src.String())
	}

	info := serviceInfo{
		Message: "Argus insights API is running",
		Version: s.version,
		Endpoints: map[string]string{
			"POST /api/insights": "Generate or return the stored insights for a file",
			"GET /health":        "Health check",
		},
		CommonCaseTypes:      s.uc.CaseTypes(),
		SupportedDataSources: sources,
	}

	data, err := json.Marshal(info)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal service info"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(ctx, w, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	code := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status}) //nolint:errcheck // header already committed
}
