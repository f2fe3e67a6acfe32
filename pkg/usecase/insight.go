package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/caseops-lab/argus/pkg/domain/interfaces"
	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/service/embedding"
	"github.com/caseops-lab/argus/pkg/service/summarize"
	"github.com/caseops-lab/argus/pkg/service/tokenizer"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

//go:embed prompt/insight.md
var insightPromptTmpl string

var insightPrompt = template.Must(template.New("insight").Parse(insightPromptTmpl))

// InsightUseCase runs the size-adaptive insight generation pipeline:
// cache check, retrieval, size decision, direct or summarize-then-generate,
// and cache store. One run handles one request start to finish with no
// internal parallelism.
type InsightUseCase struct {
	store      interfaces.VectorStore
	llmClient  gollem.LLMClient
	embedder   embedding.Service
	summarizer *summarize.Summarizer
	counter    tokenizer.Counter
	cfg        Config
	prompts    *PromptLibrary
}

// NewInsightUseCase creates an InsightUseCase
func NewInsightUseCase(
	store interfaces.VectorStore,
	llmClient gollem.LLMClient,
	embedder embedding.Service,
	summarizer *summarize.Summarizer,
	counter tokenizer.Counter,
	cfg Config,
	prompts *PromptLibrary,
) *InsightUseCase {
	return &InsightUseCase{
		store:      store,
		llmClient:  llmClient,
		embedder:   embedder,
		summarizer: summarizer,
		counter:    counter,
		cfg:        cfg,
		prompts:    prompts,
	}
}

// Generate produces (or returns the cached) insight record for the request.
// No partial record is ever stored: any failure after the cache check aborts
// the whole run.
func (uc *InsightUseCase) Generate(ctx context.Context, req *model.InsightRequest) (*model.InsightRecord, error) {
	logger := logging.From(ctx)

	if err := req.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, err.Error(),
			goerr.V(StageKey, "validate"),
			goerr.V(CaseIDKey, req.CaseID),
			goerr.V(FileIDKey, req.FileID))
	}

	logger.Info("Processing insight request",
		"case_id", req.CaseID,
		"file_id", req.FileID,
		"case_type", req.CaseType,
		"data_source", req.DataSource,
	)

	// Cache check: an existing record for the identity key satisfies the
	// request without any further work.
	cached, err := uc.store.QueryInsight(ctx, req.FileID, req.CaseType, req.DataSource)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "cache lookup failed",
			goerr.V(StageKey, "cache_check"),
			goerr.V("cause", err.Error()),
			goerr.V(FileIDKey, req.FileID))
	}
	if cached != nil {
		logger.Info("Returning cached insight", "file_id", req.FileID)
		cached.Provenance = types.ProvenanceCached
		return cached, nil
	}

	// Retrieve all chunks, ordered by original sequence
	chunks, err := uc.store.QueryChunks(ctx, req.FileID, req.DataSource)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "chunk retrieval failed",
			goerr.V(StageKey, "retrieve"),
			goerr.V("cause", err.Error()),
			goerr.V(FileIDKey, req.FileID))
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Text != "" {
			texts = append(texts, chunk.Text)
		}
	}
	if len(texts) == 0 {
		return nil, goerr.Wrap(ErrNoChunksFound, "no chunks stored for file",
			goerr.V(StageKey, "retrieve"),
			goerr.V(FileIDKey, req.FileID),
			goerr.V(DataSourceKey, req.DataSource))
	}

	content := strings.Join(texts, model.ChunkJoiner)
	totalTokens := uc.counter.Count(content)
	usedSummarization := uc.cfg.Summarize.NeedsSummarization(totalTokens)

	logger.Info("Decided generation strategy",
		"chunk_count", len(texts),
		"total_tokens", totalTokens,
		"summarization", usedSummarization,
	)

	numSummaryChunks := 0
	if usedSummarization {
		reduced, stats, err := uc.summarizer.Reduce(ctx, content)
		if err != nil {
			return nil, goerr.Wrap(ErrUpstream, "summarization failed",
				goerr.V(StageKey, "summarize"),
				goerr.V("cause", err.Error()),
				goerr.V(FileIDKey, req.FileID))
		}
		content = reduced
		numSummaryChunks = stats.ChunkCount
	}

	insights, err := uc.generateInsights(ctx, req, content)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "insight generation failed",
			goerr.V(StageKey, "generate"),
			goerr.V("cause", err.Error()),
			goerr.V(FileIDKey, req.FileID))
	}

	rec := &model.InsightRecord{
		CaseID:            req.CaseID,
		FileID:            req.FileID,
		CaseType:          req.CaseType,
		DataSource:        req.DataSource,
		Insights:          insights,
		Provenance:        types.ProvenanceGenerated,
		ChunkCount:        len(texts),
		TotalTokens:       totalTokens,
		UsedSummarization: usedSummarization,
		NumSummaryChunks:  numSummaryChunks,
		Metadata:          chunks[0].Metadata,
		CreatedAt:         time.Now().UTC(),
	}

	dense, err := uc.embedder.Dense(ctx, insights)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "embedding generation failed",
			goerr.V(StageKey, "embed"),
			goerr.V("cause", err.Error()),
			goerr.V(FileIDKey, req.FileID))
	}
	sparse := uc.embedder.Sparse(insights)

	if err := uc.store.UpsertInsight(ctx, rec, dense, sparse); err != nil {
		return nil, goerr.Wrap(ErrUpstream, "insight store failed",
			goerr.V(StageKey, "store"),
			goerr.V("cause", err.Error()),
			goerr.V(FileIDKey, req.FileID))
	}

	logger.Info("Stored generated insight",
		"file_id", req.FileID,
		"tokens", uc.counter.Count(insights),
		"summarization", usedSummarization,
	)
	return rec, nil
}

// generateInsights renders the case-type prompt around the (possibly
// summarized) content and issues the final generation call
func (uc *InsightUseCase) generateInsights(ctx context.Context, req *model.InsightRequest, content string) (string, error) {
	var buf bytes.Buffer
	err := insightPrompt.Execute(&buf, map[string]any{
		"CaseType":   req.CaseType,
		"DataSource": req.DataSource.String(),
		"MaxTokens":  uc.cfg.InsightsMaxTokens,
		"Extra":      uc.prompts.Guidance(req.CaseType),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render insight prompt")
	}

	buf.WriteString("\n\nContent to analyze:\n")
	buf.WriteString(content)

	callCtx := ctx
	if uc.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.cfg.LLMTimeout)
		defer cancel()
	}

	session, err := uc.llmClient.NewSession(callCtx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(callCtx,
		[]gollem.Input{gollem.Text(buf.String())},
		gollem.WithMaxTokens(uc.cfg.InsightsMaxTokens),
	)
	if err != nil {
		return "", goerr.Wrap(err, "generation call failed")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty generation response")
	}

	return resp.Texts[0], nil
}
