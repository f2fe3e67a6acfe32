package usecase

import (
	"time"

	"github.com/caseops-lab/argus/pkg/domain/interfaces"
	"github.com/caseops-lab/argus/pkg/service/embedding"
	"github.com/caseops-lab/argus/pkg/service/summarize"
	"github.com/caseops-lab/argus/pkg/service/tokenizer"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// Config holds the generation budgets of the pipeline
type Config struct {
	// Summarize carries the token thresholds of the hierarchical pass
	Summarize summarize.Config

	// InsightsMaxTokens bounds the generated insight text
	InsightsMaxTokens int

	// LLMTimeout bounds the final generation call
	LLMTimeout time.Duration
}

// DefaultConfig returns the production budgets
func DefaultConfig() Config {
	return Config{
		Summarize:         summarize.DefaultConfig(),
		InsightsMaxTokens: 2000,
		LLMTimeout:        300 * time.Second,
	}
}

// UseCases bundles the application use cases
type UseCases struct {
	Insight *InsightUseCase

	cfg     Config
	counter tokenizer.Counter
	prompts *PromptLibrary
}

// Option is a functional option for UseCases
type Option func(*UseCases)

// WithConfig overrides the default pipeline budgets
func WithConfig(cfg Config) Option {
	return func(uc *UseCases) {
		uc.cfg = cfg
	}
}

// WithCounter overrides the default token counter
func WithCounter(counter tokenizer.Counter) Option {
	return func(uc *UseCases) {
		uc.counter = counter
	}
}

// WithPrompts sets case-type-specific prompt guidance
func WithPrompts(prompts *PromptLibrary) Option {
	return func(uc *UseCases) {
		uc.prompts = prompts
	}
}

// CaseTypes returns the case-type labels with configured prompt guidance
func (uc *UseCases) CaseTypes() []string {
	return uc.prompts.CaseTypes()
}

// New wires the use cases. The default token counter is the cl100k_base
// tokenizer; pass WithCounter to replace it (tests use the estimator).
func New(store interfaces.VectorStore, llmClient gollem.LLMClient, opts ...Option) (*UseCases, error) {
	if store == nil {
		return nil, goerr.New("vector store is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	uc := &UseCases{
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(uc)
	}

	if uc.counter == nil {
		counter, err := tokenizer.NewTiktoken()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize token counter")
		}
		uc.counter = counter
	}

	summarizer, err := summarize.New(llmClient, uc.counter, uc.cfg.Summarize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize summarizer")
	}

	embedder, err := embedding.New(llmClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize embedding service")
	}

	uc.Insight = NewInsightUseCase(store, llmClient, embedder, summarizer, uc.counter, uc.cfg, uc.prompts)
	return uc, nil
}
