package config

import (
	"log/slog"
	"time"

	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Pipeline holds CLI flags for the generation token budgets
type Pipeline struct {
	maxTokensBeforeSummarization int
	chunkSize                    int
	megaSummaryTarget            int
	maxDepth                     int
	insightsMaxTokens            int
	llmTimeout                   time.Duration
}

// Flags returns CLI flags for pipeline budget configuration
func (p *Pipeline) Flags() []cli.Flag {
	defaults := usecase.DefaultConfig()

	return []cli.Flag{
		&cli.IntFlag{
			Name:        "max-tokens-before-summarization",
			Usage:       "Largest document (in tokens) that skips summarization",
			Value:       defaults.Summarize.MaxTokensBeforeSummarization,
			Sources:     cli.EnvVars("ARGUS_MAX_TOKENS_BEFORE_SUMMARIZATION"),
			Destination: &p.maxTokensBeforeSummarization,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Token budget of each summarization chunk",
			Value:       defaults.Summarize.ChunkSize,
			Sources:     cli.EnvVars("ARGUS_CHUNK_SIZE"),
			Destination: &p.chunkSize,
		},
		&cli.IntFlag{
			Name:        "mega-summary-target",
			Usage:       "Token bound the merged summary must fit",
			Value:       defaults.Summarize.MegaSummaryTarget,
			Sources:     cli.EnvVars("ARGUS_MEGA_SUMMARY_TARGET"),
			Destination: &p.megaSummaryTarget,
		},
		&cli.IntFlag{
			Name:        "max-summary-depth",
			Usage:       "Maximum number of hierarchical summarization levels",
			Value:       defaults.Summarize.MaxDepth,
			Sources:     cli.EnvVars("ARGUS_MAX_SUMMARY_DEPTH"),
			Destination: &p.maxDepth,
		},
		&cli.IntFlag{
			Name:        "insights-max-tokens",
			Usage:       "Token bound of the generated insight text",
			Value:       defaults.InsightsMaxTokens,
			Sources:     cli.EnvVars("ARGUS_INSIGHTS_MAX_TOKENS"),
			Destination: &p.insightsMaxTokens,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Usage:       "Timeout of each individual LLM call",
			Value:       defaults.LLMTimeout,
			Sources:     cli.EnvVars("ARGUS_LLM_TIMEOUT"),
			Destination: &p.llmTimeout,
		},
	}
}

// LogValue returns the pipeline budgets as a structured log value
func (p Pipeline) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_tokens_before_summarization", p.maxTokensBeforeSummarization),
		slog.Int("chunk_size", p.chunkSize),
		slog.Int("mega_summary_target", p.megaSummaryTarget),
		slog.Int("max_summary_depth", p.maxDepth),
		slog.Int("insights_max_tokens", p.insightsMaxTokens),
		slog.Duration("llm_timeout", p.llmTimeout),
	)
}

// Configure validates the budgets and builds the pipeline configuration
func (p *Pipeline) Configure() (usecase.Config, error) {
	cfg := usecase.DefaultConfig()
	cfg.Summarize.MaxTokensBeforeSummarization = p.maxTokensBeforeSummarization
	cfg.Summarize.ChunkSize = p.chunkSize
	cfg.Summarize.MegaSummaryTarget = p.megaSummaryTarget
	cfg.Summarize.MaxDepth = p.maxDepth
	cfg.Summarize.LLMTimeout = p.llmTimeout
	cfg.InsightsMaxTokens = p.insightsMaxTokens
	cfg.LLMTimeout = p.llmTimeout

	if p.chunkSize <= 0 {
		return cfg, goerr.New("chunk-size must be positive", goerr.V("value", p.chunkSize))
	}
	if p.chunkSize > p.maxTokensBeforeSummarization {
		return cfg, goerr.New("chunk-size must not exceed max-tokens-before-summarization",
			goerr.V("chunk_size", p.chunkSize),
			goerr.V("threshold", p.maxTokensBeforeSummarization))
	}
	if p.megaSummaryTarget <= 0 {
		return cfg, goerr.New("mega-summary-target must be positive", goerr.V("value", p.megaSummaryTarget))
	}
	if p.insightsMaxTokens <= 0 {
		return cfg, goerr.New("insights-max-tokens must be positive", goerr.V("value", p.insightsMaxTokens))
	}

	return cfg, nil
}
