// Package summarize reduces documents of unbounded size to a bounded
// mega-summary via hierarchical map-reduce over an LLM.
package summarize

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/service/splitter"
	"github.com/caseops-lab/argus/pkg/service/tokenizer"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

//go:embed prompt/summarize_chunk.md
var chunkPromptTmpl string

//go:embed prompt/mega_summary.md
var megaPromptTmpl string

var (
	chunkPrompt = template.Must(template.New("summarize_chunk").Parse(chunkPromptTmpl))
	megaPrompt  = template.Must(template.New("mega_summary").Parse(megaPromptTmpl))
)

// Config holds the token budgets of the summarization pipeline. It is passed
// at construction so multiple configurations can coexist in tests.
type Config struct {
	// MaxTokensBeforeSummarization is the largest document that skips
	// summarization entirely. Documents at exactly this size take the
	// direct path; only strictly larger ones are summarized.
	MaxTokensBeforeSummarization int

	// ChunkSize is the token budget of each map-level piece
	ChunkSize int

	// MegaSummaryTarget is the token bound the merged summary must fit
	MegaSummaryTarget int

	// MaxDepth bounds the recursion. Past it the oversized merge is used
	// as-is rather than failing the request.
	MaxDepth int

	// LLMTimeout bounds each individual summarization call
	LLMTimeout time.Duration
}

// DefaultConfig returns the production token budgets
func DefaultConfig() Config {
	return Config{
		MaxTokensBeforeSummarization: 120000,
		ChunkSize:                    50000,
		MegaSummaryTarget:            5000,
		MaxDepth:                     3,
		LLMTimeout:                   300 * time.Second,
	}
}

// NeedsSummarization reports whether a document of the given token count must
// go through the map-reduce pass. The boundary is exclusive: a document at
// exactly the threshold takes the direct path.
func (c Config) NeedsSummarization(totalTokens int) bool {
	return totalTokens > c.MaxTokensBeforeSummarization
}

// Stats describes what one Reduce call did
type Stats struct {
	// ChunkCount is the number of first-level chunks summarized
	ChunkCount int

	// LLMCalls is the total number of summarization calls across all levels
	LLMCalls int

	// Depth is the number of reduction levels performed
	Depth int
}

// Summarizer performs the hierarchical reduction. Chunk summarization is
// deliberately sequential: each call waits for the previous one, and results
// are merged in index order. A future bounded-concurrency upgrade only needs
// to preserve that index ordering at the merge.
type Summarizer struct {
	llmClient gollem.LLMClient
	counter   tokenizer.Counter
	cfg       Config
}

// New creates a Summarizer
func New(llmClient gollem.LLMClient, counter tokenizer.Counter, cfg Config) (*Summarizer, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if counter == nil {
		return nil, goerr.New("token counter is required")
	}
	if cfg.ChunkSize <= 0 || cfg.MegaSummaryTarget <= 0 || cfg.MaxDepth <= 0 {
		return nil, goerr.New("invalid summarizer config",
			goerr.V("chunk_size", cfg.ChunkSize),
			goerr.V("mega_summary_target", cfg.MegaSummaryTarget),
			goerr.V("max_depth", cfg.MaxDepth))
	}
	return &Summarizer{
		llmClient: llmClient,
		counter:   counter,
		cfg:       cfg,
	}, nil
}

// Reduce returns the text unchanged when it fits within the summarization
// threshold; otherwise it maps chunk summaries and reduces them until the
// merge fits MegaSummaryTarget or MaxDepth is reached.
func (s *Summarizer) Reduce(ctx context.Context, text string) (string, *Stats, error) {
	logger := logging.From(ctx)
	stats := &Stats{}

	total := s.counter.Count(text)
	if !s.cfg.NeedsSummarization(total) {
		return text, stats, nil
	}

	current := text
	for depth := 1; ; depth++ {
		pieces := splitter.Split(current, s.counter, s.cfg.ChunkSize)
		logger.Info("Summarizing chunks",
			"depth", depth,
			"chunks", len(pieces),
			"tokens", s.counter.Count(current),
		)

		units := make([]model.SummaryUnit, 0, len(pieces))
		for idx, piece := range pieces {
			summary, err := s.summarizeChunk(ctx, piece, depth)
			if err != nil {
				return "", nil, goerr.Wrap(err, "failed to summarize chunk",
					goerr.V("depth", depth),
					goerr.V("chunk_index", idx))
			}
			units = append(units, model.SummaryUnit{
				Index:  idx,
				Text:   summary,
				Tokens: s.counter.Count(summary),
			})
			stats.LLMCalls++
		}

		if depth == 1 {
			stats.ChunkCount = len(pieces)
		}
		stats.Depth = depth

		merged := mergeUnits(units)
		mergedTokens := s.counter.Count(merged)

		if mergedTokens <= s.cfg.MegaSummaryTarget {
			return merged, stats, nil
		}
		if depth >= s.cfg.MaxDepth {
			logger.Warn("Mega summary still exceeds target at max depth, using as-is",
				"tokens", mergedTokens,
				"target", s.cfg.MegaSummaryTarget,
				"depth", depth,
			)
			return merged, stats, nil
		}

		current = merged
	}
}

// megaTokenHeadroom is added to MegaSummaryTarget when bounding the output
// of reduction-level calls, so a summary near the target is not cut off
const megaTokenHeadroom = 500

// summarizeChunk issues one summarization call. First-level pieces use the
// plain chunk prompt; deeper levels synthesize summaries-of-summaries toward
// the mega-summary target, with the output hard-bounded above the target.
func (s *Summarizer) summarizeChunk(ctx context.Context, text string, depth int) (string, error) {
	var buf bytes.Buffer
	var err error
	var opts []gollem.GenerateOption
	if depth == 1 {
		err = chunkPrompt.Execute(&buf, map[string]any{"Text": text})
	} else {
		err = megaPrompt.Execute(&buf, map[string]any{
			"Text":         text,
			"TargetTokens": s.cfg.MegaSummaryTarget,
		})
		opts = append(opts, gollem.WithMaxTokens(s.cfg.MegaSummaryTarget+megaTokenHeadroom))
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to render summarization prompt")
	}

	callCtx := ctx
	if s.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.LLMTimeout)
		defer cancel()
	}

	session, err := s.llmClient.NewSession(callCtx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(callCtx, []gollem.Input{gollem.Text(buf.String())}, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "summarization call failed")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty summarization response")
	}

	return resp.Texts[0], nil
}

// mergeUnits concatenates summaries in their original chunk order
func mergeUnits(units []model.SummaryUnit) string {
	texts := make([]string, len(units))
	for _, u := range units {
		texts[u.Index] = u.Text
	}
	return strings.Join(texts, model.ChunkJoiner)
}
