package tokenizer

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates how many tokens a downstream language model would consume
// for a text. Implementations must be deterministic and monotonic in input
// length, and must return 0 for empty input.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts tokens with the cl100k_base BPE encoding
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken creates a cl100k_base token counter. The encoding data is
// loaded (and cached) on first use, which may require network access.
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load cl100k_base encoding")
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the exact cl100k_base token count of the text
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// charsPerToken is the rough average for English text under BPE encodings
const charsPerToken = 4

// Estimator approximates token counts with a chars-per-token heuristic.
// Good enough for budget thresholds, not for billing. It needs no encoding
// data, so tests and offline deployments use it.
type Estimator struct{}

// NewEstimator creates a heuristic token counter
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Count returns ceil(len/4) as the token estimate
func (e *Estimator) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}
