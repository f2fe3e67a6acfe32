// Package splitter divides large texts into token-budgeted pieces for
// chunk-by-chunk summarization. Pieces are carved from the original string at
// byte offsets, so joining them with an empty separator reconstructs the
// input exactly.
package splitter

import (
	"strings"

	"github.com/caseops-lab/argus/pkg/service/tokenizer"
)

// sentence terminators, in addition to the paragraph joiner "\n\n"
var sentenceEnds = []string{". ", "! ", "? ", "\n"}

// Split divides text into ordered pieces whose token count does not exceed
// budget. Cuts happen after paragraph boundaries when possible, then after
// sentence boundaries, then after whitespace. A single unbreakable run longer
// than the budget is emitted as one oversized piece rather than cut mid-word.
// strings.Join(pieces, "") always equals text. Because cuts land on boundaries
// rather than exact token fill, boundary-sparse text can produce more pieces
// than the token-count minimum of ceil(total/budget).
func Split(text string, counter tokenizer.Counter, budget int) []string {
	if text == "" {
		return nil
	}
	if budget <= 0 || counter.Count(text) <= budget {
		return []string{text}
	}

	var pieces []string
	rest := text
	for rest != "" {
		if counter.Count(rest) <= budget {
			pieces = append(pieces, rest)
			break
		}

		limit := maxPrefix(rest, counter, budget)
		cut := lastBoundary(rest[:limit])
		if cut <= 0 {
			cut = atomicEnd(rest, limit)
		}
		pieces = append(pieces, rest[:cut])
		rest = rest[cut:]
	}

	return pieces
}

// maxPrefix returns the length of the longest prefix of s that fits within
// budget tokens. Counters are monotonic in input length, so binary search on
// the byte offset is valid. The result is only a search window bound; actual
// cuts land on boundary characters.
func maxPrefix(s string, counter tokenizer.Counter, budget int) int {
	lo, hi := 1, len(s)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(s[:mid]) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// lastBoundary finds the rightmost natural cut position in s: just after the
// last paragraph break, else just after the last sentence end, else just
// after the last space. Returns 0 when s contains no boundary at all.
func lastBoundary(s string) int {
	if idx := strings.LastIndex(s, "\n\n"); idx >= 0 {
		return idx + 2
	}

	best := 0
	for _, end := range sentenceEnds {
		if idx := strings.LastIndex(s, end); idx >= 0 && idx+len(end) > best {
			best = idx + len(end)
		}
	}
	if best > 0 {
		return best
	}

	if idx := strings.LastIndexAny(s, " \t"); idx >= 0 {
		return idx + 1
	}
	return 0
}

// atomicEnd handles an unbreakable run longer than the budget: the piece
// extends to the first whitespace at or after the window so the run is
// emitted whole, uncorrupted.
func atomicEnd(s string, limit int) int {
	if idx := strings.IndexAny(s[limit:], " \t\n"); idx >= 0 {
		return limit + idx + 1
	}
	return len(s)
}
