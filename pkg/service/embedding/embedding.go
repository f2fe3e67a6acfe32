// Package embedding produces the dense and sparse vector representations
// stored with each insight record for hybrid retrieval.
package embedding

import (
	"context"

	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// Service generates embeddings for insight texts at store time
type Service interface {
	// Dense generates a semantic embedding via the LLM provider
	Dense(ctx context.Context, text string) ([]float32, error)

	// Sparse generates a lexical BM25-style embedding locally
	Sparse(text string) *model.SparseVector
}

type service struct {
	llmClient gollem.LLMClient
}

// New creates an embedding service backed by the provided LLM client
func New(llmClient gollem.LLMClient) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &service{llmClient: llmClient}, nil
}

func (s *service) Dense(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}

func (s *service) Sparse(text string) *model.SparseVector {
	return SparseEmbed(text)
}
