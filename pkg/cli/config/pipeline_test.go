package config_test

import (
	"testing"

	"github.com/caseops-lab/argus/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestPipeline_Configure(t *testing.T) {
	t.Run("valid budgets", func(t *testing.T) {
		p := config.NewPipelineForTest(120000, 50000, 5000, 3, 2000)
		cfg, err := p.Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, cfg.Summarize.MaxTokensBeforeSummarization).Equal(120000)
		gt.Number(t, cfg.Summarize.ChunkSize).Equal(50000)
		gt.Number(t, cfg.InsightsMaxTokens).Equal(2000)
	})

	t.Run("chunk size above threshold", func(t *testing.T) {
		p := config.NewPipelineForTest(100, 200, 50, 3, 2000)
		_, err := p.Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("non-positive chunk size", func(t *testing.T) {
		p := config.NewPipelineForTest(100, 0, 50, 3, 2000)
		_, err := p.Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("non-positive insight budget", func(t *testing.T) {
		p := config.NewPipelineForTest(100, 50, 20, 3, 0)
		_, err := p.Configure()
		gt.Value(t, err).NotNil()
	})
}

func TestStorage_Configure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		s := config.NewStorageForTest("memory")
		store, err := s.Configure(t.Context())
		gt.NoError(t, err).Required()
		gt.Value(t, store).NotNil()
		gt.NoError(t, store.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		s := config.NewStorageForTest("etcd")
		_, err := s.Configure(t.Context())
		gt.Value(t, err).NotNil()
	})
}
