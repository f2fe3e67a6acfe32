package config

import (
	"context"
	"log/slog"

	"github.com/caseops-lab/argus/pkg/domain/interfaces"
	"github.com/caseops-lab/argus/pkg/repository/memory"
	qdrantrepo "github.com/caseops-lab/argus/pkg/repository/qdrant"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Storage holds CLI flags for vector store backend configuration
type Storage struct {
	backend    string
	host       string
	port       int
	apiKey     string `masq:"secret"`
	useTLS     bool
	collection string
}

// Flags returns CLI flags for storage configuration
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Vector store backend type (qdrant or memory)",
			Value:       "qdrant",
			Sources:     cli.EnvVars("ARGUS_STORAGE_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "qdrant-host",
			Usage:       "Qdrant server host",
			Value:       "localhost",
			Sources:     cli.EnvVars("ARGUS_QDRANT_HOST"),
			Destination: &s.host,
		},
		&cli.IntFlag{
			Name:        "qdrant-port",
			Usage:       "Qdrant gRPC port",
			Value:       6334,
			Sources:     cli.EnvVars("ARGUS_QDRANT_PORT"),
			Destination: &s.port,
		},
		&cli.StringFlag{
			Name:        "qdrant-api-key",
			Usage:       "Qdrant API key",
			Sources:     cli.EnvVars("ARGUS_QDRANT_API_KEY"),
			Destination: &s.apiKey,
		},
		&cli.BoolFlag{
			Name:        "qdrant-tls",
			Usage:       "Use TLS for the Qdrant connection",
			Sources:     cli.EnvVars("ARGUS_QDRANT_TLS"),
			Destination: &s.useTLS,
		},
		&cli.StringFlag{
			Name:        "qdrant-collection",
			Usage:       "Qdrant collection name",
			Value:       "case-documents",
			Sources:     cli.EnvVars("ARGUS_QDRANT_COLLECTION"),
			Destination: &s.collection,
		},
	}
}

// LogValue returns the storage configuration as a structured log value
func (s Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", s.backend),
		slog.String("host", s.host),
		slog.Int("port", s.port),
		slog.Bool("tls", s.useTLS),
		slog.String("collection", s.collection),
	)
}

// Configure initializes and returns a vector store based on the configured
// backend. The caller is responsible for calling Close() on the returned
// store.
func (s *Storage) Configure(ctx context.Context) (interfaces.VectorStore, error) {
	switch s.backend {
	case "qdrant":
		store, err := qdrantrepo.New(ctx, qdrantrepo.Config{
			Host:       s.host,
			Port:       s.port,
			APIKey:     s.apiKey,
			UseTLS:     s.useTLS,
			Collection: s.collection,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize qdrant store")
		}
		logging.Default().Info("Using Qdrant vector store",
			"host", s.host,
			"port", s.port,
			"collection", s.collection,
		)
		return store, nil

	case "memory":
		logging.Default().Info("Using in-memory vector store (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid storage backend", goerr.V("backend", s.backend))
	}
}
