package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops-lab/argus/pkg/cli/config"
	httpctrl "github.com/caseops-lab/argus/pkg/controller/http"
	"github.com/caseops-lab/argus/pkg/service/worker"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/caseops-lab/argus/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var healthInterval time.Duration
	var storageCfg config.Storage
	var geminiCfg config.Gemini
	var pipelineCfg config.Pipeline
	var promptsCfg config.Prompts

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ARGUS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "health-interval",
			Usage:       "Interval of the background store health probe",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("ARGUS_HEALTH_INTERVAL"),
			Destination: &healthInterval,
		},
	}
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, promptsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize vector store")
			}
			defer safe.Close(ctx, store)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}

			pipelineConf, err := pipelineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "invalid pipeline configuration")
			}

			prompts, err := promptsCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load prompt configuration")
			}
			if prompts != nil {
				logging.Default().Info("Case-type prompt guidance enabled", "path", promptsCfg.Path())
			}

			uc, err := usecase.New(store, llmClient,
				usecase.WithConfig(pipelineConf),
				usecase.WithPrompts(prompts),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			healthWorker := worker.NewStoreHealthWorker(store, healthInterval)
			if err := healthWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start store health worker")
			}

			httpHandler := httpctrl.New(uc,
				httpctrl.WithPinger(healthWorker),
				httpctrl.WithVersion(version),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "storage", storageCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				healthWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				healthWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
