package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops-lab/argus/pkg/cli/config"
	"github.com/caseops-lab/argus/pkg/domain/model"
	"github.com/caseops-lab/argus/pkg/domain/types"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/caseops-lab/argus/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdGenerate() *cli.Command {
	var caseID string
	var fileID string
	var caseType string
	var dataSource string
	var storageCfg config.Storage
	var geminiCfg config.Gemini
	var pipelineCfg config.Pipeline
	var promptsCfg config.Prompts

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "case-id",
			Usage:       "Case identifier",
			Required:    true,
			Sources:     cli.EnvVars("ARGUS_CASE_ID"),
			Destination: &caseID,
		},
		&cli.StringFlag{
			Name:        "file-id",
			Usage:       "File identifier of the ingested document",
			Required:    true,
			Sources:     cli.EnvVars("ARGUS_FILE_ID"),
			Destination: &fileID,
		},
		&cli.StringFlag{
			Name:        "case-type",
			Usage:       "Case type label (e.g. fraud, homicide)",
			Required:    true,
			Sources:     cli.EnvVars("ARGUS_CASE_TYPE"),
			Destination: &caseType,
		},
		&cli.StringFlag{
			Name:        "data-source",
			Usage:       "Data source of the file (audio, video, image, ufed_extraction, others)",
			Required:    true,
			Sources:     cli.EnvVars("ARGUS_DATA_SOURCE"),
			Destination: &dataSource,
		},
	}
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, promptsCfg.Flags()...)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"g"},
		Usage:   "Generate insights for one file and print them",
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

			uc, err := usecase.New(store, llmClient,
				usecase.WithConfig(pipelineConf),
				usecase.WithPrompts(prompts),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			rec, err := uc.Insight.Generate(ctx, &model.InsightRequest{
				CaseID:     types.CaseID(caseID),
				FileID:     types.FileID(fileID),
				CaseType:   caseType,
				DataSource: types.DataSource(dataSource),
			})
			if err != nil {
				return goerr.Wrap(err, "insight generation failed")
			}

			printRecord(rec)
			return nil
		},
	}
}

func printRecord(rec *model.InsightRecord) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiWhite)

	header.Fprintln(os.Stdout, "=== Insights ===")                                 //nolint:errcheck // terminal output
	fmt.Fprintln(os.Stdout, rec.Insights)                                          //nolint:errcheck // terminal output
	header.Fprintln(os.Stdout, "=== Details ===")                                  //nolint:errcheck // terminal output
	label.Fprintf(os.Stdout, "provenance:         %s\n", rec.Provenance)           //nolint:errcheck // terminal output
	label.Fprintf(os.Stdout, "chunk count:        %d\n", rec.ChunkCount)           //nolint:errcheck // terminal output
	label.Fprintf(os.Stdout, "total tokens:       %d\n", rec.TotalTokens)          //nolint:errcheck // terminal output
	label.Fprintf(os.Stdout, "summarization:      %v\n", rec.UsedSummarization)    //nolint:errcheck // terminal output
	if rec.UsedSummarization {
		label.Fprintf(os.Stdout, "summary chunks:     %d\n", rec.NumSummaryChunks) //nolint:errcheck // terminal output
	}
}
