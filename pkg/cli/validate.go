package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops-lab/argus/pkg/cli/config"
	"github.com/caseops-lab/argus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var promptPath string
	var pipelineCfg config.Pipeline

	var flags []cli.Flag
	flags = append(flags, &cli.StringFlag{
		Name:        "prompt-config",
		Usage:       "Path to the TOML case-type guidance file",
		Required:    true,
		Sources:     cli.EnvVars("ARGUS_PROMPT_CONFIG"),
		Destination: &promptPath,
	})
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate configuration files",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cfg, err := config.LoadPromptConfig(promptPath)
			if err != nil {
				return goerr.Wrap(err, "prompt configuration validation failed")
			}

			logger.Info("Prompt configuration validation passed",
				"case_type_count", len(cfg.CaseTypes),
			)
			for _, ct := range cfg.CaseTypes {
				logger.Info("Case type validated",
					"name", ct.Name,
					"guidance_length", len(ct.Guidance),
				)
			}

			if _, err := pipelineCfg.Configure(); err != nil {
				return goerr.Wrap(err, "pipeline configuration validation failed")
			}
			logger.Info("Pipeline configuration validation passed", "pipeline", pipelineCfg)

			return nil
		},
	}
}
