package config

import (
	"os"
	"strings"

	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// PromptConfig is the TOML schema of the case-type guidance file
type PromptConfig struct {
	CaseTypes []CaseTypePrompt `toml:"case_type"`
}

// CaseTypePrompt holds extra prompt guidance for one case type
type CaseTypePrompt struct {
	Name     string `toml:"name"`
	Guidance string `toml:"guidance"`
}

// Validate checks if the CaseTypePrompt is valid
func (c *CaseTypePrompt) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return goerr.Wrap(ErrMissingName, "case type name is required")
	}
	if strings.TrimSpace(c.Guidance) == "" {
		return goerr.New("case type guidance is required", goerr.V(CaseTypeKey, c.Name))
	}
	return nil
}

// Validate checks if the PromptConfig is valid
func (p *PromptConfig) Validate() error {
	seen := make(map[string]bool)
	for _, ct := range p.CaseTypes {
		if err := ct.Validate(); err != nil {
			return goerr.Wrap(err, "invalid case type prompt")
		}
		key := strings.ToLower(strings.TrimSpace(ct.Name))
		if seen[key] {
			return goerr.Wrap(ErrDuplicateCaseType, "duplicate case type", goerr.V(CaseTypeKey, ct.Name))
		}
		seen[key] = true
	}
	return nil
}

// LoadPromptConfig loads and validates the case-type guidance file
func LoadPromptConfig(path string) (*PromptConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(ErrConfigNotFound, "failed to read prompt config",
			goerr.V(ConfigPathKey, path))
	}

	var cfg PromptConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML prompt config",
			goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "prompt config validation failed",
			goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// ToPromptLibrary converts the config to the prompt library used by the
// insight pipeline
func (p *PromptConfig) ToPromptLibrary() *usecase.PromptLibrary {
	entries := make(map[string]string, len(p.CaseTypes))
	for _, ct := range p.CaseTypes {
		entries[ct.Name] = ct.Guidance
	}
	return usecase.NewPromptLibrary(entries)
}

// Prompts holds the CLI flag pointing at the guidance file
type Prompts struct {
	path string
}

// Flags returns CLI flags for prompt configuration
func (p *Prompts) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt-config",
			Usage:       "Path to the TOML case-type guidance file (optional)",
			Sources:     cli.EnvVars("ARGUS_PROMPT_CONFIG"),
			Destination: &p.path,
		},
	}
}

// Path returns the configured guidance file path
func (p *Prompts) Path() string {
	return p.path
}

// Configure loads the guidance file when configured. Without a file every
// case type falls back to the generic prompt.
func (p *Prompts) Configure() (*usecase.PromptLibrary, error) {
	if p.path == "" {
		return nil, nil
	}

	cfg, err := LoadPromptConfig(p.path)
	if err != nil {
		return nil, err
	}
	return cfg.ToPromptLibrary(), nil
}
