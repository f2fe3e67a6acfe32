package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrMissingName       = goerr.New("name is required")
	ErrDuplicateCaseType = goerr.New("duplicate case type")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	CaseTypeKey   = "case_type"
)
