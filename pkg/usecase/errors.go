package usecase

import "errors"

// Sentinel errors for the insight pipeline. Every failure is wrapped around
// one of these so callers can map it to a transport status.
var (
	// ErrInvalidInput marks requests rejected before any external call
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoChunksFound marks an identity with no stored document chunks
	ErrNoChunksFound = errors.New("no chunks found")

	// ErrUpstream marks LLM, embedding or vector store failures
	ErrUpstream = errors.New("upstream failure")
)

// Context keys for error values
const (
	StageKey      = "stage"
	CaseIDKey     = "case_id"
	FileIDKey     = "file_id"
	DataSourceKey = "data_source"
)
