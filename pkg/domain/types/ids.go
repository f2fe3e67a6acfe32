package types

import "github.com/m-mizutani/goerr/v2"

// CaseID identifies an investigation case
type CaseID string

// Validate checks if the case ID is usable
func (id CaseID) Validate() error {
	if id == "" {
		return goerr.New("case ID is empty")
	}
	return nil
}

// String returns the string representation of the case ID
func (id CaseID) String() string {
	return string(id)
}

// FileID identifies one evidence file within a case
type FileID string

// Validate checks if the file ID is usable
func (id FileID) Validate() error {
	if id == "" {
		return goerr.New("file ID is empty")
	}
	return nil
}

// String returns the string representation of the file ID
func (id FileID) String() string {
	return string(id)
}
