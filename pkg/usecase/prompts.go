package usecase

import (
	"sort"
	"strings"
)

// PromptLibrary resolves case-type-specific guidance blocks for the insight
// prompt. Case types are free text: lookups are case-insensitive and unknown
// types resolve to no extra guidance, leaving the generic template.
type PromptLibrary struct {
	guidance map[string]string
}

// NewPromptLibrary creates a library from case-type label to guidance text
func NewPromptLibrary(entries map[string]string) *PromptLibrary {
	guidance := make(map[string]string, len(entries))
	for label, text := range entries {
		guidance[normalizeCaseType(label)] = text
	}
	return &PromptLibrary{guidance: guidance}
}

// Guidance returns the extra instruction block for the case type, or an
// empty string when none is configured
func (l *PromptLibrary) Guidance(caseType string) string {
	if l == nil {
		return ""
	}
	return l.guidance[normalizeCaseType(caseType)]
}

// CaseTypes returns the configured case-type labels in sorted order
func (l *PromptLibrary) CaseTypes() []string {
	if l == nil {
		return nil
	}
	labels := make([]string, 0, len(l.guidance))
	for label := range l.guidance {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func normalizeCaseType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
