package extraction

import (
	"context"

	"example.com/fleetdocs/internal/model"
)

// FieldSuggestion is one extracted field candidate. Suggestions are shown to
// a human for confirmation and are never applied to a document on their own.
type FieldSuggestion struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Extractor suggests document field values from a scanned file
type Extractor interface {
	SuggestFields(ctx context.Context, kind model.DocumentKind, fileBytes []byte, mimeType string) (map[string]FieldSuggestion, error)
}

// NoopExtractor is used when no extraction backend is configured
type NoopExtractor struct{}

// SuggestFields returns no suggestions
func (NoopExtractor) SuggestFields(ctx context.Context, kind model.DocumentKind, fileBytes []byte, mimeType string) (map[string]FieldSuggestion, error) {
	return map[string]FieldSuggestion{}, nil
}
