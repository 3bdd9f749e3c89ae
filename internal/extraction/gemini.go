package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"example.com/fleetdocs/config"
	"example.com/fleetdocs/internal/model"
)

// GeminiExtractor implements Extractor using the Google Gemini API
type GeminiExtractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiExtractor creates a new Gemini-backed extractor
func NewGeminiExtractor(ctx context.Context, cfg *config.GeminiConfig) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	generativeModel := client.GenerativeModel(modelName)
	generativeModel.ResponseMIMEType = "application/json"

	return &GeminiExtractor{
		client: client,
		model:  generativeModel,
	}, nil
}

// Close closes the client connection
func (e *GeminiExtractor) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// extractionPrompt asks for the fields a document record carries, with a
// confidence per field. Dates must come back in calendar form.
func extractionPrompt(kind model.DocumentKind) string {
	return fmt.Sprintf(`You are reading a scanned vehicle document of type %q.
Extract the following fields if present: reference_number, start_date, expiry_date, registration.
Dates must be formatted as YYYY-MM-DD.
Respond with a JSON object mapping each found field name to {"value": string, "confidence": number between 0 and 1}.
Omit fields you cannot find. Respond with JSON only.`, kind.Label())
}

// SuggestFields sends the scanned file to Gemini and parses the suggested
// field values. Every value returned is an unverified candidate.
func (e *GeminiExtractor) SuggestFields(ctx context.Context, kind model.DocumentKind, fileBytes []byte, mimeType string) (map[string]FieldSuggestion, error) {
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	resp, err := e.model.GenerateContent(ctx,
		genai.Text(extractionPrompt(kind)),
		genai.Blob{MIMEType: mimeType, Data: fileBytes},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	fullText, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return parseSuggestions(fullText)
}

// responseText concatenates the text parts of the first candidate. A
// safety-blocked candidate arrives with a nil Content.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var fullText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText += string(txt)
		}
	}
	return fullText, nil
}

// parseSuggestions decodes the model's JSON reply and clamps each
// confidence into [0, 1]
func parseSuggestions(fullText string) (map[string]FieldSuggestion, error) {
	// The model occasionally wraps JSON in a code fence
	fullText = strings.TrimSpace(fullText)
	fullText = strings.TrimPrefix(fullText, "```json")
	fullText = strings.TrimPrefix(fullText, "```")
	fullText = strings.TrimSuffix(fullText, "```")

	var suggestions map[string]FieldSuggestion
	if err := json.Unmarshal([]byte(fullText), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	for name, suggestion := range suggestions {
		if suggestion.Confidence < 0 {
			suggestion.Confidence = 0
		}
		if suggestion.Confidence > 1 {
			suggestion.Confidence = 1
		}
		suggestions[name] = suggestion
	}

	return suggestions, nil
}
