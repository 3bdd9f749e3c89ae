package extraction

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

func TestResponseTextConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text(`{"reference_`), genai.Text(`number":`)},
				},
			},
		},
	}

	text, err := responseText(resp)
	require.NoError(t, err)
	require.Equal(t, `{"reference_number":`, text)
}

func TestResponseTextNoCandidates(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	require.Error(t, err)
}

func TestResponseTextBlockedCandidate(t *testing.T) {
	// Safety-blocked candidates carry a finish reason but no content
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{FinishReason: genai.FinishReasonSafety},
		},
	}

	_, err := responseText(resp)
	require.Error(t, err)
}

func TestParseSuggestionsStripsCodeFence(t *testing.T) {
	suggestions, err := parseSuggestions("```json\n{\"expiry_date\": {\"value\": \"2026-09-01\", \"confidence\": 0.9}}\n```")
	require.NoError(t, err)
	require.Equal(t, "2026-09-01", suggestions["expiry_date"].Value)
}

func TestParseSuggestionsClampsConfidence(t *testing.T) {
	suggestions, err := parseSuggestions(`{
		"reference_number": {"value": "POL-9", "confidence": 1.7},
		"start_date": {"value": "2026-01-01", "confidence": -0.2}
	}`)
	require.NoError(t, err)
	require.Equal(t, 1.0, suggestions["reference_number"].Confidence)
	require.Equal(t, 0.0, suggestions["start_date"].Confidence)
}

func TestParseSuggestionsRejectsNonJSON(t *testing.T) {
	_, err := parseSuggestions("the document appears to be an insurance policy")
	require.Error(t, err)
}
