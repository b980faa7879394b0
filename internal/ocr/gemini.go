package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// ocrPrompt keeps the model in pure transcription mode. Dense-text documents
// and handwriting both go through the same instruction.
const ocrPrompt = `Transcribe ALL text visible in this image, exactly as written.
Preserve line breaks and reading order. Do not describe the image, do not
summarize, do not correct spelling. Output the transcription only.`

// GeminiEngine performs OCR through a Gemini vision model.
type GeminiEngine struct {
	client *genai.Client
	model  string
}

// NewGeminiEngine wraps an existing Gemini client as an OCR engine.
func NewGeminiEngine(client *genai.Client, model string) *GeminiEngine {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiEngine{client: client, model: model}
}

// ImageText transcribes one page image.
func (e *GeminiEngine) ImageText(ctx context.Context, jpegData []byte) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.SetTemperature(0) // transcription must not be creative

	resp, err := model.GenerateContent(ctx,
		genai.ImageData("jpeg", jpegData),
		genai.Text(ocrPrompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe image: %w", err)
	}

	return textFromResponse(resp)
}

// textFromResponse extracts text from a Gemini API response.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
