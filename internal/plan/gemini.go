package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/jonathan/swrite/internal/domain"
)

// --- Pagination Engine Prompts ---
const paginationSystemPrompt = `You are a document layout and pagination engine.

Your role:
- Read documents visually.
- Decide page boundaries based on handwriting capacity.
- Output page-separated content.

STRICT RULES:
- Do NOT rewrite, paraphrase, summarize, or correct text.
- Do NOT add or remove any words.
- Preserve wording and order EXACTLY as seen.
- Preserve line breaks where possible.
- You may ONLY decide where page breaks occur.

OUTPUT RULES:
- Output ONLY valid JSON.
- No markdown.
- No explanations.
- No extra keys.`

const paginationUserPromptTemplate = `You are given:

1) The original input document, page by page.
2) A reference handwriting image (the LAST image) showing writing density and style.
3) Layout constraints that affect how much content fits on a page.

Your task:
- Visually read the input document.
- Estimate handwritten page capacity based on the reference handwriting.
- Consider the layout constraints carefully.
- Split the document into handwritten-sized pages.
- Return page-separated content.

IMPORTANT:
- Preserve wording EXACTLY.
- Preserve order EXACTLY.
- Do NOT rewrite or clean text.
- Only split content.

Layout constraints (must be respected):
%s

Output format (STRICT):

{
  "pages": [
    { "page": 1, "content": "EXACT text for page 1" },
    { "page": 2, "content": "EXACT text for page 2" }
  ]
}

If layout constraints reduce page capacity, create more pages.
If constraints are generous, reduce page count.

Return ONLY JSON.`

// GeminiPlanner implements VisionPlanner on a Gemini multimodal model.
type GeminiPlanner struct {
	client *genai.Client
	model  string
}

// NewGeminiPlanner wraps an existing Gemini client as the pagination engine.
func NewGeminiPlanner(client *genai.Client, model string) *GeminiPlanner {
	if model == "" {
		model = "gemini-1.5-pro"
	}
	return &GeminiPlanner{client: client, model: model}
}

// PlanPages submits the source page images plus the reference handwriting
// sample and returns the planned page slices. The model is configured for
// deterministic JSON output; the response is schema-validated before use.
func (p *GeminiPlanner) PlanPages(ctx context.Context, images [][]byte, refSample []byte, layout domain.LayoutConfig) ([]PlannedPage, error) {
	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(paginationSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	layoutJSON, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout constraints: %w", err)
	}

	parts := make([]genai.Part, 0, len(images)+2)
	parts = append(parts, genai.Text(fmt.Sprintf(paginationUserPromptTemplate, layoutJSON)))
	for _, img := range images {
		parts = append(parts, genai.ImageData("jpeg", img))
	}
	// Reference sample last, as the prompt promises.
	parts = append(parts, genai.ImageData("jpeg", refSample))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("pagination call failed: %w", err)
	}

	raw, err := textFromResponse(resp)
	if err != nil {
		return nil, err
	}
	return parsePlanResponse(raw)
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
