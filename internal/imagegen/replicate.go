package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/swrite/internal/fetch"
)

// DefaultModel is the diffusion model used for handwriting synthesis.
const DefaultModel = "stability-ai/stable-diffusion-3.5-medium"

const replicateBaseURL = "https://api.replicate.com/v1"

// replicateTimeout covers one synchronous prediction including queue time.
const replicateTimeout = 5 * time.Minute

// ReplicateClient implements Generator against the Replicate predictions API
// using synchronous (Prefer: wait) requests.
type ReplicateClient struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewReplicateClient creates a client for the given API token. An empty
// model selects DefaultModel.
func NewReplicateClient(token, model string) *ReplicateClient {
	if model == "" {
		model = DefaultModel
	}
	return &ReplicateClient{
		token:      token,
		model:      model,
		baseURL:    replicateBaseURL,
		httpClient: &http.Client{Timeout: replicateTimeout},
	}
}

type predictionRequest struct {
	Input map[string]any `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

// Generate runs one prediction and downloads the resulting image.
func (c *ReplicateClient) Generate(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(predictionRequest{Input: map[string]any{
		"prompt":              req.Prompt,
		"negative_prompt":     req.NegativePrompt,
		"seed":                req.Seed,
		"width":               req.Width,
		"height":              req.Height,
		"num_inference_steps": req.Steps,
		"guidance_scale":      req.Guidance,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("prediction returned status %d: %s", resp.StatusCode, truncate(respBody, 512))
	}

	var pred predictionResponse
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	if pred.Error != nil && *pred.Error != "" {
		return nil, fmt.Errorf("prediction failed: %s", *pred.Error)
	}

	imageURL, err := outputURL(pred.Output)
	if err != nil {
		return nil, err
	}

	imageBytes, err := fetch.Bytes(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated image: %w", err)
	}
	return imageBytes, nil
}

// outputURL extracts the image URL from a prediction output, which is either
// a string or a list of strings depending on the model.
func outputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty prediction output")
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return "", fmt.Errorf("empty image URL in prediction output")
		}
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 || list[0] == "" {
			return "", fmt.Errorf("empty image URL list in prediction output")
		}
		return list[0], nil
	}

	return "", fmt.Errorf("unrecognized prediction output shape: %s", truncate(raw, 128))
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
