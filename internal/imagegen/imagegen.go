// Package imagegen defines the image-generation collaborator contract used
// by the handwriting renderer.
package imagegen

import "context"

// Request describes one page-image generation call. The seed makes the call
// deterministic; geometry and sampler settings are fixed by the renderer.
type Request struct {
	Prompt         string
	NegativePrompt string
	Seed           uint32
	Width          int
	Height         int
	Steps          int
	Guidance       float64
}

// Generator produces one image per call. Implementations must treat an empty
// or invalid result as an error; retry policy belongs to the caller.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}
