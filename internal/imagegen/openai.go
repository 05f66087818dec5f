// Package imagegen wraps the OpenAI image generation API.
package imagegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Generation parameters. Icons are always generated at a fixed small
// size with base64 transport encoding so blobs never round-trip through
// provider-hosted URLs.
const (
	generationModel = openai.ImageModelDallE2
	generationSize  = openai.ImageGenerateParamsSize256x256
)

// ErrNoImages indicates the provider returned an empty or incomplete batch.
var ErrNoImages = errors.New("provider returned no images")

// Client calls the OpenAI image generation endpoint.
type Client struct {
	api openai.Client
}

// New creates a Client authenticated with the given API key.
// Extra request options (base URL overrides for tests, custom HTTP
// clients) are passed through to the underlying SDK client.
func New(apiKey string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{api: openai.NewClient(opts...)}
}

// Generate requests n images for the prompt and returns their base64
// payloads. The batch is all-or-nothing: a provider error, an empty
// response, or any missing slot fails the whole call.
func (c *Client) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	res, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          generationModel,
		N:              openai.Int(int64(n)),
		Size:           generationSize,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}

	if len(res.Data) < n {
		return nil, fmt.Errorf("%w: got %d of %d", ErrNoImages, len(res.Data), n)
	}

	blobs := make([]string, 0, n)
	for i, img := range res.Data[:n] {
		if img.B64JSON == "" {
			return nil, fmt.Errorf("%w: missing payload at index %d", ErrNoImages, i)
		}
		blobs = append(blobs, img.B64JSON)
	}

	return blobs, nil
}
