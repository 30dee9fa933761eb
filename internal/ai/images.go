package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultImagePrefix is how many leading news items get an image.
const DefaultImagePrefix = 2

// ImageEnricher produces an illustrative image URL for a headline. An empty
// URL with a nil error means "no image".
type ImageEnricher interface {
	ImageFor(ctx context.Context, title string) (string, error)
}

// DisabledImages never produces an image.
type DisabledImages struct{}

func (DisabledImages) ImageFor(context.Context, string) (string, error) { return "", nil }

type imageGenerator interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiImages renders one image per headline with an Imagen model and
// returns it inline as a data: URL.
type GeminiImages struct {
	gen     imageGenerator
	model   string
	timeout time.Duration
}

// NewGeminiImages creates the enricher backed by the Gemini API.
func NewGeminiImages(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiImages, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required for image generation")
	}
	if model == "" {
		return nil, fmt.Errorf("image model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiImages(client.Models, model, timeout), nil
}

func newGeminiImages(gen imageGenerator, model string, timeout time.Duration) *GeminiImages {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiImages{gen: gen, model: model, timeout: timeout}
}

func (g *GeminiImages) ImageFor(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Editorial illustration for a financial news headline, no text, no logos: %q", title)
	resp, err := g.gen.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", errors.New("image generation returned no image")
	}
	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		return "", errors.New("image generation returned empty bytes")
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.ImageBytes), nil
}
