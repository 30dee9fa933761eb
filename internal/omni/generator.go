package omni

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/models"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// ErrQuota marks generator failures caused by an exhausted usage allowance.
var ErrQuota = errors.New("model quota exhausted")

// Generation is one grounded model answer.
type Generation struct {
	Text string
	// Citations are the web sources the model grounded its answer on.
	Citations []ai.WireNews
}

// Generator produces a JSON answer for a prompt using live web search.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a Generator backed by the Gemini API with Google Search grounding.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini generator. An empty model selects DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(m contentGenerator, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{models: m, model: model}
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuota, err)
		}
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	gen := &Generation{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			gen.Citations = append(gen.Citations, ai.WireNews{
				Title:     chunk.Web.Title,
				URI:       chunk.Web.URI,
				Source:    ai.SourceFromURI(chunk.Web.URI),
				Time:      models.LiveLabel,
				Sentiment: string(models.SentimentNeutral),
			})
		}
	}
	return gen, nil
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(strings.ToLower(msg), "quota")
}
