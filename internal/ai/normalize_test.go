package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestMergeNews_DedupeByURI(t *testing.T) {
	model := []WireNews{{Title: "First", URI: "https://a.test/x"}}
	grounding := []WireNews{{Title: "Second", URI: "https://a.test/x"}, {Title: "Other", URI: "https://b.test/y"}}

	got := MergeNews(5, model, grounding)

	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "b.test", got[1].Source)
}

func TestMergeNews_CapAndDropEmpty(t *testing.T) {
	var in []WireNews
	in = append(in, WireNews{Title: "no uri"})
	for i := 0; i < 8; i++ {
		in = append(in, WireNews{URI: fmt.Sprintf("https://n.test/%d", i)})
	}

	got := MergeNews(0, in)

	require.Len(t, got, DefaultNewsLimit)
	assert.Equal(t, "https://n.test/0", got[0].URI)
	for _, n := range got {
		assert.Equal(t, DefaultNewsTitle, n.Title)
	}
}

func TestSourceFromURI(t *testing.T) {
	assert.Equal(t, "reuters.com", SourceFromURI("https://www.reuters.com/markets"))
	assert.Equal(t, "vertexaisearch.cloud.google.com", SourceFromURI("https://vertexaisearch.cloud.google.com/grounding/abc"))
	assert.Equal(t, "", SourceFromURI("::bad"))
}

type fakeImageGen struct {
	resp   *genai.GenerateImagesResponse
	err    error
	prompt string
}

func (f *fakeImageGen) GenerateImages(_ context.Context, _ string, prompt string, _ *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.prompt = prompt
	return f.resp, f.err
}

func TestGeminiImages_DataURL(t *testing.T) {
	gen := &fakeImageGen{resp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("png"), MIMEType: "image/png"}}},
	}}
	g := newGeminiImages(gen, "imagen-test", 0)

	url, err := g.ImageFor(context.Background(), "Fed holds rates")

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5n", url)
	assert.True(t, strings.Contains(gen.prompt, "Fed holds rates"))
}

func TestGeminiImages_Failures(t *testing.T) {
	g := newGeminiImages(&fakeImageGen{err: errors.New("boom")}, "imagen-test", 0)
	_, err := g.ImageFor(context.Background(), "x")
	assert.Error(t, err)

	g = newGeminiImages(&fakeImageGen{resp: &genai.GenerateImagesResponse{}}, "imagen-test", 0)
	_, err = g.ImageFor(context.Background(), "x")
	assert.Error(t, err)

	url, err := g.ImageFor(context.Background(), "  ")
	assert.NoError(t, err)
	assert.Empty(t, url)
}

func TestDisabledImages(t *testing.T) {
	url, err := DisabledImages{}.ImageFor(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, url)
}
