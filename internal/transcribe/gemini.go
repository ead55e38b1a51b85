package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rbright/candor/internal/interview"
)

// DefaultGeminiModel is used when no batch model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini transcribes complete recordings by sending them inline to a Gemini model.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini constructs a Gemini batch transcriber for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey string, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models contentGenerator, model string) *Gemini {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model}
}

func (g *Gemini) Transcribe(ctx context.Context, rec interview.Recording, language string) (string, error) {
	mime := rec.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}
	prompt := fmt.Sprintf(
		"Transcribe the speech in this recording verbatim. The speaker's language is %s. "+
			"Return only the transcript text with no commentary. Return an empty response if nothing is said.",
		language,
	)

	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mime, Data: rec.Data}},
			{Text: prompt},
		},
	}}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
