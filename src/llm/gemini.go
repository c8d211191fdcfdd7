package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the official genai SDK. The SDK
// client is created on first use so a missing key surfaces per request.
type GeminiClient struct {
	apiKey   string
	attempts int

	mu  sync.Mutex
	cli *genai.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, attempts: 3}
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cli != nil {
		return g.cli, nil
	}
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.cli = cli
	return cli, nil
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}}}

	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		resp, err := cli.Models.GenerateContent(ctx, req.Model, contents, cfg)
		if err == nil {
			if txt := responseText(resp); txt != "" {
				return txt, nil
			}
			err = ErrEmptyResponse
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Str("model", req.Model).Msg("gemini request failed")
		if attempt == g.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	return "", lastErr
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
