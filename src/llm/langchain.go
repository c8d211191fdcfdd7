package llm

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangChainClient reaches Gemini through langchaingo's googleai backend.
type LangChainClient struct {
	apiKey       string
	defaultModel string

	mu    sync.Mutex
	model llms.Model
}

func NewLangChainClient(apiKey, defaultModel string) *LangChainClient {
	return &LangChainClient{apiKey: apiKey, defaultModel: defaultModel}
}

func (c *LangChainClient) Name() string { return "langchain" }

func (c *LangChainClient) llm(ctx context.Context) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		return c.model, nil
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(c.apiKey),
		googleai.WithDefaultModel(c.defaultModel),
	)
	if err != nil {
		return nil, err
	}
	c.model = m
	return m, nil
}

func (c *LangChainClient) Generate(ctx context.Context, req Request) (string, error) {
	m, err := c.llm(ctx)
	if err != nil {
		return "", err
	}

	var msgs []llms.MessageContent
	if req.SystemInstruction != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	var opts []llms.CallOption
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	resp, err := m.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
