package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	agent "github.com/Protocol-Lattice/go-agent"
	adk "github.com/Protocol-Lattice/go-agent/src/adk"
	adkmodules "github.com/Protocol-Lattice/go-agent/src/adk/modules"
	"github.com/Protocol-Lattice/go-agent/src/memory"
	"github.com/Protocol-Lattice/go-agent/src/models"
	"github.com/Protocol-Lattice/go-agent/src/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	utcp "github.com/universal-tool-calling-protocol/go-utcp"
)

// LatticeClient runs requests through a go-agent ADK agent, which adds
// session memory and optional UTCP tools on top of Gemini. One agent is
// built per model and system prompt pair.
type LatticeClient struct {
	providersFile string
	session       string

	mu     sync.Mutex
	utcp   utcp.UtcpClientInterface
	loaded bool
	agents map[string]*agent.Agent
}

// NewLatticeClient keeps one memory session for the lifetime of the client.
// providersFile may be empty to use ~/utcp/provider.json.
func NewLatticeClient(providersFile string) *LatticeClient {
	return &LatticeClient{
		providersFile: providersFile,
		session:       uuid.NewString(),
		agents:        make(map[string]*agent.Agent),
	}
}

func (l *LatticeClient) Name() string { return "lattice" }

func (l *LatticeClient) Generate(ctx context.Context, req Request) (string, error) {
	ag, err := l.agent(ctx, req.Model, req.SystemInstruction)
	if err != nil {
		return "", err
	}
	out, err := ag.Generate(ctx, l.session, req.Prompt)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (l *LatticeClient) agent(ctx context.Context, model, systemPrompt string) (*agent.Agent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := model + "\x00" + systemPrompt
	if ag, ok := l.agents[key]; ok {
		return ag, nil
	}
	if !l.loaded {
		l.loaded = true
		u, err := BuildUTCP(ctx, l.providersFile)
		if err != nil {
			log.Warn().Err(err).Msg("UTCP unavailable")
		}
		l.utcp = u
	}

	ag, err := BuildAgent(ctx, model, systemPrompt, l.utcp)
	if err != nil {
		return nil, fmt.Errorf("build agent: %w", err)
	}
	l.agents[key] = ag
	return ag, nil
}

// BuildAgent assembles a go-agent agent backed by Gemini.
func BuildAgent(ctx context.Context, model, systemPrompt string, u utcp.UtcpClientInterface) (*agent.Agent, error) {
	memOpts := memory.DefaultOptions()
	builder, err := adk.New(
		ctx,
		adk.WithDefaultSystemPrompt(systemPrompt),
		adk.WithModules(
			adkmodules.InMemoryMemoryModule(10000, memory.AutoEmbedder(), &memOpts),
			adkmodules.NewModelModule("gemini", func(_ context.Context) (models.Agent, error) {
				return models.NewGeminiLLM(ctx, model, "Project editor")
			}),
			adkmodules.NewToolModule("essentials",
				adkmodules.StaticToolProvider([]agent.Tool{&tools.EchoTool{}}, nil),
			),
		),
		adk.WithUTCP(u),
	)
	if err != nil {
		return nil, err
	}
	return builder.BuildAgent(ctx)
}

// BuildUTCP loads a UTCP client from providersFile, or ~/utcp/provider.json
// when it is empty.
func BuildUTCP(ctx context.Context, providersFile string) (utcp.UtcpClientInterface, error) {
	if providersFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		providersFile = filepath.Join(home, "utcp", "provider.json")
	}
	if _, err := os.Stat(providersFile); err != nil {
		return nil, fmt.Errorf("providers file missing at %s: %w", providersFile, err)
	}

	client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{ProvidersFilePath: providersFile}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("utcp client: %w", err)
	}
	return client, nil
}
