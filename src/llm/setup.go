package llm

import (
	"time"

	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// Options configure the default set of providers.
type Options struct {
	APIKey            string
	DefaultModel      string
	UTCPProvidersFile string
	RPS               float64
	Burst             int
	Timeout           time.Duration
}

// NewDefaultRegistry registers the gemini, langchain and lattice providers,
// each behind the configured timeout and rate limit.
func NewDefaultRegistry(opts Options) *Registry {
	if opts.DefaultModel == "" {
		opts.DefaultModel = workspace.ModelFlash
	}
	wrap := func(c Client) Client {
		return NewRateLimited(WithTimeout(c, opts.Timeout), opts.RPS, opts.Burst)
	}

	r := NewRegistry()
	r.Register(workspace.ProviderGemini, wrap(NewGeminiClient(opts.APIKey)))
	r.Register(workspace.ProviderLangChain, wrap(NewLangChainClient(opts.APIKey, opts.DefaultModel)))
	r.Register(workspace.ProviderLattice, wrap(NewLatticeClient(opts.UTCPProvidersFile)))
	return r
}
