// Package llm talks to the generative text services.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrMissingAPIKey   = errors.New("API key not set (GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY)")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyResponse   = errors.New("empty response from model")
)

// Request is a single generation call.
type Request struct {
	Model             string
	SystemInstruction string
	Prompt            string
}

// Client produces one text reply for one request.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Registry maps provider ids to clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(id string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[id] = c
}

// Resolve returns the client registered for id.
func (r *Registry) Resolve(id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return c, nil
}

// IDs lists the registered provider ids in order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
