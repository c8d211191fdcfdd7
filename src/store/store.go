// Package store persists workspace state in a key/value store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Protocol-Lattice/vibe-code/src/project"
	"github.com/Protocol-Lattice/vibe-code/src/workspace"
)

// Keys under which the workspace is stored.
const (
	KeySettings   = "vibe-coder-settings"
	KeyFiles      = "vibe-coder-files"
	KeyActiveFile = "vibe-coder-active-file"
	KeyHistory    = "vibe-coder-chat-history"
	KeyKnowledge  = "vibe-coder-knowledge-base"
)

var ErrNotFound = errors.New("store: key not found")

// Store is a flat key/value store.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadState reads the workspace from st. Missing keys keep their defaults;
// unreadable values are logged and replaced by defaults too.
func LoadState(ctx context.Context, st Store) (workspace.State, error) {
	state := workspace.DefaultState()

	var settings workspace.Settings
	if ok, err := loadJSON(ctx, st, KeySettings, &settings); err != nil {
		return state, err
	} else if ok {
		state.Settings = settings.Normalize()
	}

	var tree project.Tree
	if _, err := loadJSON(ctx, st, KeyFiles, &tree); err != nil {
		return state, err
	}
	state.Tree = tree

	var active string
	if _, err := loadJSON(ctx, st, KeyActiveFile, &active); err != nil {
		return state, err
	}
	if s, ok := state.SelectFile(active); ok {
		state = s
	}

	if _, err := loadJSON(ctx, st, KeyHistory, &state.History); err != nil {
		return state, err
	}
	if _, err := loadJSON(ctx, st, KeyKnowledge, &state.Knowledge); err != nil {
		return state, err
	}
	return state, nil
}

// SaveState writes every part of the workspace to st.
func SaveState(ctx context.Context, st Store, state workspace.State) error {
	values := []struct {
		key string
		v   any
	}{
		{KeySettings, state.Settings},
		{KeyFiles, nonNil(state.Tree)},
		{KeyActiveFile, state.ActiveFile},
		{KeyHistory, nonNilTurns(state.History)},
		{KeyKnowledge, nonNilDocs(state.Knowledge)},
	}
	for _, kv := range values {
		b, err := json.Marshal(kv.v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", kv.key, err)
		}
		if err := st.Save(ctx, kv.key, b); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}
	return nil
}

// loadJSON decodes key into v. It reports false when the key is missing or
// its value is corrupt; only store failures are returned as errors.
func loadJSON(ctx context.Context, st Store, key string, v any) (bool, error) {
	b, err := st.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ignoring unreadable stored value")
		return false, nil
	}
	return true, nil
}

func nonNil(t project.Tree) project.Tree {
	if t == nil {
		return project.Tree{}
	}
	return t
}

func nonNilTurns(h []workspace.Turn) []workspace.Turn {
	if h == nil {
		return []workspace.Turn{}
	}
	return h
}

func nonNilDocs(d []workspace.Document) []workspace.Document {
	if d == nil {
		return []workspace.Document{}
	}
	return d
}

// MemoryStore keeps values in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
