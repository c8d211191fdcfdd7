package llm

import (
	"context"
	"sync"
)

// FakeReply is one scripted outcome of FakeClient.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient returns scripted replies in order and records every request.
// Once the script runs out the last reply repeats.
type FakeClient struct {
	mu       sync.Mutex
	replies  []FakeReply
	requests []Request
	// Block, when set, is waited on before replying.
	Block chan struct{}
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{replies: replies}
}

func (f *FakeClient) Name() string { return "fake" }

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.Block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "<chat>ok</chat>", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.Text, r.Err
}

// Requests returns a copy of the requests seen so far.
func (f *FakeClient) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
