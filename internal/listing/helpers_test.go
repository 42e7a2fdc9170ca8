package listing

import (
	"context"
	"sync"

	"github.com/raine/myyntiapuri/internal/llm"
)

var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegData = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

type reply struct {
	text string
	err  error
}

// fakeGenerator returns scripted replies in order and records requests.
type fakeGenerator struct {
	mu       sync.Mutex
	replies  []reply
	requests []*llm.GenerationRequest

	// started is signalled on each call; release, when set, blocks the
	// call until it is closed.
	started chan struct{}
	release chan struct{}
}

func newFakeGenerator(replies ...reply) *fakeGenerator {
	return &fakeGenerator{replies: replies}
}

func (f *fakeGenerator) Generate(ctx context.Context, req *llm.GenerationRequest) (*llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	if idx >= len(f.replies) {
		return nil, llm.ErrShapeMismatch
	}
	r := f.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return llm.NewTextResponse(r.text), nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) request(i int) *llm.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}
