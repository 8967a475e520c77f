package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/loopmind-api/internal/generation"
)

// ScriptedResponse is one canned reply of a ScriptedInvoker.
type ScriptedResponse struct {
	Text string
	Err  error
}

// ScriptedInvoker implements generation.Invoker for testing. It replays
// Responses in order, or delegates to InvokeFn when set, and records every
// request it receives.
type ScriptedInvoker struct {
	// InvokeFn allows test cases to compute replies from the request
	InvokeFn func(ctx context.Context, req generation.Request) (string, error)

	// Responses are returned in order when InvokeFn is nil
	Responses []ScriptedResponse

	mu       sync.Mutex
	requests []generation.Request
}

// NewScriptedInvoker creates a ScriptedInvoker that replies with texts in order.
func NewScriptedInvoker(texts ...string) *ScriptedInvoker {
	responses := make([]ScriptedResponse, len(texts))
	for i, t := range texts {
		responses[i] = ScriptedResponse{Text: t}
	}
	return &ScriptedInvoker{Responses: responses}
}

// Invoke implements the generation.Invoker interface
func (m *ScriptedInvoker) Invoke(ctx context.Context, req generation.Request) (string, error) {
	m.mu.Lock()
	call := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, req)
	}
	if call >= len(m.Responses) {
		return "", fmt.Errorf("%w: unexpected call %d", generation.ErrInvocation, call+1)
	}
	r := m.Responses[call]
	return r.Text, r.Err
}

// Requests returns a copy of every request received so far.
func (m *ScriptedInvoker) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}

// CallCount returns the number of Invoke calls.
func (m *ScriptedInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
