package generation

import "context"

// Request is one text generation call.
type Request struct {
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// Invoker performs a single text generation call. This interface serves as a
// boundary between the pipeline and external LLM services. Implementations
// report transport and provider failures wrapped in ErrInvocation, and
// missing configuration wrapped in ErrConfig.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, req Request) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
