package llm

import "context"

// Stream is a provider-agnostic streaming reader.
//
// Recv returns (StreamChunk, nil) for each increment, and io.EOF when the
// stream ends normally. Close releases the outbound connection and is safe to
// call more than once.
type Stream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// Provider is a hosted text-generation service. Implementations must be safe
// for concurrent use and keep no state between calls.
type Provider interface {
	Name() string
	ChatStream(ctx context.Context, req *ChatRequest) (Stream, error)
}
