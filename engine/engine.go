// Package engine talks to the external inference engine. The engine
// owns tokenization, chat-template rendering and sampling; this client
// just ships the generated messages over HTTP and hands the raw
// Harmony completion text back to the caller.
package engine

import (
	"context"

	"harmony-chat/dialect"
	"harmony-chat/types"
)

// Request carries one generation request to the engine.
type Request struct {
	Model           string                `json:"model"`
	Messages        []dialect.Message     `json:"messages"`
	Context         dialect.Context       `json:"context,omitempty"`
	ReasoningEffort types.ReasoningEffort `json:"reasoning_effort,omitempty"`
	MaxTokens       int                   `json:"max_tokens,omitempty"`
}

// Response is the engine's completion payload.
type Response struct {
	Text string `json:"text"`
}

// Engine produces a raw text completion for a generation request.
// Implementations own cancellation and timeouts via ctx; the protocol
// layer above never blocks on anything else.
type Engine interface {
	Complete(ctx context.Context, req Request) (string, error)
}
