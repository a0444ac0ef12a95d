// Package llm is the narrow language-model contract used by the conversation engine.
package llm

import (
	"context"
	"errors"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int64
}

// Client produces a single text completion. Implementations must honour ctx deadlines.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")
