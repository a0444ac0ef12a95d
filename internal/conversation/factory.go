package conversation

import (
	"github.com/acme/coldcall-agent/internal/llm"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// Factory builds a fresh engine for each call.
type Factory func(p Params) Engine

// NewFactory picks the engine variant once: model-backed when client is non-nil, rule-based otherwise.
func NewFactory(client llm.Client, opts LLMOptions, log *logger.Logger, m *metrics.Metrics) Factory {
	if client == nil {
		return func(p Params) Engine { return NewRuleEngine(p) }
	}
	return func(p Params) Engine { return NewLLMEngine(p, client, opts, log, m) }
}
