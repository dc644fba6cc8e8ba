// Package loop drives the per-session turn / tool-call / tool-result cycle
// until the model produces a final answer.
package loop

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
	sessionx "github.com/ordino-ai/ordino/agent/session"
)

// DefaultMaxIterations caps the outer model-invocation cycle so a model that
// keeps requesting tools without converging cannot spin forever.
const DefaultMaxIterations = 10

// CapMarker is appended to the best-effort answer when the iteration cap
// fires; the front-end can surface or strip it.
const CapMarker = "[stopped: tool-call limit reached]"

const apologyText = "Sorry, something went wrong while processing your message. Please try again."

// Executor runs one tool call to completion. *tool.Dispatcher satisfies this.
type Executor interface {
	Execute(ctx context.Context, sess *sessionx.Session, call contractx.ToolCall) contractx.ToolResult
}

type Loop struct {
	backend       contractx.ModelBackend
	executor      Executor
	catalog       []contractx.ToolSchema
	maxIterations int
}

func New(backend contractx.ModelBackend, executor Executor, catalog []contractx.ToolSchema, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		backend:       backend,
		executor:      executor,
		catalog:       catalog,
		maxIterations: maxIterations,
	}
}

// Run processes one user message to a final textual answer. Every failure
// mode is converted to text here; callers never see an error and the session
// stays usable for the next message. The caller is expected to hold the
// session's turn slot.
func (l *Loop) Run(ctx context.Context, sess *sessionx.Session, userText string) string {
	sess.Append(contractx.Turn{Role: contractx.RoleUser, Text: userText})

	lastText := ""
	for i := 0; i < l.maxIterations; i++ {
		resp, err := l.backend.Complete(ctx, sess.History(), l.catalog)
		if err != nil {
			log.Error().Err(err).Str("user", sess.UserID).Msg("model invocation failed")
			sess.Append(contractx.Turn{Role: contractx.RoleAssistant, Text: apologyText})
			return apologyText
		}

		if len(resp.ToolCalls) == 0 {
			final := resp.FinalText
			if final == "" {
				final = apologyText
			}
			sess.Append(contractx.Turn{Role: contractx.RoleAssistant, Text: final})
			return final
		}

		lastText = resp.FinalText
		sess.Append(contractx.Turn{Role: contractx.RoleAssistant, ToolCalls: resp.ToolCalls})

		// Every requested call runs exactly once, in the order received, and
		// lands as a single tool-result turn.
		results := make([]contractx.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			results = append(results, l.executor.Execute(ctx, sess, call))
		}
		sess.Append(contractx.Turn{Role: contractx.RoleToolResult, ToolResults: results})
	}

	log.Warn().Str("user", sess.UserID).Int("cap", l.maxIterations).Msg("tool-call iteration cap reached")
	partial := "I wasn't able to finish that request. " + CapMarker
	if lastText != "" {
		partial = lastText + "\n\n" + CapMarker
	}
	sess.Append(contractx.Turn{Role: contractx.RoleAssistant, Text: partial})
	return partial
}
