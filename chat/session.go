// Package chat owns the conversation loop: it keeps the ordered entry
// history, feeds it through the configured dialect before each
// inference call and folds the parsed completion back into the
// history afterward.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"harmony-chat/config"
	"harmony-chat/dialect"
	"harmony-chat/engine"
	"harmony-chat/internal"
	"harmony-chat/logger"
	"harmony-chat/metrics"
	"harmony-chat/parser"
	"harmony-chat/types"
)

// MaxHistoryLength bounds the entry history so long-running sessions
// don't grow without limit. The leading system entry survives trimming.
const MaxHistoryLength = 50

// Reply is the outcome of one conversation turn.
type Reply struct {
	Text      string           `json:"text"`
	Analysis  []string         `json:"analysis,omitempty"`
	ToolCalls []types.ToolCall `json:"tool_calls,omitempty"`
	Fallback  bool             `json:"fallback"`
}

// Session drives a conversation against an inference engine.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	generator dialect.Generator
	eng       engine.Engine
	obs       *logger.ObservabilityLogger
	conv      *logger.ConversationLogger
	history   []types.Entry
	turnCount int
}

// NewSession creates a session using the dialect named in the config.
// obs and conv may be nil.
func NewSession(cfg *config.Config, eng engine.Engine, obs *logger.ObservabilityLogger, conv *logger.ConversationLogger) *Session {
	return &Session{
		cfg:       cfg,
		generator: dialect.ForName(cfg.Dialect),
		eng:       eng,
		obs:       obs,
		conv:      conv,
		history:   make([]types.Entry, 0),
	}
}

// Append adds an entry to the history, used to seed system or
// developer instructions before the first turn.
func (s *Session) Append(entry types.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	s.enforceMemoryBounds()
}

// History returns a copy of the entry history.
func (s *Session) History() []types.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Entry(nil), s.history...)
}

// Reset clears the entry history. The turn counter keeps running so
// turn IDs stay unique within the session logs.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
}

// Ask runs one conversation turn: append the user entry, generate the
// dialect messages, call the engine, parse the completion and append
// the assistant entry. The returned Reply is already trimmed.
func (s *Session) Ask(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turnCount++
	turnID := fmt.Sprintf("turn_%03d", s.turnCount)
	ctx = internal.WithTurnID(ctx, turnID)
	ctx, lg := logger.ContextLoggerFromConfig(ctx, s.cfg)
	lg.Debug("💬 Turn started (%d history entries)", len(s.history))

	s.history = append(s.history, types.NewUserEntry(text))
	s.conv.LogUserInput(turnID, text)

	messages, genCtx := s.generator.Generate(s.history)
	s.applyIdentityOverrides(genCtx)
	genCtx[dialect.ContextReasoningEffort] = string(s.cfg.ReasoningEffort)

	raw, err := s.eng.Complete(ctx, engine.Request{
		Model:           s.cfg.Model,
		Messages:        messages,
		Context:         genCtx,
		ReasoningEffort: s.cfg.ReasoningEffort,
		MaxTokens:       s.cfg.MaxTokens,
	})
	if err != nil {
		// The failed user turn stays out of the history so a retry
		// doesn't duplicate it.
		s.history = s.history[:len(s.history)-1]
		return Reply{}, err
	}

	reply := s.consumeCompletion(turnID, raw)

	assistant := types.NewAssistantEntry(reply.Text)
	if len(reply.Analysis) > 0 {
		assistant = assistant.WithThinking(strings.Join(reply.Analysis, "\n"))
	}
	if len(reply.ToolCalls) > 0 {
		assistant = assistant.WithToolCalls(reply.ToolCalls)
	}
	s.history = append(s.history, assistant)
	s.enforceMemoryBounds()

	metrics.TurnsTotal.Inc()
	if s.obs != nil {
		s.obs.Turn(turnID, "Turn completed", map[string]interface{}{
			"reply_length":   len(reply.Text),
			"analysis_count": len(reply.Analysis),
			"tool_calls":     len(reply.ToolCalls),
			"fallback":       reply.Fallback,
		})
	}

	return reply, nil
}

// consumeCompletion parses the raw completion and derives the reply,
// analysis traces and tool calls from its segments.
func (s *Session) consumeCompletion(turnID, raw string) Reply {
	segments := parser.Parse(raw)

	channels := make([]*string, len(segments))
	for i := range segments {
		channels[i] = segments[i].Channel
	}
	metrics.ObserveSegments(channels)

	reply := Reply{
		Text:      parser.SelectReply(segments, raw),
		Analysis:  parser.AnalysisTexts(segments),
		ToolCalls: toolCallsFromSegments(segments),
	}

	// Fallback means no final-channel segment was present at all.
	reply.Fallback = true
	for i := range segments {
		if segments[i].ChannelIs(parser.ChannelFinal) {
			reply.Fallback = false
			break
		}
	}
	if reply.Fallback {
		metrics.ReplyFallbacks.Inc()
		if s.obs != nil {
			s.obs.ReplyFallback(turnID, len(raw))
		}
	}

	for _, analysis := range reply.Analysis {
		s.conv.LogAnalysis(turnID, analysis)
	}
	for _, call := range reply.ToolCalls {
		s.conv.LogToolCall(turnID, call.Name, call.ID)
	}
	s.conv.LogReply(turnID, reply.Text, reply.Fallback)

	return reply
}

// toolCallsFromSegments converts commentary segments addressed to a
// functions.<name> recipient into tool calls. Commentary addressed to
// any other recipient namespace is not a tool invocation and is left
// out. Arguments are decoded from the segment content; invalid JSON is
// kept verbatim under a raw key rather than dropped.
func toolCallsFromSegments(segments []parser.Segment) []types.ToolCall {
	var calls []types.ToolCall
	for i := range segments {
		seg := &segments[i]
		if !seg.ChannelIs(parser.ChannelCommentary) || !seg.HasRecipient() {
			continue
		}
		if !strings.HasPrefix(*seg.Recipient, "functions.") {
			continue
		}

		name := strings.TrimPrefix(*seg.Recipient, "functions.")
		call := types.ToolCall{
			ID:          uuid.New().String(),
			Name:        name,
			ContentType: "json",
		}

		var args map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(seg.Content)), &args); err == nil {
			call.Arguments = args
		} else {
			call.Arguments = map[string]any{"raw": seg.Content}
		}
		calls = append(calls, call)
	}
	return calls
}

// applyIdentityOverrides rewrites the hoisted model identity per the
// configured override rules. A conversation with no hoisted identity
// is left untouched; overrides only modify an identity that exists.
func (s *Session) applyIdentityOverrides(genCtx dialect.Context) {
	if s.cfg.IdentityOverrides.IsEmpty() {
		return
	}
	identity, _ := genCtx[dialect.ContextModelIdentity].(string)
	if identity == "" {
		if _, present := genCtx[dialect.ContextModelIdentity]; !present {
			return
		}
	}
	genCtx[dialect.ContextModelIdentity] = config.ApplyIdentityOverrides(identity, s.cfg.IdentityOverrides)
}

// enforceMemoryBounds trims the oldest entries past MaxHistoryLength,
// keeping a leading system entry in place.
func (s *Session) enforceMemoryBounds() {
	if len(s.history) <= MaxHistoryLength {
		return
	}

	var system *types.Entry
	if s.history[0].Role == types.RoleSystem {
		first := s.history[0]
		system = &first
	}

	keep := MaxHistoryLength
	if system != nil {
		keep--
	}
	trimmed := append([]types.Entry(nil), s.history[len(s.history)-keep:]...)
	if system != nil {
		trimmed = append([]types.Entry{*system}, trimmed...)
	}
	s.history = trimmed
}
