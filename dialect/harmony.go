package dialect

import "harmony-chat/types"

// Context keys understood by Harmony chat templates.
const (
	ContextModelIdentity   = "model_identity"
	ContextReasoningEffort = "reasoning_effort"
)

// Harmony renders entries for gpt-oss Harmony chat templates. The
// first system entry is hoisted out of the message list into the
// context as the model identity, because the template renders the
// identity in its own system block rather than as a message. Later
// system entries are dropped (first-wins); with no system entry at all
// nothing is hoisted, even when a developer entry is present.
type Harmony struct{}

// Name returns the configured dialect name.
func (Harmony) Name() string { return NameHarmony }

// Generate maps entries to Harmony template messages, preserving input
// order minus the hoisted system entry.
func (Harmony) Generate(entries []types.Entry) ([]Message, Context) {
	msgs := make([]Message, 0, len(entries))
	ctx := Context{}
	for _, e := range entries {
		role := normalizeRole(e.Role)
		if role == types.RoleSystem {
			if _, hoisted := ctx[ContextModelIdentity]; !hoisted {
				ctx[ContextModelIdentity] = e.Content
			}
			continue
		}

		msg := Message{
			"role":    string(role),
			"content": e.Content,
		}
		if role == types.RoleAssistant {
			if e.Thinking != "" {
				msg["thinking"] = e.Thinking
			}
			if len(e.ToolCalls) > 0 {
				msg["tool_calls"] = toolCallMaps(e.ToolCalls)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, ctx
}

// toolCallMaps renders tool calls with their arguments preserved as a
// nested mapping, never flattened or re-keyed.
func toolCallMaps(calls []types.ToolCall) []Message {
	out := make([]Message, 0, len(calls))
	for _, c := range calls {
		out = append(out, Message{
			"id":           c.ID,
			"name":         c.Name,
			"arguments":    c.Arguments,
			"content_type": c.ContentType,
		})
	}
	return out
}
