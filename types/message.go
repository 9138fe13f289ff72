// Package types provides the core conversation types used across
// harmony-chat. This package has ZERO dependencies on other harmony-chat
// packages to avoid circular imports.
package types

import "strings"

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// KnownRole reports whether r is one of the five roles the Harmony
// format defines.
func KnownRole(r Role) bool {
	switch r {
	case RoleSystem, RoleDeveloper, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ParseRole converts a string to a Role. Unknown values fall back to
// RoleUser; the protocol layer never rejects input.
func ParseRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "system":
		return RoleSystem
	case "developer":
		return RoleDeveloper
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	case "tool":
		return RoleTool
	default:
		return RoleUser
	}
}

// ToolCall represents a tool invocation requested by the assistant.
type ToolCall struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Arguments   map[string]any `json:"arguments"`
	ContentType string         `json:"content_type,omitempty"`
}

// Entry is a single turn in a conversation. Thinking and ToolCalls are
// only meaningful on assistant entries; a tool entry carries a tool
// result, never a request. Entries are treated as immutable once
// appended to a session, the With* helpers return modified copies.
type Entry struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Thinking  string     `json:"thinking,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// NewEntry creates an entry with the given role and content.
func NewEntry(role Role, content string) Entry {
	return Entry{Role: role, Content: content}
}

// NewSystemEntry creates a new system entry.
func NewSystemEntry(content string) Entry {
	return NewEntry(RoleSystem, content)
}

// NewDeveloperEntry creates a new developer entry.
func NewDeveloperEntry(content string) Entry {
	return NewEntry(RoleDeveloper, content)
}

// NewUserEntry creates a new user entry.
func NewUserEntry(content string) Entry {
	return NewEntry(RoleUser, content)
}

// NewAssistantEntry creates a new assistant entry. Content may be empty
// when the turn only carries tool calls.
func NewAssistantEntry(content string) Entry {
	return NewEntry(RoleAssistant, content)
}

// NewToolEntry creates a new tool result entry.
func NewToolEntry(content string) Entry {
	return NewEntry(RoleTool, content)
}

// WithThinking attaches a private reasoning trace to the entry.
func (e Entry) WithThinking(thinking string) Entry {
	e.Thinking = thinking
	return e
}

// WithToolCalls attaches tool invocation requests to the entry.
func (e Entry) WithToolCalls(calls []ToolCall) Entry {
	e.ToolCalls = calls
	return e
}

// ReasoningEffort hints how much internal deliberation the model should
// spend before answering. It is a generation parameter, not part of the
// conversation itself.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// ParseReasoningEffort converts a string to a ReasoningEffort with
// fallback to EffortMedium.
func ParseReasoningEffort(effort string) ReasoningEffort {
	switch strings.ToLower(strings.TrimSpace(effort)) {
	case "low":
		return EffortLow
	case "medium":
		return EffortMedium
	case "high":
		return EffortHigh
	default:
		return EffortMedium
	}
}
