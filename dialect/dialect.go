// Package dialect converts conversation entries into the role-tagged
// message structures a chat-template renderer expects. Each supported
// prompt dialect is a Generator implementation; the Harmony dialect
// additionally hoists the system entry into the template context.
package dialect

import "harmony-chat/types"

// Dialect names accepted in configuration.
const (
	NamePlain   = "plain"
	NameHarmony = "harmony"
)

// Message is one role-tagged mapping handed to the template renderer.
// Key sets are deterministic per message shape; absent fields are
// omitted rather than carried as nil values.
type Message map[string]any

// Context is the auxiliary mapping rendered alongside the messages,
// carrying values that belong to the template rather than to any
// single message.
type Context map[string]any

// Generator converts an ordered conversation into renderer input. It is
// a pure function of its input: implementations perform no I/O, never
// fail and never mutate the entries.
type Generator interface {
	Name() string
	Generate(entries []types.Entry) ([]Message, Context)
}

// ForName selects a generator by its configured name. Unrecognized
// names select the Harmony dialect, the format this tool exists for.
func ForName(name string) Generator {
	if name == NamePlain {
		return Plain{}
	}
	return Harmony{}
}

// normalizeRole collapses roles outside the known set to user; the
// generator degrades rather than rejecting an entry.
func normalizeRole(r types.Role) types.Role {
	if types.KnownRole(r) {
		return r
	}
	return types.RoleUser
}
