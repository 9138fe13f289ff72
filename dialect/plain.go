package dialect

import "harmony-chat/types"

// Plain renders each entry as a bare {role, content} pair. It is the
// baseline dialect for chat templates without Harmony structure:
// nothing is hoisted and auxiliary entry data is not rendered.
type Plain struct{}

// Name returns the configured dialect name.
func (Plain) Name() string { return NamePlain }

// Generate maps entries one to one, preserving order.
func (Plain) Generate(entries []types.Entry) ([]Message, Context) {
	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, Message{
			"role":    string(normalizeRole(e.Role)),
			"content": e.Content,
		})
	}
	return msgs, Context{}
}
