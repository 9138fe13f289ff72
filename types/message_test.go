package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleSystem, ParseRole("system"))
	assert.Equal(t, RoleDeveloper, ParseRole(" Developer "))
	assert.Equal(t, RoleAssistant, ParseRole("ASSISTANT"))
	assert.Equal(t, RoleTool, ParseRole("tool"))
	assert.Equal(t, RoleUser, ParseRole("narrator"), "unknown roles degrade to user")
	assert.Equal(t, RoleUser, ParseRole(""))
}

func TestKnownRole(t *testing.T) {
	assert.True(t, KnownRole(RoleAssistant))
	assert.False(t, KnownRole(Role("narrator")))
}

func TestParseReasoningEffort(t *testing.T) {
	assert.Equal(t, EffortLow, ParseReasoningEffort("low"))
	assert.Equal(t, EffortHigh, ParseReasoningEffort(" HIGH "))
	assert.Equal(t, EffortMedium, ParseReasoningEffort("medium"))
	assert.Equal(t, EffortMedium, ParseReasoningEffort("extreme"), "unknown efforts degrade to medium")
	assert.Equal(t, EffortMedium, ParseReasoningEffort(""))
}

func TestEntryBuilders(t *testing.T) {
	entry := NewAssistantEntry("")
	withThinking := entry.WithThinking("private trace")

	assert.Empty(t, entry.Thinking, "With* helpers must not mutate the receiver")
	assert.Equal(t, "private trace", withThinking.Thinking)

	calls := []ToolCall{{ID: "call_1", Name: "lookup", Arguments: map[string]any{"q": "go"}}}
	withCalls := entry.WithToolCalls(calls)
	assert.Nil(t, entry.ToolCalls)
	assert.Len(t, withCalls.ToolCalls, 1)

	assert.Equal(t, RoleTool, NewToolEntry("result").Role)
	assert.Equal(t, RoleSystem, NewSystemEntry("id").Role)
	assert.Equal(t, RoleDeveloper, NewDeveloperEntry("x").Role)
	assert.Equal(t, RoleUser, NewUserEntry("x").Role)
}
