package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmony-chat/types"
)

// TestHarmonyHoistsSystemEntry verifies the system entry becomes the
// model identity instead of a message.
func TestHarmonyHoistsSystemEntry(t *testing.T) {
	entries := []types.Entry{
		types.NewSystemEntry("You are a careful assistant."),
		types.NewUserEntry("hello"),
	}

	msgs, ctx := Harmony{}.Generate(entries)

	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0]["role"])
	assert.Equal(t, "hello", msgs[0]["content"])
	assert.Equal(t, "You are a careful assistant.", ctx[ContextModelIdentity])

	for _, msg := range msgs {
		assert.NotEqual(t, "system", msg["role"], "no standalone system message may survive hoisting")
	}
}

// TestHarmonyFirstSystemEntryWins verifies later system entries are
// dropped rather than merged or re-hoisted.
func TestHarmonyFirstSystemEntryWins(t *testing.T) {
	entries := []types.Entry{
		types.NewSystemEntry("first identity"),
		types.NewUserEntry("hi"),
		types.NewSystemEntry("second identity"),
	}

	msgs, ctx := Harmony{}.Generate(entries)

	require.Len(t, msgs, 1)
	assert.Equal(t, "first identity", ctx[ContextModelIdentity])
}

// TestHarmonyDeveloperOnlyConversation verifies a developer entry stays
// a message and no identity is hoisted when no system entry exists.
func TestHarmonyDeveloperOnlyConversation(t *testing.T) {
	entries := []types.Entry{
		types.NewDeveloperEntry("Respond in French."),
		types.NewUserEntry("hello"),
	}

	msgs, ctx := Harmony{}.Generate(entries)

	require.Len(t, msgs, 2)
	assert.Equal(t, "developer", msgs[0]["role"])
	assert.Equal(t, "Respond in French.", msgs[0]["content"])

	_, hoisted := ctx[ContextModelIdentity]
	assert.False(t, hoisted, "no identity may be hoisted without a system entry")
}

// TestHarmonyAssistantEntry covers thinking and tool call rendering.
func TestHarmonyAssistantEntry(t *testing.T) {
	args := map[string]any{
		"city": "Oslo",
		"options": map[string]any{
			"units": "metric",
		},
	}
	entries := []types.Entry{
		types.NewUserEntry("weather?"),
		types.NewAssistantEntry("").
			WithThinking("need the weather tool").
			WithToolCalls([]types.ToolCall{
				{ID: "call_1", Name: "get_weather", Arguments: args, ContentType: "json"},
			}),
		types.NewToolEntry(`{"temp": 12}`),
	}

	msgs, _ := Harmony{}.Generate(entries)
	require.Len(t, msgs, 3)

	assistant := msgs[1]
	assert.Equal(t, "assistant", assistant["role"])
	assert.Equal(t, "", assistant["content"], "empty assistant content is preserved")
	assert.Equal(t, "need the weather tool", assistant["thinking"])

	calls, ok := assistant["tool_calls"].([]Message)
	require.True(t, ok)
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0]["id"])
	assert.Equal(t, "get_weather", calls[0]["name"])
	assert.Equal(t, "json", calls[0]["content_type"])
	assert.Equal(t, args, calls[0]["arguments"], "arguments mapping must be preserved as-is")

	tool := msgs[2]
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, `{"temp": 12}`, tool["content"])
}

// TestHarmonyDeterministicKeys verifies absent fields are omitted
// instead of carried as nil values.
func TestHarmonyDeterministicKeys(t *testing.T) {
	msgs, _ := Harmony{}.Generate([]types.Entry{
		types.NewAssistantEntry("plain answer"),
	})

	require.Len(t, msgs, 1)
	_, hasThinking := msgs[0]["thinking"]
	_, hasToolCalls := msgs[0]["tool_calls"]
	assert.False(t, hasThinking)
	assert.False(t, hasToolCalls)
	assert.Len(t, msgs[0], 2, "only role and content expected")
}

// TestHarmonyUnknownRoleDegradesToUser mirrors the generator's
// no-fault contract.
func TestHarmonyUnknownRoleDegradesToUser(t *testing.T) {
	msgs, _ := Harmony{}.Generate([]types.Entry{
		{Role: types.Role("narrator"), Content: "once upon a time"},
	})

	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0]["role"])
	assert.Equal(t, "once upon a time", msgs[0]["content"])
}

// TestHarmonyPreservesOrdering verifies output order matches input
// order minus the hoisted entry.
func TestHarmonyPreservesOrdering(t *testing.T) {
	entries := []types.Entry{
		types.NewUserEntry("one"),
		types.NewAssistantEntry("two"),
		types.NewSystemEntry("identity"),
		types.NewUserEntry("three"),
	}

	msgs, _ := Harmony{}.Generate(entries)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0]["content"])
	assert.Equal(t, "two", msgs[1]["content"])
	assert.Equal(t, "three", msgs[2]["content"])
}

func TestPlainGenerate(t *testing.T) {
	entries := []types.Entry{
		types.NewSystemEntry("identity"),
		types.NewUserEntry("hello"),
		types.NewAssistantEntry("hi").WithThinking("hidden"),
	}

	msgs, ctx := Plain{}.Generate(entries)

	require.Len(t, msgs, 3, "plain dialect hoists nothing")
	assert.Equal(t, "system", msgs[0]["role"])
	assert.Equal(t, "identity", msgs[0]["content"])
	assert.Empty(t, ctx)

	_, hasThinking := msgs[2]["thinking"]
	assert.False(t, hasThinking, "plain dialect renders string content only")
}

func TestForName(t *testing.T) {
	assert.Equal(t, NamePlain, ForName("plain").Name())
	assert.Equal(t, NameHarmony, ForName("harmony").Name())
	assert.Equal(t, NameHarmony, ForName("something-else").Name())
}
