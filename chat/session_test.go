package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmony-chat/config"
	"harmony-chat/dialect"
	"harmony-chat/engine"
	"harmony-chat/types"
)

// scriptedEngine returns canned completions in order and records the
// requests it saw.
type scriptedEngine struct {
	completions []string
	err         error
	requests    []engine.Request
}

func (e *scriptedEngine) Complete(_ context.Context, req engine.Request) (string, error) {
	e.requests = append(e.requests, req)
	if e.err != nil {
		return "", e.err
	}
	idx := len(e.requests) - 1
	if idx >= len(e.completions) {
		idx = len(e.completions) - 1
	}
	return e.completions[idx], nil
}

func testConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Model = "gpt-oss-20b"
	cfg.Dialect = "harmony"
	return cfg
}

func TestAskParsesFinalReply(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>analysis<|message|>User greets me.<|end|>" +
			"<|start|>assistant<|channel|>final<|message|>Hello there!  <|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)

	reply, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello there!", reply.Text, "reply should be trimmed")
	assert.Equal(t, []string{"User greets me."}, reply.Analysis)
	assert.False(t, reply.Fallback)
	assert.Empty(t, reply.ToolCalls)
}

func TestAskFallsBackToRawText(t *testing.T) {
	eng := &scriptedEngine{completions: []string{"  plain completion without sentinels  "}}
	session := NewSession(testConfig(), eng, nil, nil)

	reply, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "plain completion without sentinels", reply.Text)
	assert.True(t, reply.Fallback)
}

func TestAskExtractsToolCalls(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>commentary to=functions.get_weather<|message|>" +
			`{"location": "Paris"}<|end|>` +
			"<|start|>assistant<|channel|>final<|message|>Checking the weather.<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)

	reply, err := session.Ask(context.Background(), "weather in paris?")
	require.NoError(t, err)

	require.Len(t, reply.ToolCalls, 1)
	call := reply.ToolCalls[0]
	assert.Equal(t, "get_weather", call.Name)
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, "json", call.ContentType)
	assert.Equal(t, map[string]any{"location": "Paris"}, call.Arguments)
}

func TestAskKeepsInvalidToolArgumentsRaw(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>commentary to=functions.search<|message|>not json<|end|>" +
			"<|start|>assistant<|channel|>final<|message|>done<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)

	reply, err := session.Ask(context.Background(), "search")
	require.NoError(t, err)

	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, map[string]any{"raw": "not json"}, reply.ToolCalls[0].Arguments)
}

func TestAskIgnoresNonFunctionRecipients(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>commentary to=browser.open<|message|>{}<|end|>" +
			"<|start|>assistant<|channel|>commentary to=functions.search<|message|>{}<|end|>" +
			"<|start|>assistant<|channel|>final<|message|>done<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)

	reply, err := session.Ask(context.Background(), "go")
	require.NoError(t, err)

	// Only the functions. namespace denotes a tool invocation.
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "search", reply.ToolCalls[0].Name)
}

func TestAskBuildsHistory(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>analysis<|message|>thinking<|end|>" +
			"<|start|>assistant<|channel|>final<|message|>first<|return|>",
		"<|start|>assistant<|channel|>final<|message|>second<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)
	session.Append(types.NewSystemEntry("You are a helpful assistant."))

	_, err := session.Ask(context.Background(), "one")
	require.NoError(t, err)
	_, err = session.Ask(context.Background(), "two")
	require.NoError(t, err)

	history := session.History()
	require.Len(t, history, 5)
	assert.Equal(t, types.RoleSystem, history[0].Role)
	assert.Equal(t, types.RoleUser, history[1].Role)
	assert.Equal(t, types.RoleAssistant, history[2].Role)
	assert.Equal(t, "first", history[2].Content)
	assert.Equal(t, "thinking", history[2].Thinking)
	assert.Equal(t, "second", history[4].Content)
	assert.Empty(t, history[4].Thinking)
}

func TestAskHoistsSystemIdentityIntoContext(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>final<|message|>ok<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)
	session.Append(types.NewSystemEntry("You are Navigator."))

	_, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, eng.requests, 1)
	req := eng.requests[0]
	assert.Equal(t, "You are Navigator.", req.Context[dialect.ContextModelIdentity])
	assert.Equal(t, "medium", req.Context[dialect.ContextReasoningEffort])
	// The hoisted system entry must not appear as a message.
	for _, msg := range req.Messages {
		assert.NotEqual(t, "system", msg["role"])
	}
}

func TestAskAppliesIdentityOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.IdentityOverrides = config.IdentityOverrides{
		Replacements: []config.IdentityReplacement{{Find: "Navigator", Replace: "Pilot"}},
	}
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>final<|message|>ok<|return|>",
	}}
	session := NewSession(cfg, eng, nil, nil)
	session.Append(types.NewSystemEntry("You are Navigator."))

	_, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, eng.requests, 1)
	assert.Equal(t, "You are Pilot.", eng.requests[0].Context[dialect.ContextModelIdentity])
}

func TestAskIdentityOverridesSkipMissingIdentity(t *testing.T) {
	cfg := testConfig()
	cfg.IdentityOverrides = config.IdentityOverrides{Prepend: "NOTICE: "}
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>final<|message|>ok<|return|>",
	}}
	session := NewSession(cfg, eng, nil, nil)

	// No system entry, so nothing is hoisted and there is no identity
	// for the overrides to modify.
	_, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, eng.requests, 1)
	_, present := eng.requests[0].Context[dialect.ContextModelIdentity]
	assert.False(t, present, "overrides must not invent a model identity")
}

func TestAskEngineErrorLeavesHistoryClean(t *testing.T) {
	eng := &scriptedEngine{err: errors.New("engine unavailable")}
	session := NewSession(testConfig(), eng, nil, nil)

	_, err := session.Ask(context.Background(), "hi")
	require.Error(t, err)

	// A retry after the failure must not see a duplicated user entry.
	assert.Empty(t, session.History())
}

func TestReset(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>final<|message|>ok<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)

	_, err := session.Ask(context.Background(), "hi")
	require.NoError(t, err)
	require.NotEmpty(t, session.History())

	session.Reset()
	assert.Empty(t, session.History())
}

func TestEnforceMemoryBoundsKeepsSystemEntry(t *testing.T) {
	eng := &scriptedEngine{completions: []string{
		"<|start|>assistant<|channel|>final<|message|>ok<|return|>",
	}}
	session := NewSession(testConfig(), eng, nil, nil)
	session.Append(types.NewSystemEntry("identity"))

	for i := 0; i < MaxHistoryLength; i++ {
		_, err := session.Ask(context.Background(), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	history := session.History()
	assert.Len(t, history, MaxHistoryLength)
	assert.Equal(t, types.RoleSystem, history[0].Role, "system entry survives trimming")
	assert.Equal(t, "identity", history[0].Content)
}
