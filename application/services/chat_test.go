package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/llm"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// stubModel scripts the model's answers and records history writes
type stubModel struct {
	intent     llm.Intent
	parseErr   error
	formatted  string
	formatErr  error
	lastResult map[string]interface{}
	history    []llm.Message
}

func (m *stubModel) ParseQuery(_ context.Context, _ string, _ map[string]interface{}) (llm.Intent, error) {
	return m.intent, m.parseErr
}

func (m *stubModel) FormatResponse(_ context.Context, _ string, result map[string]interface{}) (string, error) {
	m.lastResult = result
	return m.formatted, m.formatErr
}

func (m *stubModel) AddToHistory(role, content string) {
	m.history = append(m.history, llm.Message{Role: role, Content: content})
}

func (m *stubModel) ClearHistory() {
	m.history = nil
}

func TestChat_FullPipeline(t *testing.T) {
	model := &stubModel{
		intent:    llm.Intent{Intent: IntentOwnership, Params: map[string]interface{}{"node_id": "payments"}},
		formatted: "Payments is owned by core-team.",
	}
	service := NewChatService(model, NewIntentParser(testEngine(t)), nil, nil)

	result, err := service.Chat(context.Background(), "who owns payments?")
	require.NoError(t, err)

	assert.Equal(t, "Payments is owned by core-team.", result.Response)
	assert.Equal(t, IntentOwnership, result.Intent.Intent)
	assert.Equal(t, "ownership", result.RawResult["type"])
	assert.Equal(t, "ownership", model.lastResult["type"])

	require.Len(t, model.history, 2)
	assert.Equal(t, "user", model.history[0].Role)
	assert.Equal(t, "who owns payments?", model.history[0].Content)
	assert.Equal(t, "assistant", model.history[1].Role)
}

func TestChat_ClarificationSkipsExecution(t *testing.T) {
	model := &stubModel{
		intent: llm.Intent{Intent: IntentOwnership, Clarification: "Which service do you mean?"},
	}
	service := NewChatService(model, NewIntentParser(testEngine(t)), nil, nil)

	result, err := service.Chat(context.Background(), "who owns it?")
	require.NoError(t, err)

	assert.Equal(t, "Which service do you mean?", result.Response)
	assert.Nil(t, result.RawResult)
	assert.Nil(t, model.lastResult, "formatting is skipped on clarification")
	require.Len(t, model.history, 2)
}

func TestChat_ParseErrorPropagates(t *testing.T) {
	model := &stubModel{parseErr: errors.NewExternalError("gemini", assert.AnError)}
	service := NewChatService(model, NewIntentParser(testEngine(t)), nil, nil)

	_, err := service.Chat(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, model.history, "failed turns leave no history")
}

func TestChat_FormatErrorPropagates(t *testing.T) {
	model := &stubModel{
		intent:    llm.Intent{Intent: IntentListNodes, Params: map[string]interface{}{}},
		formatErr: errors.NewExternalError("gemini", assert.AnError),
	}
	service := NewChatService(model, NewIntentParser(testEngine(t)), nil, nil)

	_, err := service.Chat(context.Background(), "list everything")
	require.Error(t, err)
	assert.Empty(t, model.history)
}
