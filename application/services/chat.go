package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/llm"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/observability"
)

// ModelClient is the language-model surface the chat pipeline needs
type ModelClient interface {
	ParseQuery(ctx context.Context, userQuery string, schema map[string]interface{}) (llm.Intent, error)
	FormatResponse(ctx context.Context, userQuery string, result map[string]interface{}) (string, error)
	AddToHistory(role, content string)
	ClearHistory()
}

// ChatResult is the full outcome of one chat turn
type ChatResult struct {
	Response  string                 `json:"response"`
	Intent    llm.Intent             `json:"intent"`
	RawResult map[string]interface{} `json:"raw_result,omitempty"`
}

// ChatService runs the chat pipeline: classify the message into an intent,
// execute it against the graph, then have the model phrase the result.
// Clarification questions skip execution and go straight back to the user.
type ChatService struct {
	model   ModelClient
	parser  *IntentParser
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService creates the chat pipeline
func NewChatService(model ModelClient, parser *IntentParser, metrics *observability.Metrics, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		model:   model,
		parser:  parser,
		metrics: metrics,
		logger:  logger,
	}
}

// Chat processes one user message
func (s *ChatService) Chat(ctx context.Context, message string) (*ChatResult, error) {
	schema := s.parser.Schema()

	intent, err := s.model.ParseQuery(ctx, message, schema)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ChatRequestsTotal.WithLabelValues(intent.Intent).Inc()
	}
	s.logger.Debug("Parsed chat intent",
		zap.String("intent", intent.Intent),
		zap.Any("params", intent.Params),
	)

	if intent.Clarification != "" {
		s.model.AddToHistory("user", message)
		s.model.AddToHistory("assistant", intent.Clarification)
		return &ChatResult{
			Response: intent.Clarification,
			Intent:   intent,
		}, nil
	}

	result := s.parser.Execute(intent)

	formatted, err := s.model.FormatResponse(ctx, message, result)
	if err != nil {
		return nil, err
	}

	s.model.AddToHistory("user", message)
	s.model.AddToHistory("assistant", formatted)

	return &ChatResult{
		Response:  formatted,
		Intent:    intent,
		RawResult: result,
	}, nil
}
