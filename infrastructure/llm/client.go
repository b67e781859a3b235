// Package llm talks to the Gemini API for query understanding and response
// formatting.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/observability"
)

const (
	// Parsing wants near-deterministic output, formatting can be looser.
	parseTemperature  = 0.1
	formatTemperature = 0.3

	// contextWindow is how many history messages accompany a parse call
	contextWindow = 4

	requestTimeout = 30 * time.Second
)

// Message is one turn of the conversation history
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the structured interpretation of a user query
type Intent struct {
	Intent        string                 `json:"intent"`
	Params        map[string]interface{} `json:"params"`
	Clarification string                 `json:"clarification,omitempty"`
}

// unknownIntent is returned when the model's output cannot be interpreted
func unknownIntent() Intent {
	return Intent{
		Intent:        "UNKNOWN",
		Params:        map[string]interface{}{},
		Clarification: "I couldn't understand your query. Could you rephrase it?",
	}
}

// Client wraps the Gemini generateContent endpoint. Calls go through a
// circuit breaker so a degraded upstream fails fast instead of holding every
// chat request for the full timeout. The client also owns the bounded
// conversation history.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	endpoint   string
	model      string
	apiKey     string
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu         sync.Mutex
	history    []Message
	historyMax int
}

// NewClient creates a Gemini client. The endpoint is the API base URL
// without a trailing slash, e.g. https://generativelanguage.googleapis.com/v1beta.
func NewClient(endpoint, model, apiKey string, historyMax int, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    breaker,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		model:      model,
		apiKey:     apiKey,
		metrics:    metrics,
		logger:     logger,
		historyMax: historyMax,
	}
}

// Gemini wire format

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// ParseQuery asks the model to classify a user query into an intent with
// parameters, giving it the graph schema and the recent conversation as
// context. Unparseable model output degrades to an UNKNOWN intent rather
// than an error; transport and breaker failures are returned to the caller.
func (c *Client) ParseQuery(ctx context.Context, userQuery string, schema map[string]interface{}) (Intent, error) {
	contents := c.recentContext()
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: "Parse this query and return only the JSON intent object: " + userQuery}},
	})

	text, err := c.generate(ctx, systemPrompt(schema), contents, parseTemperature)
	if err != nil {
		return Intent{}, err
	}

	var intent Intent
	if err := json.Unmarshal([]byte(extractJSON(text)), &intent); err != nil {
		c.logger.Warn("Model returned unparseable intent", zap.String("text", text))
		return unknownIntent(), nil
	}
	if intent.Params == nil {
		intent.Params = map[string]interface{}{}
	}
	return intent, nil
}

// FormatResponse asks the model to turn a structured query result into a
// human-readable answer.
func (c *Client) FormatResponse(ctx context.Context, userQuery string, result map[string]interface{}) (string, error) {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", errors.NewInternalError("failed to encode query result").WithCause(err)
	}

	system := "You are an Engineering Knowledge Graph assistant. Format the query results into a helpful, human-readable response.\n\n" +
		"Be concise but complete. Use bullet points for lists. Highlight important information like oncall contacts.\n" +
		"Do not make up information - only use what's provided in the query result."

	prompt := fmt.Sprintf("User asked: %s\n\nQuery result data:\n%s\n\nFormat this into a helpful response for the user.",
		userQuery, resultJSON)

	return c.generate(ctx, system, []content{{Role: "user", Parts: []part{{Text: prompt}}}}, formatTemperature)
}

// AddToHistory appends one turn, keeping the window bounded
func (c *Client) AddToHistory(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if role != "user" {
		role = "assistant"
	}
	c.history = append(c.history, Message{Role: role, Content: content})
	if len(c.history) > c.historyMax {
		c.history = c.history[len(c.history)-c.historyMax:]
	}
}

// History returns a copy of the conversation history
func (c *Client) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory drops the conversation history
func (c *Client) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// recentContext maps the tail of the history into Gemini content entries
func (c *Client) recentContext() []content {
	c.mu.Lock()
	defer c.mu.Unlock()

	tail := c.history
	if len(tail) > contextWindow {
		tail = tail[len(tail)-contextWindow:]
	}
	out := make([]content, 0, len(tail))
	for _, msg := range tail {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		out = append(out, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}
	return out
}

func (c *Client) generate(ctx context.Context, system string, contents []content, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		Contents:          contents,
		GenerationConfig:  generationConfig{Temperature: temperature},
	})
	if err != nil {
		return "", errors.NewInternalError("failed to encode model request").WithCause(err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, payload)
		}

		var parsed generateResponse
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return nil, fmt.Errorf("decoding gemini response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("gemini returned no candidates")
		}
		return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.LLMFailuresTotal.Inc()
		}
		c.logger.Error("Model call failed", zap.Error(err))
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.NewUnavailableError("gemini")
		}
		return "", errors.NewExternalError("gemini", err)
	}
	return result.(string), nil
}

// extractJSON strips markdown code fences the model often wraps JSON in
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

// systemPrompt builds the parse-time instruction with the current graph
// schema embedded.
func systemPrompt(schema map[string]interface{}) string {
	schemaJSON, _ := json.MarshalIndent(schema, "", "  ")
	return fmt.Sprintf(`You are an Engineering Knowledge Graph assistant. You help users query and understand their infrastructure.

## Available Graph Data
%s

## Your Capabilities
You can answer questions about:
- **Ownership**: Who owns a service/database? What does a team own?
- **Dependencies**: What does a service depend on? What services use a resource?
- **Blast Radius**: What breaks if something goes down? What's the impact?
- **Paths**: How does service A connect to service B?
- **Exploration**: List all services, databases, teams, etc.

## Query Intent Classification
For each user query, you must determine the intent and required parameters:
- OWNERSHIP: node_id or team_name
- DEPENDENCY_DOWNSTREAM: node_id (what does X depend on?)
- DEPENDENCY_UPSTREAM: node_id (what uses X?)
- BLAST_RADIUS: node_id
- PATH: from_id, to_id
- LIST_NODES: node_type (service, database, cache, team)
- NODE_INFO: node_id
- SEARCH: query_text
- TEAM_OWNS: team_name

Respond with a JSON object containing:
{
    "intent": "INTENT_TYPE",
    "params": {},
    "clarification": null or "question if needed"
}

If the query is ambiguous, ask for clarification.`, schemaJSON)
}
