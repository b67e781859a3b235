// Package commands defines the write side of the application: state-changing
// operations and their handlers.
package commands

import (
	"context"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
)

// ReloadGraphCommand triggers a full reload of graph data from disk
type ReloadGraphCommand struct{}

// Validate implements bus.Command
func (c ReloadGraphCommand) Validate() error { return nil }

// GraphLoader abstracts the ingest loader for the reload handler
type GraphLoader interface {
	Load(ctx context.Context) error
}

// ReloadGraphHandler runs the loader on demand
type ReloadGraphHandler struct {
	loader GraphLoader
}

// NewReloadGraphHandler creates the handler
func NewReloadGraphHandler(loader GraphLoader) *ReloadGraphHandler {
	return &ReloadGraphHandler{loader: loader}
}

// Handle implements bus.CommandHandler
func (h *ReloadGraphHandler) Handle(ctx context.Context, _ bus.Command) error {
	return h.loader.Load(ctx)
}

// ClearChatCommand drops the conversation history
type ClearChatCommand struct{}

// Validate implements bus.Command
func (c ClearChatCommand) Validate() error { return nil }

// HistoryClearer abstracts the chat history owner
type HistoryClearer interface {
	ClearHistory()
}

// ClearChatHandler clears the conversation history
type ClearChatHandler struct {
	history HistoryClearer
}

// NewClearChatHandler creates the handler
func NewClearChatHandler(history HistoryClearer) *ClearChatHandler {
	return &ClearChatHandler{history: history}
}

// Handle implements bus.CommandHandler
func (h *ClearChatHandler) Handle(_ context.Context, _ bus.Command) error {
	h.history.ClearHistory()
	return nil
}
