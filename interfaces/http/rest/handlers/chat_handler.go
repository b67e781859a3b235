package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands"
	commandbus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/services"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/common"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// ChatHandler serves the conversational query endpoints.
type ChatHandler struct {
	chat         *services.ChatService
	commandBus   *commandbus.CommandBus
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, commandBus *commandbus.CommandBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:         chat,
		commandBus:   commandBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, errors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		h.errorHandler.Handle(w, r, errors.NewValidationError("message is required"))
		return
	}

	result, err := h.chat.Chat(r.Context(), req.Message)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}

// ClearChat handles POST /api/chat/clear
func (h *ChatHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.ClearChatCommand{}); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, h.logger)
}
