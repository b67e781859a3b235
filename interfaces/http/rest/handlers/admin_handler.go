package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands"
	commandbus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/commands/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/common"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// AdminHandler serves operational endpoints.
type AdminHandler struct {
	commandBus   *commandbus.CommandBus
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(commandBus *commandbus.CommandBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		commandBus:   commandBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Reload handles POST /api/reload
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.ReloadGraphCommand{}); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "reloaded"}, h.logger)
}
