package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries"
	querybus "github.com/daivik-hirpara/Engineering-Knowledge-Graph/application/queries/bus"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/common"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/errors"
)

// GraphHandler serves the graph payload, stats, nodes and search endpoints.
type GraphHandler struct {
	queryBus     *querybus.QueryBus
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// GetGraphData handles GET /api/graph
func (h *GraphHandler) GetGraphData(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphDataQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}

// GetStats handles GET /api/stats
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetStatsQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}

// ListNodes handles GET /api/nodes
func (h *GraphHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	query := queries.ListNodesQuery{
		NodeType:   r.URL.Query().Get("type"),
		Pagination: common.ExtractPaginationParams(r),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}

// GetNode handles GET /api/nodes/{nodeID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	result, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{NodeID: nodeID})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}

// Search handles GET /api/search
func (h *GraphHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.SearchNodesQuery{Text: r.URL.Query().Get("q")})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result, h.logger)
}
