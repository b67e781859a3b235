package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/viz"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/pkg/common"
)

// SceneHandler exposes the visualization scene over HTTP.
type SceneHandler struct {
	scene  *viz.Scene
	logger *zap.Logger
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(scene *viz.Scene, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{
		scene:  scene,
		logger: logger,
	}
}

// GetSnapshot handles GET /api/scene
func (h *SceneHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.scene.Snapshot(), h.logger)
}

// GetSVG handles GET /api/scene/svg
func (h *SceneHandler) GetSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(h.scene.RenderSVG())); err != nil {
		h.logger.Error("Failed to write SVG response", zap.Error(err))
	}
}

// ResetView handles POST /api/scene/reset
func (h *SceneHandler) ResetView(w http.ResponseWriter, r *http.Request) {
	h.scene.ResetView()
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "resetting"}, h.logger)
}
