package viz

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

// View transform bounds and reset animation timing
const (
	minScale      = 0.2
	maxScale      = 4.0
	resetDuration = 500 * time.Millisecond
	frameInterval = 16 * time.Millisecond
)

// Transform is the affine pan/zoom mapping applied to the whole scene as a
// unit: screen = layout*Scale + (TX, TY).
type Transform struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

// Identity returns the untransformed view
func Identity() Transform {
	return Transform{Scale: 1}
}

// ToLayout maps a screen point back into layout space
func (t Transform) ToLayout(sx, sy float64) (float64, float64) {
	return (sx - t.TX) / t.Scale, (sy - t.TY) / t.Scale
}

// SceneSnapshot is the full observable state of the scene at one instant
type SceneSnapshot struct {
	Version   string         `json:"version"`
	Alpha     float64        `json:"alpha"`
	Transform Transform      `json:"transform"`
	Nodes     []NodePosition `json:"nodes"`
	Hovered   string         `json:"hovered,omitempty"`
}

// Scene is the single owner of all visualization state: the loaded dataset,
// the running simulation, the view transform and the drag/hover gesture
// state. Every mutation goes through one of its entry points; there are no
// free-floating handlers over shared variables.
type Scene struct {
	mu sync.Mutex

	width, height float64
	dataset       *Dataset
	sim           *Simulation
	renderer      *Renderer
	transform     Transform

	dragID   string
	hoverID  string
	animStop chan struct{}
	logger   *zap.Logger
}

// NewScene creates an empty scene for a viewport of the given size
func NewScene(width, height float64, logger *zap.Logger) *Scene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scene{
		width:     width,
		height:    height,
		transform: Identity(),
		renderer:  NewRenderer(width, height),
		logger:    logger,
	}
}

// Load installs a dataset and (re)starts the simulation. Loading the same
// dataset version again is idempotent and keeps the current render. A new
// version clears every drawn primitive, replaces the dataset wholesale and
// restarts the simulation from scratch; there is no incremental merge.
func (s *Scene) Load(version string, nodes []*graph.Node, edges []*graph.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset != nil && s.dataset.Version == version {
		return
	}

	if s.sim != nil {
		s.sim.Stop()
	}
	s.renderer.Clear()
	s.dragID = ""
	s.hoverID = ""

	s.dataset = Adapt(version, nodes, edges)
	s.renderer.BuildScene(s.dataset)

	sim := NewSimulation(s.dataset, s.width, s.height, s.logger)
	sim.OnTick(s.applyTick)
	s.sim = sim
	sim.Start()

	s.logger.Info("Scene loaded",
		zap.String("version", version),
		zap.Int("nodes", len(s.dataset.Nodes)),
		zap.Int("links", len(s.dataset.Links)),
	)
}

// applyTick feeds simulation snapshots to the renderer
func (s *Scene) applyTick(snapshot TickSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil || s.dataset.Version != snapshot.Version {
		return // stale tick from a replaced dataset
	}
	s.renderer.ApplyFrame(snapshot)
}

// OnDragStart pins the node at its current position and reheats the
// simulation so neighbors respond live. Only one drag can be active; a
// second gesture while one is held is ignored.
func (s *Scene) OnDragStart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset == nil || s.dragID != "" {
		return false
	}
	if !s.sim.Pin(id) {
		return false
	}

	s.dragID = id
	s.sim.Reheat(alphaReheat)
	return true
}

// OnDragMove updates the pinned coordinates to the pointer position, given
// in screen space.
func (s *Scene) OnDragMove(sx, sy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragID == "" {
		return
	}
	x, y := s.transform.ToLayout(sx, sy)
	s.sim.PinAt(s.dragID, x, y)
}

// OnDragEnd releases the node back to free simulation and lets alpha decay.
// Pass permanent to leave the node pinned where it was dropped.
func (s *Scene) OnDragEnd(permanent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragID == "" {
		return
	}
	if !permanent {
		s.sim.Unpin(s.dragID)
	}
	s.dragID = ""
	s.sim.SetAlphaTarget(0)
}

// OnZoom applies a zoom factor anchored at a screen point, keeping the
// anchor stationary. Scale is clamped to [0.2, 4].
func (s *Scene) OnZoom(factor, sx, sy float64) Transform {
	s.mu.Lock()
	defer s.mu.Unlock()

	scale := clampScale(s.transform.Scale * factor)
	applied := scale / s.transform.Scale
	s.transform = Transform{
		Scale: scale,
		TX:    sx - (sx-s.transform.TX)*applied,
		TY:    sy - (sy-s.transform.TY)*applied,
	}
	return s.transform
}

// OnPan translates the view by a screen-space delta
func (s *Scene) OnPan(dx, dy float64) Transform {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transform.TX += dx
	s.transform.TY += dy
	return s.transform
}

// SetTransform installs a transform directly, clamping scale
func (s *Scene) SetTransform(t Transform) Transform {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.Scale = clampScale(t.Scale)
	s.transform = t
	return s.transform
}

// ResetView animates the transform back to identity over 500ms with cubic
// ease-out. A reset issued mid-animation supersedes the running one.
func (s *Scene) ResetView() {
	s.mu.Lock()
	if s.animStop != nil {
		close(s.animStop)
	}
	stop := make(chan struct{})
	s.animStop = stop
	from := s.transform
	s.mu.Unlock()

	go s.animateReset(from, stop)
}

func (s *Scene) animateReset(from Transform, stop chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t := float64(time.Since(start)) / float64(resetDuration)
			if t >= 1 {
				s.mu.Lock()
				s.transform = Identity()
				if s.animStop == stop {
					s.animStop = nil
				}
				s.mu.Unlock()
				return
			}
			eased := easeOutCubic(t)
			s.mu.Lock()
			s.transform = Transform{
				Scale: from.Scale + (1-from.Scale)*eased,
				TX:    from.TX * (1 - eased),
				TY:    from.TY * (1 - eased),
			}
			s.mu.Unlock()
		}
	}
}

// OnHoverEnter records the hovered node and returns its tooltip. Hover is
// read-only with respect to the simulation.
func (s *Scene) OnHoverEnter(id string) (Tooltip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset == nil {
		return Tooltip{}, false
	}
	node := s.dataset.NodeByID(id)
	if node == nil {
		return Tooltip{}, false
	}
	s.hoverID = id
	return BuildTooltip(node), true
}

// OnHoverLeave hides the tooltip
func (s *Scene) OnHoverLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hoverID = ""
}

// Transform returns the current view transform
func (s *Scene) Transform() Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Snapshot returns the current observable scene state
func (s *Scene) Snapshot() SceneSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := SceneSnapshot{
		Transform: s.transform,
		Hovered:   s.hoverID,
	}
	if s.dataset == nil || s.sim == nil {
		return snapshot
	}
	tick := s.sim.Snapshot()
	snapshot.Version = tick.Version
	snapshot.Alpha = tick.Alpha
	snapshot.Nodes = tick.Nodes
	return snapshot
}

// RenderSVG renders the current frame as an SVG document
func (s *Scene) RenderSVG() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.RenderSVG(s.transform)
}

// Stop halts the simulation and any running view animation
func (s *Scene) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim != nil {
		s.sim.Stop()
	}
	if s.animStop != nil {
		close(s.animStop)
		s.animStop = nil
	}
}

func clampScale(scale float64) float64 {
	return math.Min(maxScale, math.Max(minScale, scale))
}

func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}
