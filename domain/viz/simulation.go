package viz

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Simulation tuning. alphaDecay follows the standard 300-tick cooling
// schedule; velocityRetention is the per-tick damping applied to velocities
// before integration.
const (
	alphaInitial      = 1.0
	alphaMin          = 0.001
	alphaReheat       = 0.3
	velocityRetention = 0.6
	tickInterval      = 33 * time.Millisecond

	initialRadius = 10.0
)

var (
	alphaDecay  = 1 - math.Pow(alphaMin, 1.0/300)
	goldenAngle = math.Pi * (3 - math.Sqrt(5))
)

// NodePosition is one node's location in a tick snapshot
type NodePosition struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// TickSnapshot is the per-tick state handed to renderers. Positions are
// copies; renderers never touch live simulation state.
type TickSnapshot struct {
	Version string         `json:"version"`
	Alpha   float64        `json:"alpha"`
	Nodes   []NodePosition `json:"nodes"`
}

// Simulation is the force-directed layout engine: a cooperative tick loop
// that decays alpha from 1 toward 0, applying all forces each step, and
// stops itself once alpha falls below the threshold. Reheat restarts it.
// All state mutation happens under one lock, so ticks and external entry
// points are strictly sequential.
type Simulation struct {
	mu     sync.Mutex
	nodes  []*SimNode
	byID   map[string]*SimNode
	forces []Force

	alpha       float64
	alphaTarget float64
	running     bool
	stop        chan struct{}

	width, height float64
	version       string
	onTick        func(TickSnapshot)
	logger        *zap.Logger
}

// NewSimulation builds a simulation over an adapted dataset with the
// standard force set: link, charge, center, collide. Nodes without positions
// get deterministic phyllotaxis placement around the viewport center, so a
// given dataset always starts from the same layout.
func NewSimulation(dataset *Dataset, width, height float64, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	sim := &Simulation{
		nodes:   dataset.Nodes,
		byID:    dataset.byID,
		alpha:   alphaInitial,
		width:   width,
		height:  height,
		version: dataset.Version,
		logger:  logger,
	}
	sim.forces = []Force{
		NewLinkForce(dataset.Links),
		NewChargeForce(),
		NewCenterForce(width/2, height/2),
		NewCollideForce(),
	}
	sim.place()
	return sim
}

// place assigns initial positions to nodes that have none
func (s *Simulation) place() {
	// A single node converges immediately at the center.
	if len(s.nodes) == 1 {
		node := s.nodes[0]
		if node.X == 0 && node.Y == 0 {
			node.X, node.Y = s.width/2, s.height/2
		}
		return
	}
	for i, node := range s.nodes {
		if node.X != 0 || node.Y != 0 {
			continue
		}
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * goldenAngle
		node.X = s.width/2 + radius*math.Cos(angle)
		node.Y = s.height/2 + radius*math.Sin(angle)
	}
}

// OnTick registers the per-tick snapshot consumer. Must be set before Start.
func (s *Simulation) OnTick(fn func(TickSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = fn
}

// Alpha returns the current simulation energy
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Running reports whether the tick loop is live
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the tick loop. An empty dataset needs no ticks and is left
// converged; starting an already running simulation is a no-op.
func (s *Simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

func (s *Simulation) startLocked() {
	if s.running || len(s.nodes) == 0 {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	go s.loop(s.stop)
}

// Stop halts the tick loop without resetting positions
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Simulation) stopLocked() {
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
}

// Reheat resets alpha to a moderate level and sets the decay target, used
// when a drag begins so neighbors respond live. Restarts the loop if it has
// self-terminated.
func (s *Simulation) Reheat(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alphaTarget = target
	if s.alpha < alphaReheat {
		s.alpha = alphaReheat
	}
	s.startLocked()
}

// SetAlphaTarget adjusts the decay target; 0 lets the simulation cool back
// down after a drag ends.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = target
}

func (s *Simulation) loop(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snapshot, done, emit := s.advance()
			if emit != nil {
				emit(snapshot)
			}
			if done {
				return
			}
		}
	}
}

// advance runs one step under the lock and reports whether the loop should
// self-terminate. The snapshot callback is returned so it runs outside the
// lock; a tick's position updates are fully applied before any consumer
// reads them.
func (s *Simulation) advance() (TickSnapshot, bool, func(TickSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return TickSnapshot{}, true, nil
	}

	s.stepLocked()
	snapshot := s.snapshotLocked()

	if s.alpha < alphaMin && s.alphaTarget < alphaMin {
		s.logger.Debug("Simulation converged",
			zap.String("version", s.version),
			zap.Float64("alpha", s.alpha),
		)
		s.stopLocked()
		return snapshot, true, s.onTick
	}
	return snapshot, false, s.onTick
}

// Step advances the simulation one tick synchronously. Exposed for callers
// that drive the engine themselves instead of using the loop.
func (s *Simulation) Step() TickSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLocked()
	return s.snapshotLocked()
}

func (s *Simulation) stepLocked() {
	s.alpha += (s.alphaTarget - s.alpha) * alphaDecay

	for _, force := range s.forces {
		force.Apply(s.nodes, s.alpha)
	}

	for _, node := range s.nodes {
		if node.Pinned() {
			node.X, node.Y = *node.FX, *node.FY
			node.Vx, node.Vy = 0, 0
			continue
		}
		node.Vx *= velocityRetention
		node.Vy *= velocityRetention
		node.X += node.Vx
		node.Y += node.Vy
	}
}

// Pin fixes a node at its current position. Returns false for unknown ids.
func (s *Simulation) Pin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.byID[id]
	if !ok {
		return false
	}
	node.Pin(node.X, node.Y)
	return true
}

// PinAt moves a pinned node to the given layout coordinates
func (s *Simulation) PinAt(id string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.byID[id]
	if !ok {
		return false
	}
	node.Pin(x, y)
	node.X, node.Y = x, y
	return true
}

// Unpin releases a node back to free simulation
func (s *Simulation) Unpin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.byID[id]; ok {
		node.Unpin()
	}
}

// PinnedPosition returns a node's fixed coordinates, if any
func (s *Simulation) PinnedPosition(id string) (float64, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.byID[id]
	if !ok || !node.Pinned() {
		return 0, 0, false
	}
	return *node.FX, *node.FY, true
}

// Snapshot returns the current node positions without stepping
func (s *Simulation) Snapshot() TickSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() TickSnapshot {
	positions := make([]NodePosition, len(s.nodes))
	for i, node := range s.nodes {
		positions[i] = NodePosition{
			ID:     node.ID,
			X:      node.X,
			Y:      node.Y,
			Pinned: node.Pinned(),
		}
	}
	return TickSnapshot{
		Version: s.version,
		Alpha:   s.alpha,
		Nodes:   positions,
	}
}
