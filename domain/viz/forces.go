package viz

import "math"

// Default force parameters, matching the layout the frontend was tuned for
const (
	linkDistance   = 120.0
	chargeStrength = -400.0
	collideRadius  = 40.0
	collideRounds  = 2
)

// epsilon is the minimum separation used wherever a distance appears in a
// denominator; coincident nodes (including self-loops) must not divide by
// zero.
const epsilon = 1e-6

// Force mutates node velocities (or positions, for the centering force) for
// one simulation step scaled by the current alpha.
type Force interface {
	Apply(nodes []*SimNode, alpha float64)
}

// LinkForce pulls each linked pair toward a target separation, spring-like:
// the correction is proportional to the positional error. Each endpoint's
// share of the correction is biased by its degree so well-connected nodes
// move less.
type LinkForce struct {
	Links    []*SimLink
	Distance float64

	degree map[*SimNode]int
}

// NewLinkForce creates a link force over the dataset's links
func NewLinkForce(links []*SimLink) *LinkForce {
	degree := make(map[*SimNode]int)
	for _, link := range links {
		degree[link.Source]++
		degree[link.Target]++
	}
	return &LinkForce{
		Links:    links,
		Distance: linkDistance,
		degree:   degree,
	}
}

// Apply implements Force
func (f *LinkForce) Apply(_ []*SimNode, alpha float64) {
	for _, link := range f.Links {
		source, target := link.Source, link.Target

		dx := target.X + target.Vx - source.X - source.Vx
		dy := target.Y + target.Vy - source.Y - source.Vy
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < epsilon {
			dist = epsilon
		}

		strength := 1.0 / float64(min(f.degree[source], f.degree[target]))
		l := (dist - f.Distance) / dist * alpha * strength

		bias := float64(f.degree[source]) / float64(f.degree[source]+f.degree[target])
		target.Vx -= dx * l * bias
		target.Vy -= dy * l * bias
		source.Vx += dx * l * (1 - bias)
		source.Vy += dy * l * (1 - bias)
	}
}

// ChargeForce is an n-body repulsion: every node pushes every other node
// away with inverse-distance falloff. Negative strength repels. This is the
// term that spreads disconnected clusters apart.
type ChargeForce struct {
	Strength float64
}

// NewChargeForce creates the default repulsive charge force
func NewChargeForce() *ChargeForce {
	return &ChargeForce{Strength: chargeStrength}
}

// Apply implements Force
func (f *ChargeForce) Apply(nodes []*SimNode, alpha float64) {
	for i, node := range nodes {
		for j, other := range nodes {
			if i == j {
				continue
			}
			dx := other.X - node.X
			dy := other.Y - node.Y
			distSq := dx*dx + dy*dy
			if distSq < epsilon {
				distSq = epsilon
			}
			w := f.Strength * alpha / distSq
			node.Vx += dx * w
			node.Vy += dy * w
		}
	}
}

// CenterForce translates the whole layout so its centroid tracks the
// viewport center, preventing drift off-screen. It adjusts positions
// directly rather than velocities.
type CenterForce struct {
	X, Y     float64
	Strength float64
}

// NewCenterForce creates a centering force on the given viewport center
func NewCenterForce(x, y float64) *CenterForce {
	return &CenterForce{X: x, Y: y, Strength: 1}
}

// Apply implements Force
func (f *CenterForce) Apply(nodes []*SimNode, _ float64) {
	if len(nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, node := range nodes {
		sx += node.X
		sy += node.Y
	}
	sx = (sx/float64(len(nodes)) - f.X) * f.Strength
	sy = (sy/float64(len(nodes)) - f.Y) * f.Strength
	for _, node := range nodes {
		node.X -= sx
		node.Y -= sy
	}
}

// CollideForce keeps nodes from overlapping: any pair closer than twice the
// effective radius is pushed apart by iterative relaxation.
type CollideForce struct {
	Radius     float64
	Iterations int
}

// NewCollideForce creates the default collision force
func NewCollideForce() *CollideForce {
	return &CollideForce{Radius: collideRadius, Iterations: collideRounds}
}

// Apply implements Force
func (f *CollideForce) Apply(nodes []*SimNode, _ float64) {
	minDist := f.Radius * 2
	for round := 0; round < f.Iterations; round++ {
		for i, node := range nodes {
			for _, other := range nodes[i+1:] {
				dx := other.X + other.Vx - node.X - node.Vx
				dy := other.Y + other.Vy - node.Y - node.Vy
				distSq := dx*dx + dy*dy
				if distSq >= minDist*minDist {
					continue
				}
				dist := math.Sqrt(distSq)
				if dist < epsilon {
					// coincident: nudge apart along x
					dx, dy, dist = minDist*1e-3, 0, minDist*1e-3
				}
				overlap := (minDist - dist) / dist * 0.5
				px, py := dx*overlap, dy*overlap
				node.Vx -= px
				node.Vy -= py
				other.Vx += px
				other.Vy += py
			}
		}
	}
}
