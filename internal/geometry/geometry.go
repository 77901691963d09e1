// Package geometry holds the pure, stateless grid helpers spec.md §1
// names as an external collaborator consumed only through the shape
// the coordination core needs: a single step toward a target, and the
// zone predicates used to gate phase and defence-sampling decisions.
package geometry

import "github.com/nimbus-ops/swarm-mission/internal/model"

// Zone boundaries, from spec.md §6: Assembly [0,33], Defence (33,66],
// Reassembly (66,100].
const (
	AssemblyMaxY   = 33
	DefenceMaxY    = 66
	GridMax        = 100
	DefenceBandX   = 15 // |x - defence.x| <= this to be in a sampler's band
)

// Step advances pos by at most magnitude units toward target, moving
// independently along each axis (a Chebyshev step — each axis closes by
// up to magnitude, diagonal motion included) and returns the new
// position plus the Manhattan distance actually travelled, which is
// what cumulative distance (I2) accrues.
func Step(pos, target model.Point, magnitude int) (model.Point, int) {
	if magnitude <= 0 {
		return pos, 0
	}
	next := pos

	dx := target.X - pos.X
	next.X += clamp(dx, magnitude)

	dy := target.Y - pos.Y
	next.Y += clamp(dy, magnitude)

	next = Clamp(next)
	moved := abs(next.X-pos.X) + abs(next.Y-pos.Y)
	return next, moved
}

// clamp returns delta restricted to [-limit, limit].
func clamp(delta, limit int) int {
	if delta > limit {
		return limit
	}
	if delta < -limit {
		return -limit
	}
	return delta
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Clamp restricts a point to the closed grid [0,100]x[0,100] (I5).
func Clamp(p model.Point) model.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.X > GridMax {
		p.X = GridMax
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > GridMax {
		p.Y = GridMax
	}
	return p
}

// Arrived reports whether pos has reached target exactly.
func Arrived(pos, target model.Point) bool {
	return pos.Equal(target)
}

// InDefenceBand reports whether a position's y lies in the closed band
// [AssemblyMaxY, DefenceMaxY] (so y == 33, the Assembly zone's edge,
// counts) and its x is within DefenceBandX of a defence installation —
// the predicate the Defence Sampler evaluates each tick (spec.md §4.4).
func InDefenceBand(pos model.Point, defenceX int) bool {
	if pos.Y < AssemblyMaxY || pos.Y > DefenceMaxY {
		return false
	}
	return abs(pos.X-defenceX) <= DefenceBandX
}

// PastReassemblyThreshold reports whether pos has reached the
// re-assembly threshold (I6: y >= ZONA_DEFENSA_MAX); y == DefenceMaxY,
// the Defence zone's upper edge, already counts.
func PastReassemblyThreshold(pos model.Point) bool {
	return pos.Y >= DefenceMaxY
}

// LoiterStep returns a small bounded displacement around center used by
// CirclingAssembly, consuming fuel proportional to real motion without
// drifting the drone away from the assembly point for long. It walks a
// 4-point diamond of radius 1 around center, keyed by tick.
func LoiterStep(center model.Point, tick int) model.Point {
	offsets := [4]model.Point{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
	o := offsets[tick%4]
	return Clamp(model.Point{X: center.X + o.X, Y: center.Y + o.Y})
}
