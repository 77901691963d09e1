// Package model holds the data types shared by every coordination-core
// package: positions, per-drone records, swarm and objective records.
package model

import "time"

// DroneID uniquely identifies a drone for the lifetime of a run.
type DroneID int

// SwarmID indexes into the fixed swarm set.
type SwarmID int

// Role distinguishes an Attack drone (carries a payload) from a Camera
// drone (performs battle-damage assessment).
type Role int

const (
	RoleAttack Role = iota
	RoleCamera
)

func (r Role) String() string {
	if r == RoleCamera {
		return "Camera"
	}
	return "Attack"
}

// Liveness is the drone's terminal-or-not status, per spec.md §3.
type Liveness int

const (
	LivenessAlive Liveness = iota
	LivenessDestroyed
	LivenessFuelEmpty
	LivenessDetonated
	LivenessMissionComplete
	LivenessLinkLost
)

func (l Liveness) String() string {
	switch l {
	case LivenessAlive:
		return "Alive"
	case LivenessDestroyed:
		return "Destroyed"
	case LivenessFuelEmpty:
		return "FuelEmpty"
	case LivenessDetonated:
		return "Detonated"
	case LivenessMissionComplete:
		return "MissionComplete"
	case LivenessLinkLost:
		return "LinkLost"
	default:
		return "Unknown"
	}
}

// Terminal reports whether this liveness value is irrevocable.
func (l Liveness) Terminal() bool {
	return l != LivenessAlive
}

// LinkStatus is the simulated control-channel state.
type LinkStatus int

const (
	LinkUp LinkStatus = iota
	LinkDown
)

// NavState is the per-drone navigation state machine (spec.md §4.3).
type NavState int

const (
	NavCreated NavState = iota
	NavFlyingToAssembly
	NavCirclingAssembly
	NavFlyingToReassembly
	NavAtReassembly
	NavFlyingToTarget
	NavAtTarget
)

func (s NavState) String() string {
	switch s {
	case NavCreated:
		return "Created"
	case NavFlyingToAssembly:
		return "FlyingToAssembly"
	case NavCirclingAssembly:
		return "CirclingAssembly"
	case NavFlyingToReassembly:
		return "FlyingToReassembly"
	case NavAtReassembly:
		return "AtReassembly"
	case NavFlyingToTarget:
		return "FlyingToTarget"
	case NavAtTarget:
		return "AtTarget"
	default:
		return "Unknown"
	}
}

// Point is an integer grid coordinate, closed on [0,100] per I5.
type Point struct {
	X, Y int
}

// Equal reports whether two points coincide.
func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// DroneRecord is the World State tuple for a single drone (spec.md §3).
// Callers should treat values returned by WorldState as snapshots; the
// authoritative, mutation-safe copy lives behind WorldState's own guard.
type DroneRecord struct {
	ID        DroneID
	SwarmID   SwarmID
	Role      Role
	Position  Point
	Target    Point
	HasTarget bool

	Fuel     int
	Distance int

	Liveness Liveness
	NavState NavState
	Ready    bool
	Detonated bool

	Link          LinkStatus
	LinkDownSince time.Time
}

// SwarmRecord is the fixed geometry plus initial objective for a swarm.
// Objective is not updated when targets are shuffled at Attack.
type SwarmRecord struct {
	ID         SwarmID
	Assembly   Point
	Reassembly Point
	Truck      Point
	Objective  Point
	Nominal    int // expected member count (drones_per_swarm)
}

// ObjectiveRecord is one of the fixed attack objectives.
type ObjectiveRecord struct {
	ID               int
	Position         Point
	NominalAttackers int
}

// DefenceRecord is one of the fixed adversarial defence installations.
type DefenceRecord struct {
	ID             int
	Position       Point
	HitProbability int // W, 0..100
}
