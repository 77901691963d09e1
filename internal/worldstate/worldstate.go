// Package worldstate holds the process-wide per-drone record table
// (spec.md §4.1). Every mutation is atomic at the level of a single
// record; no caller ever holds more than one record's guard at a time,
// so cross-record iteration never blocks a concurrent single-record
// mutation for long, following the per-entity-mutex pattern the
// teacher repo uses for its CounterUASSystem / UASThreat tables.
package worldstate

import (
	"sort"
	"sync"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/model"
)

type entity struct {
	mu  sync.Mutex
	rec model.DroneRecord
}

// WorldState is the shared mutable structure of §5; it is the only one
// in the system.
type WorldState struct {
	mu     sync.RWMutex
	drones map[model.DroneID]*entity
}

// New returns an empty World State.
func New() *WorldState {
	return &WorldState{drones: make(map[model.DroneID]*entity)}
}

// AddDrone registers a new drone record. Must be called before any
// other mutation targeting that ID; not safe to call concurrently with
// itself for the same ID.
func (w *WorldState) AddDrone(rec model.DroneRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drones[rec.ID] = &entity{rec: rec}
}

// Snapshot returns an atomic copy of a single drone's record.
func (w *WorldState) Snapshot(id model.DroneID) (model.DroneRecord, bool) {
	e := w.lookup(id)
	if e == nil {
		return model.DroneRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

func (w *WorldState) lookup(id model.DroneID) *entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.drones[id]
}

// SetPosition applies the set_position delta.
func (w *WorldState) SetPosition(id model.DroneID, pos model.Point) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.Position = pos
		e.mu.Unlock()
	}
}

// AddDistance applies the add_distance delta (I2: monotone non-decreasing).
func (w *WorldState) AddDistance(id model.DroneID, magnitude int) {
	if magnitude <= 0 {
		return
	}
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.Distance += magnitude
		e.mu.Unlock()
	}
}

// DecrementFuel applies decrement_fuel and reports the resulting fuel
// level (I2: monotone non-increasing; fuel is never driven below zero).
func (w *WorldState) DecrementFuel(id model.DroneID, amount int) (int, bool) {
	e := w.lookup(id)
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount > 0 {
		e.rec.Fuel -= amount
		if e.rec.Fuel < 0 {
			e.rec.Fuel = 0
		}
	}
	return e.rec.Fuel, true
}

// SetReady applies set_ready.
func (w *WorldState) SetReady(id model.DroneID) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.Ready = true
		e.mu.Unlock()
	}
}

// SetSwarm applies set_swarm (I1: exactly one valid swarm id at a time).
func (w *WorldState) SetSwarm(id model.DroneID, swarm model.SwarmID) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.SwarmID = swarm
		e.mu.Unlock()
	}
}

// SetTarget records the objective assigned to a drone by GoAttack targeting.
func (w *WorldState) SetTarget(id model.DroneID, pos model.Point) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.Target = pos
		e.rec.HasTarget = true
		e.mu.Unlock()
	}
}

// SetNavState records the navigation activity's current state, purely
// for observability/testing; it has no bearing on Liveness.
func (w *WorldState) SetNavState(id model.DroneID, s model.NavState) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		e.rec.NavState = s
		e.mu.Unlock()
	}
}

// SetLink applies set_link(up|down, timestamp).
func (w *WorldState) SetLink(id model.DroneID, up bool, since time.Time) {
	if e := w.lookup(id); e != nil {
		e.mu.Lock()
		if up {
			e.rec.Link = model.LinkUp
			e.rec.LinkDownSince = time.Time{}
		} else {
			e.rec.Link = model.LinkDown
			e.rec.LinkDownSince = since
		}
		e.mu.Unlock()
	}
}

// markTerminal performs the atomic compare-and-set every terminal
// transition needs: it only commits if the record is still Alive, so
// whichever caller wins the race is the only one whose event is ever
// emitted (spec.md §4.7 — first to commit a terminal state wins).
func (w *WorldState) markTerminal(id model.DroneID, to model.Liveness) bool {
	e := w.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Liveness != model.LivenessAlive {
		return false
	}
	e.rec.Liveness = to
	return true
}

// MarkDestroyed commits the Destroyed transition; returns whether this
// call is the one that committed it.
func (w *WorldState) MarkDestroyed(id model.DroneID) bool {
	return w.markTerminal(id, model.LivenessDestroyed)
}

// MarkFuelEmpty commits the FuelEmpty transition.
func (w *WorldState) MarkFuelEmpty(id model.DroneID) bool {
	return w.markTerminal(id, model.LivenessFuelEmpty)
}

// MarkLinkLost commits the LinkLost transition.
func (w *WorldState) MarkLinkLost(id model.DroneID) bool {
	return w.markTerminal(id, model.LivenessLinkLost)
}

// MarkDetonated commits the Detonated transition and the I3 detonated
// flag in the same guarded section.
func (w *WorldState) MarkDetonated(id model.DroneID) bool {
	e := w.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Liveness != model.LivenessAlive {
		return false
	}
	e.rec.Liveness = model.LivenessDetonated
	e.rec.Detonated = true
	return true
}

// MarkMissionComplete commits the MissionComplete transition (Camera only).
func (w *WorldState) MarkMissionComplete(id model.DroneID) bool {
	return w.markTerminal(id, model.LivenessMissionComplete)
}

// IterateActive returns a sorted-by-ID snapshot of every currently
// Alive drone. The sort gives the defence sampler a deterministic
// "record order" (the retasking algorithm sorts its own input instead)
// without requiring a
// single global lock: each element is its own atomically-read snapshot.
func (w *WorldState) IterateActive() []model.DroneRecord {
	return w.filter(func(r model.DroneRecord) bool { return r.Liveness == model.LivenessAlive })
}

// MembersSnapshot returns every drone (any liveness) currently assigned
// to swarm, sorted by ID. Used by Camera payload activities to count
// terminal/alive same-swarm Attack peers (I4).
func (w *WorldState) MembersSnapshot(swarm model.SwarmID) []model.DroneRecord {
	return w.filter(func(r model.DroneRecord) bool { return r.SwarmID == swarm })
}

// All returns every registered drone, sorted by ID.
func (w *WorldState) All() []model.DroneRecord {
	return w.filter(func(model.DroneRecord) bool { return true })
}

func (w *WorldState) filter(pred func(model.DroneRecord) bool) []model.DroneRecord {
	w.mu.RLock()
	ids := make([]model.DroneID, 0, len(w.drones))
	byID := make(map[model.DroneID]*entity, len(w.drones))
	for id, e := range w.drones {
		ids = append(ids, id)
		byID[id] = e
	}
	w.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.DroneRecord, 0, len(ids))
	for _, id := range ids {
		e := byID[id]
		e.mu.Lock()
		rec := e.rec
		e.mu.Unlock()
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}
