// Package defence implements the adversarial Defence Sampler of
// spec.md §4.4: a periodic scan for drones sitting in a fixed
// installation's kill band, each hit independently rolled against the
// configured hit probability.
package defence

import (
	"context"
	"math/rand"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/geometry"
	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
	"github.com/nimbus-ops/swarm-mission/internal/worldstate"
)

// Sampler polls World State on a fixed period and destroys drones that
// fall within its band, per an injected RNG so runs are reproducible.
type Sampler struct {
	id        int
	positionX int
	hitProb   int // W, 0..100
	period    time.Duration
	ws        *worldstate.WorldState
	events    *transport.EventBus
	rng       *rand.Rand
	log       logger.Logger
}

// New constructs a Sampler fixed at positionX with the given hit
// probability (0..100) and per-tick scan period.
func New(id int, positionX int, hitProb int, period time.Duration,
	ws *worldstate.WorldState, events *transport.EventBus, rng *rand.Rand, log logger.Logger) *Sampler {
	return &Sampler{
		id:        id,
		positionX: positionX,
		hitProb:   hitProb,
		period:    period,
		ws:        ws,
		events:    events,
		rng:       rng,
		log:       log.WithPrefix("defence"),
	}
}

// Run scans until ctx is cancelled. Each tick it snapshots every Alive
// drone (sorted by ID, for deterministic roll order under a fixed seed)
// and rolls an independent hitProb% chance against every one sitting in
// its band.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

// scan logs an overflow locally for this installation's context; the
// Command Centre is what actually aborts the mission, via the same
// fault delivered on events.Faults().
func (s *Sampler) scan() {
	for _, rec := range s.ws.IterateActive() {
		if !geometry.InDefenceBand(rec.Position, s.positionX) {
			continue
		}
		if s.rng.Intn(100) >= s.hitProb {
			continue
		}
		if s.ws.MarkDestroyed(rec.ID) {
			if err := s.events.Publish(transport.Event{
				Kind:    transport.EventDestroyed,
				DroneID: rec.ID,
				SwarmID: rec.SwarmID,
				Data:    s.id,
				Message: "destroyed by defence installation",
			}); err != nil {
				s.log.Errorf("defence %d: event bus overflow: %v", s.id, err)
			}
		}
	}
}
