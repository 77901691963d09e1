// Package drone implements the per-drone Agent: the concurrent bundle
// of navigation, fuel, communications and payload activities described
// in spec.md §4.3, all driving one shared World State record.
package drone

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/geometry"
	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
	"github.com/nimbus-ops/swarm-mission/internal/worldstate"
)

// Config holds the per-drone tunables derived from the mission config.
type Config struct {
	Speed            int
	InitialFuel      int
	TickPeriod       time.Duration
	LinkLossProb     int // Q, 0..100
	ReconnectTimeout time.Duration
	Rand             *rand.Rand // must not be shared across goroutines; one per Agent
}

// Agent runs one drone's four concurrent activities.
type Agent struct {
	id         model.DroneID
	role       model.Role
	assembly   model.Point
	reassembly model.Point

	ws     *worldstate.WorldState
	events *transport.EventBus
	cmds   <-chan transport.Command
	cfg    Config
	log    logger.Logger

	takeoff  chan struct{}
	proceed  chan struct{}
	goAttack chan struct{}

	shutdown     chan struct{}
	shutdownOnce sync.Once

	atTarget     chan struct{}
	atTargetOnce sync.Once
}

// New constructs an Agent and registers its initial record in World
// State at the truck (launch) position, per the supplemented
// original_source behaviour (SPEC_FULL.md).
func New(id model.DroneID, swarm model.SwarmID, role model.Role, truck, assembly, reassembly model.Point,
	ws *worldstate.WorldState, events *transport.EventBus, cmds <-chan transport.Command, cfg Config, log logger.Logger) *Agent {

	ws.AddDrone(model.DroneRecord{
		ID:       id,
		SwarmID:  swarm,
		Role:     role,
		Position: truck,
		Fuel:     cfg.InitialFuel,
		Liveness: model.LivenessAlive,
		NavState: model.NavCreated,
		Link:     model.LinkUp,
	})

	return &Agent{
		id:         id,
		role:       role,
		assembly:   assembly,
		reassembly: reassembly,
		ws:         ws,
		events:     events,
		cmds:       cmds,
		cfg:        cfg,
		log:        log,
		takeoff:    make(chan struct{}, 1),
		proceed:    make(chan struct{}, 1),
		goAttack:   make(chan struct{}, 1),
		shutdown:   make(chan struct{}),
		atTarget:   make(chan struct{}),
	}
}

// ID returns the drone's identifier.
func (a *Agent) ID() model.DroneID { return a.id }

// Run launches the four concurrent activities and blocks until every
// one of them exits (terminal state reached, or Shutdown received).
func (a *Agent) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); a.runComms(ctx) }()
	go func() { defer wg.Done(); a.runNavigation(ctx) }()
	go func() { defer wg.Done(); a.runFuel(ctx) }()
	go func() { defer wg.Done(); a.runPayload(ctx) }()
	wg.Wait()
}

func (a *Agent) isTerminal() bool {
	rec, ok := a.ws.Snapshot(a.id)
	return !ok || rec.Liveness.Terminal()
}

func (a *Agent) signalShutdown() {
	a.shutdownOnce.Do(func() { close(a.shutdown) })
}

func (a *Agent) signalAtTarget() {
	a.atTargetOnce.Do(func() { close(a.atTarget) })
}

func nonBlockingSend(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// publish logs an overflow locally for this drone's context; the
// Command Centre is what actually aborts the mission, via the same
// fault delivered on events.Faults().
func (a *Agent) publish(kind transport.EventKind, swarm model.SwarmID, data int, msg string) {
	if err := a.events.Publish(transport.Event{Kind: kind, DroneID: a.id, SwarmID: swarm, Data: data, Message: msg}); err != nil {
		a.log.Errorf("drone %d: event bus overflow publishing %s: %v", a.id, kind, err)
	}
}

// moveToward is a thin adapter over geometry.Step kept so Agent methods
// read naturally; it also folds in the per-tick distance bookkeeping.
func (a *Agent) moveToward(pos model.Point, target model.Point) model.Point {
	next, moved := geometry.Step(pos, target, a.cfg.Speed)
	a.ws.SetPosition(a.id, next)
	if moved > 0 {
		a.ws.AddDistance(a.id, moved)
	}
	return next
}
