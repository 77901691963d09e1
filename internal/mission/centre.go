package mission

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

// proceedTimeout is the wall-clock guard of spec.md §4.5/§5: it fires
// the Proceed->Retask transition even if the arrived-count predicate
// never trips, preventing deadlock under attrition.
const proceedTimeout = 10 * time.Second

// Roster is the static per-drone information the Centre needs at
// construction: identity, role and initial swarm membership. It never
// queries World State for swarm assignment afterwards (see §5 "avoid
// read-skew") — this bookkeeping, plus whatever the Centre itself
// issues via SetSwarm, is the sole source of truth for membership.
type Roster struct {
	ID      model.DroneID
	Role    model.Role
	SwarmID model.SwarmID
}

// SwarmOutcome is one swarm's tally at mission end, used by the report package.
type SwarmOutcome struct {
	SwarmID     model.SwarmID
	Detonations int
	CamResult   string // "", "Destroyed", "Partial" — empty if the Camera never reported
}

// Result is the Centre's final tally, handed to the report package for rendering.
type Result struct {
	FinalPhase   Phase
	TotalDrones  int
	Destroyed    int
	FuelEmpty    int
	LinkLost     int
	Detonated    int
	Swarms       []SwarmOutcome
	RetaskLocked int
}

// Centre is the mission orchestrator: it owns the phase state machine,
// consumes the Event Bus, and issues broadcast/targeted commands.
type Centre struct {
	events     *transport.EventBus
	cmds       *transport.CommandBus
	swarms     []model.SwarmRecord
	objectives []model.ObjectiveRecord
	targetRng  *rand.Rand
	log        logger.Logger

	phase Phase

	role          map[model.DroneID]model.Role
	assignedSwarm map[model.DroneID]model.SwarmID
	terminal      map[model.DroneID]bool
	arrived       map[model.DroneID]bool
	cameraIDs     []model.DroneID

	readyCount map[model.SwarmID]int

	detonated    int
	destroyed    int
	fuelEmpty    int
	linkLost     int
	swarmDeton   map[model.SwarmID]int
	swarmCamRes  map[model.SwarmID]string
	retaskLocked int
}

// New constructs a Centre from the static roster (drones already
// registered in World State by the caller) and the fixed swarm and
// objective geometry.
func New(roster []Roster, swarms []model.SwarmRecord, objectives []model.ObjectiveRecord,
	events *transport.EventBus, cmds *transport.CommandBus, targetRng *rand.Rand, log logger.Logger) *Centre {

	c := &Centre{
		events:        events,
		cmds:          cmds,
		swarms:        swarms,
		objectives:    objectives,
		targetRng:     targetRng,
		log:           log.WithPrefix("centre"),
		phase:         PhaseSpawn,
		role:          make(map[model.DroneID]model.Role, len(roster)),
		assignedSwarm: make(map[model.DroneID]model.SwarmID, len(roster)),
		terminal:      make(map[model.DroneID]bool),
		arrived:       make(map[model.DroneID]bool),
		readyCount:    make(map[model.SwarmID]int, len(swarms)),
		swarmDeton:    make(map[model.SwarmID]int, len(swarms)),
		swarmCamRes:   make(map[model.SwarmID]string, len(swarms)),
	}
	for _, r := range roster {
		c.role[r.ID] = r.Role
		c.assignedSwarm[r.ID] = r.SwarmID
		if r.Role == model.RoleCamera {
			c.cameraIDs = append(c.cameraIDs, r.ID)
		}
	}
	return c
}

// Run drives the phase machine to completion (Done) or returns early on
// ctx cancellation or an invariant failure, per spec.md §7 ("the
// Centre's own invariant failures are fatal").
func (c *Centre) Run(ctx context.Context) (Result, error) {
	c.phase = PhaseTakeoff
	c.log.Infof("phase -> %s", c.phase)
	c.cmds.Broadcast(transport.Command{Kind: transport.CommandTakeoff})

	var timeoutCh <-chan time.Time

	for c.phase != PhaseDone {
		select {
		case <-ctx.Done():
			return c.result(), ctx.Err()

		case err := <-c.events.Faults():
			c.log.Errorf("event bus fault, aborting mission: %v", err)
			return c.result(), err

		case ev := <-c.events.C():
			if err := c.applyEvent(ev); err != nil {
				return c.result(), err
			}

		case <-timeoutCh:
			if c.phase == PhaseProceed {
				c.log.Warnf("proceed->retask timeout guard fired after %s", proceedTimeout)
				c.enterRetask()
			}
		}

		switch c.phase {
		case PhaseTakeoff:
			if c.allReady() {
				c.phase = PhaseProceed
				c.log.Infof("phase -> %s", c.phase)
				c.cmds.Broadcast(transport.Command{Kind: transport.CommandProceed})
				timeoutCh = time.After(proceedTimeout)
			}
		case PhaseProceed:
			if c.arrivedThresholdMet() {
				c.enterRetask()
			}
		case PhaseAttack:
			if c.allCamerasTerminal() {
				c.phase = PhaseShutdown
				c.log.Infof("phase -> %s", c.phase)
				c.cmds.Broadcast(transport.Command{Kind: transport.CommandShutdown})
				c.phase = PhaseDone
				c.log.Infof("phase -> %s", c.phase)
			}
		}
	}
	return c.result(), nil
}

func (c *Centre) applyEvent(ev transport.Event) error {
	switch ev.Kind {
	case transport.EventReady:
		c.readyCount[ev.SwarmID]++
		if nominal := c.nominalOf(ev.SwarmID); c.readyCount[ev.SwarmID] > nominal {
			return fmt.Errorf("mission: ready count %d for swarm %d exceeds nominal %d",
				c.readyCount[ev.SwarmID], ev.SwarmID, nominal)
		}
	case transport.EventAtReassembly:
		c.arrived[ev.DroneID] = true
	case transport.EventDestroyed:
		c.terminal[ev.DroneID] = true
		c.destroyed++
	case transport.EventFuelEmpty:
		c.terminal[ev.DroneID] = true
		c.fuelEmpty++
	case transport.EventDroneLost:
		c.terminal[ev.DroneID] = true
		c.linkLost++
	case transport.EventDetonated:
		c.detonated++
		c.swarmDeton[ev.SwarmID]++
	case transport.EventCamReport:
		c.terminal[ev.DroneID] = true
		if ev.Data == transport.CamResultDestroyed {
			c.swarmCamRes[ev.SwarmID] = "Destroyed"
		} else {
			c.swarmCamRes[ev.SwarmID] = "Partial"
		}
	case transport.EventLinkLost, transport.EventLinkRestored:
		// observability only; no counter implication
	}
	return nil
}

func (c *Centre) nominalOf(swarm model.SwarmID) int {
	for _, s := range c.swarms {
		if s.ID == swarm {
			return s.Nominal
		}
	}
	return 0
}

func (c *Centre) allReady() bool {
	for _, s := range c.swarms {
		if c.readyCount[s.ID] < s.Nominal {
			return false
		}
	}
	return true
}

func (c *Centre) arrivedThresholdMet() bool {
	alive := len(c.role) - len(c.terminal)
	need := alive / 2
	if need < 1 {
		need = 1
	}
	return len(c.arrived) >= need
}

func (c *Centre) allCamerasTerminal() bool {
	for _, id := range c.cameraIDs {
		if !c.terminal[id] {
			return false
		}
	}
	return true
}

// enterRetask runs one retasking round against every arrived, still-
// alive drone, folds the reassignments into the Centre's own swarm
// bookkeeping (never World State — see Roster doc), then immediately
// advances to Attack: shuffles objectives and issues targets+GoAttack.
func (c *Centre) enterRetask() {
	c.phase = PhaseRetask
	c.log.Infof("phase -> %s", c.phase)

	members := c.arrivedMembers()
	reassigned := Retask(members, c.swarms, c.cmds)
	c.retaskLocked = len(reassigned)
	for id, swarm := range reassigned {
		c.assignedSwarm[id] = swarm
	}

	c.phase = PhaseAttack
	c.log.Infof("phase -> %s", c.phase)
	shuffled := ShuffleObjectives(c.objectives, c.targetRng)
	AssignTargets(c.swarms, shuffled, c.nonTerminalMembers(), c.cmds)
}

func (c *Centre) arrivedMembers() []model.DroneRecord {
	members := make([]model.DroneRecord, 0, len(c.arrived))
	for id := range c.arrived {
		if c.terminal[id] {
			continue
		}
		members = append(members, model.DroneRecord{ID: id, Role: c.role[id], SwarmID: c.assignedSwarm[id]})
	}
	return members
}

func (c *Centre) nonTerminalMembers() []model.DroneRecord {
	members := make([]model.DroneRecord, 0, len(c.role))
	for id, role := range c.role {
		if c.terminal[id] {
			continue
		}
		members = append(members, model.DroneRecord{ID: id, Role: role, SwarmID: c.assignedSwarm[id]})
	}
	return members
}

func (c *Centre) result() Result {
	outcomes := make([]SwarmOutcome, 0, len(c.swarms))
	for _, s := range c.swarms {
		outcomes = append(outcomes, SwarmOutcome{
			SwarmID:     s.ID,
			Detonations: c.swarmDeton[s.ID],
			CamResult:   c.swarmCamRes[s.ID],
		})
	}
	return Result{
		FinalPhase:   c.phase,
		TotalDrones:  len(c.role),
		Destroyed:    c.destroyed,
		FuelEmpty:    c.fuelEmpty,
		LinkLost:     c.linkLost,
		Detonated:    c.detonated,
		Swarms:       outcomes,
		RetaskLocked: c.retaskLocked,
	}
}
