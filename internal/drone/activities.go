package drone

import (
	"context"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/geometry"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

// runNavigation drives the per-drone state machine of spec.md §4.3.
func (a *Agent) runNavigation(ctx context.Context) {
	state := model.NavCreated
	a.ws.SetNavState(a.id, state)

	select {
	case <-ctx.Done():
		return
	case <-a.shutdown:
		return
	case <-a.takeoff:
		state = model.NavFlyingToAssembly
		a.ws.SetNavState(a.id, state)
	}

	loiterTick := 0
	for {
		if a.isTerminal() {
			return
		}
		rec, ok := a.ws.Snapshot(a.id)
		if !ok {
			return
		}

		switch state {
		case model.NavFlyingToAssembly:
			next := a.moveToward(rec.Position, a.assembly)
			if geometry.Arrived(next, a.assembly) {
				state = model.NavCirclingAssembly
				a.ws.SetNavState(a.id, state)
				a.ws.SetReady(a.id)
				a.publish(transport.EventReady, rec.SwarmID, 0, "ready at assembly")
			}

		case model.NavCirclingAssembly:
			loiterTick++
			loiterPos := geometry.LoiterStep(a.assembly, loiterTick)
			_, moved := geometry.Step(rec.Position, loiterPos, a.cfg.Speed)
			a.ws.SetPosition(a.id, loiterPos)
			if moved > 0 {
				a.ws.AddDistance(a.id, moved)
			}
			select {
			case <-a.proceed:
				state = model.NavFlyingToReassembly
				a.ws.SetNavState(a.id, state)
			default:
			}

		case model.NavFlyingToReassembly:
			next := a.moveToward(rec.Position, a.reassembly)
			if geometry.Arrived(next, a.reassembly) {
				state = model.NavAtReassembly
				a.ws.SetNavState(a.id, state)
				a.publish(transport.EventAtReassembly, rec.SwarmID, 0, "reached reassembly")
			}

		case model.NavAtReassembly:
			select {
			case <-a.goAttack:
				latest, _ := a.ws.Snapshot(a.id)
				if latest.HasTarget {
					state = model.NavFlyingToTarget
					a.ws.SetNavState(a.id, state)
				} else {
					// GoAttack arrived before SetTarget was applied
					// (should not happen given in-order command
					// delivery, but re-arm defensively rather than
					// drop the signal).
					nonBlockingSend(a.goAttack)
				}
			default:
			}

		case model.NavFlyingToTarget:
			next := a.moveToward(rec.Position, rec.Target)
			if geometry.Arrived(next, rec.Target) {
				state = model.NavAtTarget
				a.ws.SetNavState(a.id, state)
				a.publish(transport.EventAtTarget, rec.SwarmID, 0, "on target")
				a.signalAtTarget()
			}

		case model.NavAtTarget:
			// Terminal transition from here belongs to the payload activity.
		}

		if !a.sleepTick(ctx) {
			return
		}
	}
}

func (a *Agent) sleepTick(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-a.shutdown:
		return false
	case <-time.After(a.cfg.TickPeriod):
		return true
	}
}

// runFuel decrements fuel by the distance accrued since its last
// sample; independent of the navigation machine to preserve I2.
func (a *Agent) runFuel(ctx context.Context) {
	lastDistance := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-time.After(a.cfg.TickPeriod):
		}

		rec, ok := a.ws.Snapshot(a.id)
		if !ok || rec.Liveness.Terminal() {
			return
		}

		delta := rec.Distance - lastDistance
		lastDistance = rec.Distance
		if delta <= 0 {
			continue
		}

		fuel, ok := a.ws.DecrementFuel(a.id, delta)
		if !ok {
			return
		}
		if fuel <= 0 {
			if a.ws.MarkFuelEmpty(a.id) {
				a.publish(transport.EventFuelEmpty, rec.SwarmID, 0, "fuel exhausted")
			}
			return
		}
	}
}

// runComms reads the command channel, honouring commands only while the
// link is Up, and simulates link flapping every one-second interval.
func (a *Agent) runComms(ctx context.Context) {
	flap := time.NewTicker(time.Second)
	defer flap.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-a.cmds:
			if !ok {
				return
			}
			rec, exists := a.ws.Snapshot(a.id)
			if !exists || rec.Liveness.Terminal() {
				return
			}
			if rec.Link == model.LinkDown {
				continue // commands issued during an outage are dropped by design
			}
			a.applyCommand(cmd)
			if cmd.Kind == transport.CommandShutdown {
				return
			}
		case <-flap.C:
			rec, exists := a.ws.Snapshot(a.id)
			if !exists || rec.Liveness.Terminal() {
				return
			}
			if a.tickLinkFlap(rec) {
				return
			}
		}
	}
}

func (a *Agent) tickLinkFlap(rec model.DroneRecord) (terminal bool) {
	if rec.Link == model.LinkUp {
		if a.cfg.Rand.Intn(100) < a.cfg.LinkLossProb {
			a.ws.SetLink(a.id, false, time.Now())
		}
		return false
	}

	if time.Since(rec.LinkDownSince) > a.cfg.ReconnectTimeout {
		if a.ws.MarkLinkLost(a.id) {
			a.publish(transport.EventDroneLost, rec.SwarmID, 0, "link outage exceeded timeout")
		}
		return true
	}

	if a.cfg.Rand.Intn(2) == 0 {
		a.ws.SetLink(a.id, true, time.Time{})
		a.publish(transport.EventLinkRestored, rec.SwarmID, 0, "link restored")
	}
	return false
}

func (a *Agent) applyCommand(cmd transport.Command) {
	switch cmd.Kind {
	case transport.CommandTakeoff:
		nonBlockingSend(a.takeoff)
	case transport.CommandProceed:
		nonBlockingSend(a.proceed)
	case transport.CommandGoAttack:
		nonBlockingSend(a.goAttack)
	case transport.CommandSetSwarm:
		a.ws.SetSwarm(a.id, model.SwarmID(cmd.Data))
	case transport.CommandSetTarget:
		a.ws.SetTarget(a.id, model.Point{X: cmd.Data, Y: cmd.Data2})
	case transport.CommandShutdown:
		a.signalShutdown()
	}
}

// runPayload is role-specific: Attack detonates exactly once at
// AtTarget; Camera performs battle-damage assessment of its peers.
func (a *Agent) runPayload(ctx context.Context) {
	for waiting := true; waiting; {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-a.atTarget:
			waiting = false
		case <-time.After(a.cfg.TickPeriod):
			if a.isTerminal() {
				return // terminated by another activity before reaching the target
			}
		}
	}

	if a.role == model.RoleAttack {
		rec, _ := a.ws.Snapshot(a.id)
		if a.ws.MarkDetonated(a.id) {
			a.publish(transport.EventDetonated, rec.SwarmID, 0, "detonation")
		}
		return
	}

	a.runCameraBDA(ctx)
}

func (a *Agent) runCameraBDA(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-time.After(a.cfg.TickPeriod):
		}

		rec, ok := a.ws.Snapshot(a.id)
		if !ok || rec.Liveness.Terminal() {
			return // drone was terminated by another activity before BDA could fire
		}

		members := a.ws.MembersSnapshot(rec.SwarmID)
		detonated, alive := 0, 0
		for _, m := range members {
			if m.Role != model.RoleAttack {
				continue
			}
			switch m.Liveness {
			case model.LivenessDetonated:
				detonated++
			case model.LivenessAlive:
				alive++
			}
		}

		switch {
		case detonated >= 2:
			if a.ws.MarkMissionComplete(a.id) {
				a.publish(transport.EventCamReport, rec.SwarmID, transport.CamResultDestroyed, "BDA: objective destroyed")
			}
			return
		case alive == 0:
			if a.ws.MarkMissionComplete(a.id) {
				a.publish(transport.EventCamReport, rec.SwarmID, transport.CamResultPartial, "BDA: partial damage")
			}
			return
		}
	}
}
