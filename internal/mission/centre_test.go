package mission

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

func testSwarmsAndObjectives() ([]model.SwarmRecord, []model.ObjectiveRecord) {
	swarms := []model.SwarmRecord{
		{ID: 0, Nominal: 5},
		{ID: 1, Nominal: 5},
		{ID: 2, Nominal: 5},
	}
	objectives := []model.ObjectiveRecord{
		{ID: 0, Position: model.Point{X: 25, Y: 100}, NominalAttackers: 4},
		{ID: 1, Position: model.Point{X: 50, Y: 100}, NominalAttackers: 4},
		{ID: 2, Position: model.Point{X: 75, Y: 100}, NominalAttackers: 4},
	}
	return swarms, objectives
}

func testRoster() []Roster {
	var roster []Roster
	id := 1
	for s := 0; s < 3; s++ {
		for i := 0; i < 5; i++ {
			role := model.RoleAttack
			if i == 4 {
				role = model.RoleCamera
			}
			roster = append(roster, Roster{ID: model.DroneID(id), Role: role, SwarmID: model.SwarmID(s)})
			id++
		}
	}
	return roster
}

// TestTakeoffAdvancesOnlyWhenEverySwarmIsReady exercises the Takeoff/Proceed
// boundary without driving the whole mission to completion.
func TestTakeoffAdvancesOnlyWhenEverySwarmIsReady(t *testing.T) {
	swarms, objectives := testSwarmsAndObjectives()
	roster := testRoster()
	events := transport.NewEventBus(256)
	cmds := transport.NewCommandBus()
	for _, r := range roster {
		cmds.Register(r.ID)
	}
	centre := New(roster, swarms, objectives, events, cmds, rand.New(rand.NewSource(1)), logger.New(logger.ErrorLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		res, _ := centre.Run(ctx)
		done <- res
	}()

	// Deliver Ready for every drone but one; phase must remain Takeoff.
	for _, r := range roster[:len(roster)-1] {
		events.Publish(transport.Event{Kind: transport.EventReady, DroneID: r.ID, SwarmID: r.SwarmID})
	}
	time.Sleep(20 * time.Millisecond)
	if centre.phase != PhaseTakeoff {
		t.Fatalf("expected phase to remain Takeoff with one drone not yet Ready, got %s", centre.phase)
	}

	last := roster[len(roster)-1]
	events.Publish(transport.Event{Kind: transport.EventReady, DroneID: last.ID, SwarmID: last.SwarmID})
	time.Sleep(20 * time.Millisecond)
	if centre.phase != PhaseProceed {
		t.Fatalf("expected phase Proceed once every drone is Ready, got %s", centre.phase)
	}
	cancel()
	<-done
}

func TestFullMissionReachesDoneWithNoAttrition(t *testing.T) {
	swarms, objectives := testSwarmsAndObjectives()
	roster := testRoster()
	events := transport.NewEventBus(256)
	cmds := transport.NewCommandBus()
	for _, r := range roster {
		cmds.Register(r.ID)
	}
	centre := New(roster, swarms, objectives, events, cmds, rand.New(rand.NewSource(7)), logger.New(logger.ErrorLevel))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		res, _ := centre.Run(ctx)
		done <- res
	}()

	for _, r := range roster {
		events.Publish(transport.Event{Kind: transport.EventReady, DroneID: r.ID, SwarmID: r.SwarmID})
	}
	time.Sleep(10 * time.Millisecond)
	for _, r := range roster {
		events.Publish(transport.Event{Kind: transport.EventAtReassembly, DroneID: r.ID, SwarmID: r.SwarmID})
	}
	time.Sleep(10 * time.Millisecond)

	for s := 0; s < 3; s++ {
		for i := 0; i < 4; i++ {
			id := model.DroneID(s*5 + i + 1)
			events.Publish(transport.Event{Kind: transport.EventDetonated, DroneID: id, SwarmID: model.SwarmID(s)})
		}
		camID := model.DroneID(s*5 + 5)
		events.Publish(transport.Event{Kind: transport.EventCamReport, DroneID: camID, SwarmID: model.SwarmID(s), Data: transport.CamResultDestroyed})
	}

	select {
	case res := <-done:
		if res.FinalPhase != PhaseDone {
			t.Fatalf("expected FinalPhase Done, got %s", res.FinalPhase)
		}
		if res.Detonated != 12 {
			t.Fatalf("expected 12 detonations, got %d", res.Detonated)
		}
		for _, s := range res.Swarms {
			if s.CamResult != "Destroyed" {
				t.Errorf("swarm %d: expected CamResult Destroyed, got %q", s.SwarmID, s.CamResult)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("mission did not reach Done in time")
	}
}
