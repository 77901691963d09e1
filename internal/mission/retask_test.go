package mission

import (
	"testing"

	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

func threeSwarms(nominal int) []model.SwarmRecord {
	return []model.SwarmRecord{
		{ID: 0, Nominal: nominal},
		{ID: 1, Nominal: nominal},
		{ID: 2, Nominal: nominal},
	}
}

func membersOf(counts []int) []model.DroneRecord {
	var members []model.DroneRecord
	id := 1
	for swarm, n := range counts {
		for i := 0; i < n; i++ {
			role := model.RoleAttack
			if i == n-1 {
				role = model.RoleCamera
			}
			members = append(members, model.DroneRecord{
				ID: model.DroneID(id), SwarmID: model.SwarmID(swarm), Role: role,
			})
			id++
		}
	}
	return members
}

func countsBySwarm(members []model.DroneRecord, reassigned map[model.DroneID]model.SwarmID) map[model.SwarmID]int {
	counts := make(map[model.SwarmID]int)
	for _, m := range members {
		final := m.SwarmID
		if s, ok := reassigned[m.ID]; ok {
			final = s
		}
		counts[final]++
	}
	return counts
}

func TestRetaskBalancesDeficientSwarms(t *testing.T) {
	swarms := threeSwarms(5)
	members := membersOf([]int{6, 5, 4})
	cmds := transport.NewCommandBus()
	for _, m := range members {
		cmds.Register(m.ID)
	}

	reassigned := Retask(members, swarms, cmds)
	counts := countsBySwarm(members, reassigned)

	for _, s := range swarms {
		if counts[s.ID] != 5 {
			t.Errorf("swarm %d: expected 5 members after retask, got %d", s.ID, counts[s.ID])
		}
	}
}

func TestRetaskNeverReassignsADroneTwice(t *testing.T) {
	swarms := threeSwarms(5)
	members := membersOf([]int{8, 3, 4})
	cmds := transport.NewCommandBus()
	chans := make(map[model.DroneID]<-chan transport.Command, len(members))
	for _, m := range members {
		chans[m.ID] = cmds.Register(m.ID)
	}

	reassigned := Retask(members, swarms, cmds)

	seen := make(map[model.DroneID]bool)
	for id := range reassigned {
		if seen[id] {
			t.Fatalf("drone %d reassigned more than once in a single round", id)
		}
		seen[id] = true
	}

	for id, ch := range chans {
		setSwarm := 0
		for len(ch) > 0 {
			if cmd := <-ch; cmd.Kind == transport.CommandSetSwarm {
				setSwarm++
			}
		}
		if setSwarm > 1 {
			t.Fatalf("drone %d received %d SetSwarm commands in a single round", id, setSwarm)
		}
	}
}

func TestRetaskConservesTotalMembership(t *testing.T) {
	swarms := threeSwarms(5)
	members := membersOf([]int{7, 4, 4})
	cmds := transport.NewCommandBus()
	for _, m := range members {
		cmds.Register(m.ID)
	}

	reassigned := Retask(members, swarms, cmds)
	counts := countsBySwarm(members, reassigned)

	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(members) {
		t.Fatalf("expected total membership conserved at %d, got %d", len(members), total)
	}

	finalSwarm := make(map[model.DroneID]model.SwarmID)
	for _, m := range members {
		finalSwarm[m.ID] = m.SwarmID
	}
	for id, s := range reassigned {
		finalSwarm[id] = s
	}
	if len(finalSwarm) != len(members) {
		t.Fatalf("expected every drone to appear in exactly one swarm, got %d distinct entries for %d members",
			len(finalSwarm), len(members))
	}
}

func TestRetaskPrefersNonCameraDonor(t *testing.T) {
	swarms := threeSwarms(5)
	members := membersOf([]int{6, 5, 4}) // only swarm 0 is strictly surplus
	cmds := transport.NewCommandBus()
	for _, m := range members {
		cmds.Register(m.ID)
	}
	byID := make(map[model.DroneID]model.DroneRecord, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	reassigned := Retask(members, swarms, cmds)
	if len(reassigned) != 1 {
		t.Fatalf("expected exactly one reassignment, got %d", len(reassigned))
	}
	for id := range reassigned {
		if byID[id].Role == model.RoleCamera {
			t.Errorf("drone %d (Camera) was chosen as donor while non-Camera donors existed in swarm 0", id)
		}
		if byID[id].SwarmID != 0 {
			t.Errorf("expected the only reassigned drone to originate from the only surplus swarm (0), got %d", byID[id].SwarmID)
		}
	}
}

func TestRetaskMakesNoSwapsWhenAlreadyBalanced(t *testing.T) {
	swarms := threeSwarms(5)
	members := membersOf([]int{5, 5, 5})
	cmds := transport.NewCommandBus()
	for _, m := range members {
		cmds.Register(m.ID)
	}

	reassigned := Retask(members, swarms, cmds)
	if len(reassigned) != 0 {
		t.Fatalf("expected zero reassignments when every swarm is already at nominal, got %d", len(reassigned))
	}
}
