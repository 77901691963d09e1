package mission

import (
	"math/rand"

	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

// ShuffleObjectives returns a uniformly random permutation of objectives
// using Fisher-Yates, per spec.md §4.5 ("the shuffle of a 3-element
// array using Fisher-Yates").
func ShuffleObjectives(objectives []model.ObjectiveRecord, rng *rand.Rand) []model.ObjectiveRecord {
	shuffled := make([]model.ObjectiveRecord, len(objectives))
	copy(shuffled, objectives)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// AssignTargets issues SetTarget to every member of each swarm using
// the shuffled objective permutation — swarms[i] is redirected to
// shuffled[i] — then broadcasts GoAttack. Target assignment happens
// before GoAttack so the navigation activity never observes GoAttack
// with HasTarget still false under in-order command delivery.
func AssignTargets(swarms []model.SwarmRecord, shuffled []model.ObjectiveRecord, members []model.DroneRecord, cmds *transport.CommandBus) {
	objectiveOf := make(map[model.SwarmID]model.Point, len(swarms))
	for i, s := range swarms {
		if i >= len(shuffled) {
			break
		}
		objectiveOf[s.ID] = shuffled[i].Position
	}

	for _, m := range members {
		target, ok := objectiveOf[m.SwarmID]
		if !ok {
			continue
		}
		cmds.Send(m.ID, transport.Command{Kind: transport.CommandSetTarget, Data: target.X, Data2: target.Y})
	}
	for _, m := range members {
		cmds.Send(m.ID, transport.Command{Kind: transport.CommandGoAttack})
	}
}
