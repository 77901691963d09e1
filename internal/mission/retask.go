// Package mission implements the Command Centre: the phase state
// machine of spec.md §4.5, the retasking algorithm of §4.6, and
// randomised target (re)assignment.
package mission

import (
	"sort"

	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
)

// Retask runs one round of the retasking algorithm (§4.6) over members,
// the snapshot of Alive drones that have passed the re-assembly
// threshold, and issues SetSwarm commands for every drone it moves. It
// returns the new swarm of every drone it reassigned (I7: a drone
// reassigned once cannot be reassigned again in the same call — the
// map's key set is exactly the "locked" set).
func Retask(members []model.DroneRecord, swarms []model.SwarmRecord, cmds *transport.CommandBus) map[model.DroneID]model.SwarmID {
	count := make(map[model.SwarmID]int, len(swarms))
	bySwarm := make(map[model.SwarmID][]model.DroneRecord, len(swarms))
	for _, s := range swarms {
		count[s.ID] = 0
	}
	for _, m := range members {
		count[m.SwarmID]++
		bySwarm[m.SwarmID] = append(bySwarm[m.SwarmID], m)
	}
	for id := range bySwarm {
		sortByID(bySwarm[id])
	}

	index := make(map[model.SwarmID]int, len(swarms))
	for i, s := range swarms {
		index[s.ID] = i
	}

	reassigned := make(map[model.DroneID]model.SwarmID)
	locked := make(map[model.DroneID]bool)

	for _, need := range swarms {
		nominal := need.Nominal
		for count[need.ID] < nominal {
			donorID, donorSwarm, ok := findDonor(need.ID, swarms, index, count, bySwarm, locked, nominal)
			if !ok {
				break // no progress possible for this swarm this round
			}
			cmds.Send(donorID, transport.Command{Kind: transport.CommandSetSwarm, Data: int(need.ID)})
			locked[donorID] = true
			reassigned[donorID] = need.ID
			count[donorSwarm]--
			count[need.ID]++
			moveRecord(bySwarm, donorID, donorSwarm, need.ID)
		}
	}
	return reassigned
}

// findDonor implements §4.6 step 3: alternating offsets, strictly
// left-then-right at each offset, no wraparound past the swarm set's
// bounds, a strictly-surplus donor swarm, preferring a non-Camera donor
// before falling back to a Camera at the same candidate swarm.
func findDonor(need model.SwarmID, swarms []model.SwarmRecord, index map[model.SwarmID]int,
	count map[model.SwarmID]int, bySwarm map[model.SwarmID][]model.DroneRecord,
	locked map[model.DroneID]bool, nominal int) (model.DroneID, model.SwarmID, bool) {

	n := len(swarms)
	needIdx := index[need]

	for off := 1; off < n; off++ {
		for _, dir := range [2]int{-1, 1} {
			donorIdx := needIdx + dir*off
			if donorIdx < 0 || donorIdx >= n {
				continue
			}
			give := swarms[donorIdx].ID
			if count[give] <= nominal {
				continue // donors must be strictly surplus
			}
			if id, ok := selectDonorDrone(bySwarm[give], locked, false); ok {
				return id, give, true
			}
			if id, ok := selectDonorDrone(bySwarm[give], locked, true); ok {
				return id, give, true
			}
		}
	}
	return 0, 0, false
}

// selectDonorDrone returns the first unlocked drone in record order,
// optionally allowing a Camera as a fallback donor.
func selectDonorDrone(recs []model.DroneRecord, locked map[model.DroneID]bool, allowCamera bool) (model.DroneID, bool) {
	for _, r := range recs {
		if locked[r.ID] {
			continue
		}
		if !allowCamera && r.Role == model.RoleCamera {
			continue
		}
		return r.ID, true
	}
	return 0, false
}

func moveRecord(bySwarm map[model.SwarmID][]model.DroneRecord, id model.DroneID, from, to model.SwarmID) {
	recs := bySwarm[from]
	for i, r := range recs {
		if r.ID != id {
			continue
		}
		rec := r
		bySwarm[from] = append(recs[:i:i], recs[i+1:]...)
		rec.SwarmID = to
		bySwarm[to] = insertSorted(bySwarm[to], rec)
		return
	}
}

func insertSorted(recs []model.DroneRecord, rec model.DroneRecord) []model.DroneRecord {
	i := sort.Search(len(recs), func(i int) bool { return recs[i].ID >= rec.ID })
	recs = append(recs, model.DroneRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	return recs
}

func sortByID(recs []model.DroneRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}
