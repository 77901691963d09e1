package transport

import (
	"sort"
	"sync"

	"github.com/nimbus-ops/swarm-mission/internal/model"
)

// CommandKind enumerates the commands the Command Centre issues.
type CommandKind int

const (
	CommandTakeoff CommandKind = iota
	CommandProceed
	CommandGoAttack
	CommandSetSwarm
	CommandSetTarget
	CommandShutdown
)

func (k CommandKind) String() string {
	switch k {
	case CommandTakeoff:
		return "Takeoff"
	case CommandProceed:
		return "Proceed"
	case CommandGoAttack:
		return "GoAttack"
	case CommandSetSwarm:
		return "SetSwarm"
	case CommandSetTarget:
		return "SetTarget"
	case CommandShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Command is delivered over a single drone's command channel, in issue
// order. Data/Data2 carry SetSwarm's new swarm id, or SetTarget's x/y.
type Command struct {
	Kind  CommandKind
	Data  int
	Data2 int
}

const perDroneBuffer = 8

// CommandBus owns one addressable channel per drone. Delivery is
// reliable and ordered per channel for a live reader; a reader that has
// already exited (terminal drone, or one that never subscribed) cannot
// block the sender forever, so Send/Broadcast never wait on a full or
// abandoned channel — they drop and report the fact, mirroring the
// spec's own "dropped by design" allowance for link-down delivery.
type CommandBus struct {
	mu    sync.RWMutex
	chans map[model.DroneID]chan Command
}

// NewCommandBus creates an empty command bus.
func NewCommandBus() *CommandBus {
	return &CommandBus{chans: make(map[model.DroneID]chan Command)}
}

// Register creates and returns the read side of a drone's channel.
func (c *CommandBus) Register(id model.DroneID) <-chan Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Command, perDroneBuffer)
	c.chans[id] = ch
	return ch
}

// Send delivers one command to a single drone; reports whether it was
// accepted into that drone's channel.
func (c *CommandBus) Send(id model.DroneID, cmd Command) bool {
	c.mu.RLock()
	ch, ok := c.chans[id]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case ch <- cmd:
		return true
	default:
		return false
	}
}

// Broadcast delivers cmd to every registered drone, in ascending ID
// order for deterministic test traces, and reports how many accepted it.
func (c *CommandBus) Broadcast(cmd Command) int {
	delivered := 0
	for _, id := range c.ids() {
		if c.Send(id, cmd) {
			delivered++
		}
	}
	return delivered
}

func (c *CommandBus) ids() []model.DroneID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]model.DroneID, 0, len(c.chans))
	for id := range c.chans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
