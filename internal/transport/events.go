// Package transport implements the single-producer-multi-writer Event
// Bus and the per-drone Command Channels of spec.md §4.2.
package transport

import (
	"errors"

	"github.com/nimbus-ops/swarm-mission/internal/model"
)

// EventKind enumerates the drone-originated event types.
type EventKind int

const (
	EventReady EventKind = iota
	EventAtReassembly
	EventAtTarget
	EventDestroyed
	EventDetonated
	EventFuelEmpty
	EventCamReport
	EventLinkLost
	EventLinkRestored
	EventDroneLost
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "Ready"
	case EventAtReassembly:
		return "AtReassembly"
	case EventAtTarget:
		return "AtTarget"
	case EventDestroyed:
		return "Destroyed"
	case EventDetonated:
		return "Detonated"
	case EventFuelEmpty:
		return "FuelEmpty"
	case EventCamReport:
		return "CamReport"
	case EventLinkLost:
		return "LinkLost"
	case EventLinkRestored:
		return "LinkRestored"
	case EventDroneLost:
		return "DroneLost"
	default:
		return "Unknown"
	}
}

// Event carries one drone-originated occurrence to the Command Centre.
// Message is an optional human-readable annotation, capped at 64 runes
// per the §6 wire format (callers are trusted not to exceed it; Publish
// truncates defensively).
type Event struct {
	Kind     EventKind
	DroneID  model.DroneID
	SwarmID  model.SwarmID
	Data     int
	Message  string
	Sequence int // reserved for log correlation; no producer sets it, so it is always 0
}

// CamReport result codes, carried in Event.Data for EventCamReport.
const (
	CamResultDestroyed = iota
	CamResultPartial
)

// ErrEventBusFull is returned when the bounded bus is saturated. Per
// spec.md §4.2 this is a fatal configuration error, never a silent drop.
var ErrEventBusFull = errors.New("transport: event bus overflow")

const maxMessageLen = 64

// EventBus is a bounded, FIFO-per-producer channel of Events.
type EventBus struct {
	ch     chan Event
	faults chan error
}

// NewEventBus creates a bus with the given buffer capacity.
func NewEventBus(capacity int) *EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventBus{ch: make(chan Event, capacity), faults: make(chan error, 1)}
}

// Publish enqueues an event. It never blocks: a full buffer is reported
// as ErrEventBusFull to the caller and also pushed onto Faults, so the
// Command Centre can abort the mission rather than let the fault pass
// as a silent drop.
func (b *EventBus) Publish(ev Event) error {
	if r := []rune(ev.Message); len(r) > maxMessageLen {
		ev.Message = string(r[:maxMessageLen])
	}
	select {
	case b.ch <- ev:
		return nil
	default:
		select {
		case b.faults <- ErrEventBusFull:
		default:
		}
		return ErrEventBusFull
	}
}

// C returns the receive-only channel the Command Centre reads from.
func (b *EventBus) C() <-chan Event {
	return b.ch
}

// Faults delivers the first event-bus overflow (if any) to whoever
// reads it; the Command Centre selects on this alongside C() so an
// overflow aborts the mission instead of being swallowed by a producer
// that only logs and continues.
func (b *EventBus) Faults() <-chan error {
	return b.faults
}
