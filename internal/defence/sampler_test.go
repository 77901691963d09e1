package defence

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
	"github.com/nimbus-ops/swarm-mission/internal/worldstate"
)

func TestScanDestroysDronesInBandAt100Percent(t *testing.T) {
	ws := worldstate.New()
	events := transport.NewEventBus(8)
	ws.AddDrone(model.DroneRecord{ID: 1, Position: model.Point{X: 10, Y: 50}, Liveness: model.LivenessAlive})
	ws.AddDrone(model.DroneRecord{ID: 2, Position: model.Point{X: 90, Y: 50}, Liveness: model.LivenessAlive}) // out of this sampler's band

	s := New(0, 10, 100, time.Millisecond, ws, events, rand.New(rand.NewSource(1)), logger.New(logger.ErrorLevel))
	s.scan()

	rec1, _ := ws.Snapshot(1)
	if rec1.Liveness != model.LivenessDestroyed {
		t.Fatalf("expected drone 1 destroyed, got %s", rec1.Liveness)
	}
	rec2, _ := ws.Snapshot(2)
	if rec2.Liveness != model.LivenessAlive {
		t.Fatalf("expected drone 2 untouched (outside band), got %s", rec2.Liveness)
	}

	select {
	case ev := <-events.C():
		if ev.Kind != transport.EventDestroyed || ev.DroneID != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a published EventDestroyed")
	}
}

func TestScanNeverFiresAtZeroPercent(t *testing.T) {
	ws := worldstate.New()
	events := transport.NewEventBus(8)
	ws.AddDrone(model.DroneRecord{ID: 1, Position: model.Point{X: 10, Y: 50}, Liveness: model.LivenessAlive})

	s := New(0, 10, 0, time.Millisecond, ws, events, rand.New(rand.NewSource(1)), logger.New(logger.ErrorLevel))
	for i := 0; i < 20; i++ {
		s.scan()
	}

	rec, _ := ws.Snapshot(1)
	if rec.Liveness != model.LivenessAlive {
		t.Fatalf("expected drone to survive a 0%% hit probability, got %s", rec.Liveness)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ws := worldstate.New()
	events := transport.NewEventBus(8)
	s := New(0, 10, 0, time.Millisecond, ws, events, rand.New(rand.NewSource(1)), logger.New(logger.ErrorLevel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
