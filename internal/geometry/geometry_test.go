package geometry

import (
	"testing"

	"github.com/nimbus-ops/swarm-mission/internal/model"
)

func TestStepClosesDistanceAndReportsMagnitude(t *testing.T) {
	pos := model.Point{X: 0, Y: 0}
	target := model.Point{X: 5, Y: 1}

	next, moved := Step(pos, target, 2)
	if next.X != 2 || next.Y != 1 {
		t.Fatalf("unexpected position after step: %+v", next)
	}
	if moved != 3 { // |2-0| + |1-0|
		t.Fatalf("unexpected magnitude moved: %d", moved)
	}
}

func TestStepNeverOvershoots(t *testing.T) {
	pos := model.Point{X: 10, Y: 10}
	target := model.Point{X: 10, Y: 10}
	next, moved := Step(pos, target, 5)
	if !Arrived(next, target) {
		t.Fatalf("expected to remain at target, got %+v", next)
	}
	if moved != 0 {
		t.Fatalf("expected zero magnitude at target, got %d", moved)
	}
}

func TestStepStaysWithinGrid(t *testing.T) {
	pos := model.Point{X: 99, Y: 99}
	target := model.Point{X: 200, Y: 200}
	next, _ := Step(pos, target, 10)
	if next.X > GridMax || next.Y > GridMax {
		t.Fatalf("position escaped grid: %+v", next)
	}
}

func TestInDefenceBand(t *testing.T) {
	cases := []struct {
		pos  model.Point
		defX int
		want bool
	}{
		{model.Point{X: 10, Y: 50}, 10, true},
		{model.Point{X: 30, Y: 50}, 10, false}, // too far in X
		{model.Point{X: 10, Y: 10}, 10, false}, // not in defence y-band
		{model.Point{X: 10, Y: 70}, 10, false}, // past defence band
	}
	for _, c := range cases {
		if got := InDefenceBand(c.pos, c.defX); got != c.want {
			t.Errorf("InDefenceBand(%+v, %d) = %v, want %v", c.pos, c.defX, got, c.want)
		}
	}
}

func TestPastReassemblyThreshold(t *testing.T) {
	if !PastReassemblyThreshold(model.Point{X: 0, Y: DefenceMaxY}) {
		t.Error("expected y == DefenceMaxY to satisfy the threshold")
	}
	if PastReassemblyThreshold(model.Point{X: 0, Y: DefenceMaxY - 1}) {
		t.Error("expected y < DefenceMaxY to fail the threshold")
	}
}
