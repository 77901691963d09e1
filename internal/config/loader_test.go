package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.cfg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadParsesRecognisedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.cfg")
	contents := "W=50\nQ=20\nZ=8\nspeed=3\nfuel=250\nticks=500\nunknown_key=ignored\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := MissionConfig{
		DefenceHitProb:   50,
		LinkLossProb:     20,
		ReconnectTimeout: 8,
		Speed:            3,
		InitialFuel:      250,
		Ticks:            500,
		LogLevel:         "info",
	}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.cfg")
	contents := "W=500\nQ=-10\nZ=0\nZ=999\nspeed=-4\nfuel=-1\nticks=0\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefenceHitProb != 100 {
		t.Errorf("W not clamped: got %d", cfg.DefenceHitProb)
	}
	if cfg.LinkLossProb != 0 {
		t.Errorf("Q not clamped: got %d", cfg.LinkLossProb)
	}
	if cfg.ReconnectTimeout != 60 {
		t.Errorf("Z not clamped: got %d", cfg.ReconnectTimeout)
	}
	if cfg.Speed != 1 {
		t.Errorf("speed not clamped: got %d", cfg.Speed)
	}
	if cfg.InitialFuel != 1 {
		t.Errorf("fuel not clamped: got %d", cfg.InitialFuel)
	}
	if cfg.Ticks != 1 {
		t.Errorf("ticks not clamped: got %d", cfg.Ticks)
	}
}
