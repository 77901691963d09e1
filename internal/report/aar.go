// Package report builds the after-action report the Command Centre
// hands back once a mission reaches mission.PhaseDone: a console
// summary block colorized like the teacher's SimulationLogger.PrintSummary,
// plus an optional YAML export for anyone who wants the numbers machine-
// readable.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/nimbus-ops/swarm-mission/internal/mission"
)

// SwarmSummary is one swarm's outcome, shaped for (de)serialization.
type SwarmSummary struct {
	SwarmID     int    `yaml:"swarm_id"`
	Detonations int    `yaml:"detonations"`
	CamResult   string `yaml:"cam_result"`
}

// MissionReport is the full after-action report for one run.
type MissionReport struct {
	RunID        string         `yaml:"run_id"`
	GeneratedAt  time.Time      `yaml:"generated_at"`
	FinalPhase   string         `yaml:"final_phase"`
	TotalDrones  int            `yaml:"total_drones"`
	Destroyed    int            `yaml:"destroyed"`
	FuelEmpty    int            `yaml:"fuel_empty"`
	LinkLost     int            `yaml:"link_lost"`
	Detonated    int            `yaml:"detonated"`
	RetaskLocked int            `yaml:"retask_locked"`
	Swarms       []SwarmSummary `yaml:"swarms"`
}

// New converts a mission.Result into a report, stamping it with the run
// ID and the given generation time (never time.Now() internally, so
// callers stay in control of the timestamp).
func New(runID string, generatedAt time.Time, res mission.Result) MissionReport {
	swarms := make([]SwarmSummary, 0, len(res.Swarms))
	for _, s := range res.Swarms {
		swarms = append(swarms, SwarmSummary{
			SwarmID:     int(s.SwarmID),
			Detonations: s.Detonations,
			CamResult:   s.CamResult,
		})
	}
	return MissionReport{
		RunID:        runID,
		GeneratedAt:  generatedAt,
		FinalPhase:   res.FinalPhase.String(),
		TotalDrones:  res.TotalDrones,
		Destroyed:    res.Destroyed,
		FuelEmpty:    res.FuelEmpty,
		LinkLost:     res.LinkLost,
		Detonated:    res.Detonated,
		RetaskLocked: res.RetaskLocked,
		Swarms:       swarms,
	}
}

var (
	headingColor = color.New(color.FgGreen, color.Bold)
	labelColor   = color.New(color.FgHiBlack)
)

// WriteConsole prints the summary block the original simulator prints
// to stdout at Shutdown.
func (r MissionReport) WriteConsole(w io.Writer) {
	headingColor.Fprintf(w, "=== mission summary (%s) ===\n", r.RunID[:8])
	fmt.Fprintf(w, "final phase:    %s\n", r.FinalPhase)
	fmt.Fprintf(w, "total drones:   %d\n", r.TotalDrones)
	fmt.Fprintf(w, "destroyed:      %d\n", r.Destroyed)
	fmt.Fprintf(w, "fuel empty:     %d\n", r.FuelEmpty)
	fmt.Fprintf(w, "link lost:      %d\n", r.LinkLost)
	fmt.Fprintf(w, "detonations:    %d\n", r.Detonated)
	fmt.Fprintf(w, "retask locked:  %d\n", r.RetaskLocked)
	labelColor.Fprintln(w, "--- per-swarm ---")
	for _, s := range r.Swarms {
		result := s.CamResult
		if result == "" {
			result = "unknown"
		}
		fmt.Fprintf(w, "  swarm %d: %d detonations, camera result %s\n", s.SwarmID, s.Detonations, result)
	}
}

// WriteYAML marshals the report as YAML to path. It does not create
// missing parent directories. This is the optional richer export
// alongside the plain-text console summary.
func WriteYAML(path string, r MissionReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
