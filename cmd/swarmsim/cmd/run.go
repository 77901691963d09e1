package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nimbus-ops/swarm-mission/internal/config"
	"github.com/nimbus-ops/swarm-mission/internal/defence"
	"github.com/nimbus-ops/swarm-mission/internal/drone"
	"github.com/nimbus-ops/swarm-mission/internal/logger"
	"github.com/nimbus-ops/swarm-mission/internal/mission"
	"github.com/nimbus-ops/swarm-mission/internal/model"
	"github.com/nimbus-ops/swarm-mission/internal/report"
	"github.com/nimbus-ops/swarm-mission/internal/transport"
	"github.com/nimbus-ops/swarm-mission/internal/worldstate"
)

var (
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one mission",
		RunE:  runMission,
	}
	seed int64
)

func init() {
	runCmd.Flags().StringVar(&reportOut, "report-yaml", "", "optional path to write the after-action report as YAML")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed override for reproducible runs (default: time-derived)")
}

// attackersPerSwarm and camerasPerSwarm give the supplemented
// original_source composition: 4 Attack + 1 Camera, so 5 drones per
// swarm (spec.md §3's Objective.NominalAttackers is 4).
const (
	attackersPerSwarm = 4
	camerasPerSwarm   = 1
	swarmCount        = 3
)

func runMission(cmd *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}

	path, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	config.ApplyEnvOverrides(&cfg)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Clamp()

	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	runID := uuid.New().String()
	log.Infof("starting mission %s", runID[:8])

	ws := worldstate.New()
	events := transport.NewEventBus(1024)
	cmds := transport.NewCommandBus()

	swarms, objectives, defences := fixedGeometry()

	tickPeriod := 50 * time.Millisecond
	masterSeed := seed
	if !cmd.Flags().Changed("seed") {
		masterSeed = time.Now().UnixNano()
	}
	log.Infof("master rng seed: %d", masterSeed)
	masterRng := rand.New(rand.NewSource(masterSeed))

	droneCfg := func() drone.Config {
		return drone.Config{
			Speed:            cfg.Speed,
			InitialFuel:      cfg.InitialFuel,
			TickPeriod:       tickPeriod,
			LinkLossProb:     cfg.LinkLossProb,
			ReconnectTimeout: time.Duration(cfg.ReconnectTimeout) * time.Second,
			Rand:             rand.New(rand.NewSource(masterRng.Int63())),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Ticks)*tickPeriod)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warnf("interrupt received, shutting down")
		cancel()
	}()

	var roster []mission.Roster
	id := model.DroneID(1)
	for _, s := range swarms {
		truck := s.Truck
		assembly := s.Assembly
		reassembly := s.Reassembly
		for n := 0; n < attackersPerSwarm+camerasPerSwarm; n++ {
			role := model.RoleAttack
			if n >= attackersPerSwarm {
				role = model.RoleCamera
			}
			droneID := id
			id++
			cmdCh := cmds.Register(droneID)
			agent := drone.New(droneID, s.ID, role, truck, assembly, reassembly, ws, events, cmdCh, droneCfg(), log.WithPrefix("drone"))
			roster = append(roster, mission.Roster{ID: droneID, Role: role, SwarmID: s.ID})
			go agent.Run(ctx)
		}
	}

	for i, d := range defences {
		sampler := defence.New(i, d, cfg.DefenceHitProb, tickPeriod,
			ws, events, rand.New(rand.NewSource(masterRng.Int63())), log)
		go sampler.Run(ctx)
	}

	targetRng := rand.New(rand.NewSource(masterRng.Int63()))
	centre := mission.New(roster, swarms, objectives, events, cmds, targetRng, log)

	result, err := centre.Run(ctx)
	if err != nil {
		log.Errorf("mission aborted: %v", err)
		return fmt.Errorf("mission: %w", err)
	}

	rpt := report.New(runID, time.Now(), result)
	rpt.WriteConsole(os.Stdout)

	if reportOut != "" {
		if err := report.WriteYAML(reportOut, rpt); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		log.Infof("report written to %s", reportOut)
	}

	return nil
}

// resolveConfigPath returns the --config flag value, or, when no flag
// was given and stdin is a terminal, offers an interactive picker over
// *.conf files in the working directory (mirroring the teacher's
// survey-driven selectEnvironment/selectSimulation prompts). A non-TTY
// session with no flag simply runs with defaults.
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}

	matches, _ := filepath.Glob("*.conf")
	if len(matches) == 0 {
		return "", nil
	}

	options := append([]string{"(use defaults)"}, matches...)
	var selected string
	prompt := &survey.Select{
		Message: "Select a mission config file:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	if selected == "(use defaults)" {
		return "", nil
	}
	return selected, nil
}

// fixedGeometry returns the §6 grid layout: three swarms each with
// their truck/assembly/reassembly points and an objective, plus the
// two defence installations' x positions.
func fixedGeometry() ([]model.SwarmRecord, []model.ObjectiveRecord, []int) {
	xs := []int{25, 50, 75}
	nominal := attackersPerSwarm + camerasPerSwarm

	swarms := make([]model.SwarmRecord, 0, swarmCount)
	objectives := make([]model.ObjectiveRecord, 0, swarmCount)
	for i, x := range xs {
		swarms = append(swarms, model.SwarmRecord{
			ID:         model.SwarmID(i),
			Assembly:   model.Point{X: x, Y: 16},
			Reassembly: model.Point{X: x, Y: 82},
			Truck:      model.Point{X: x, Y: 0},
			Objective:  model.Point{X: x, Y: 100},
			Nominal:    nominal,
		})
		objectives = append(objectives, model.ObjectiveRecord{
			ID:               i,
			Position:         model.Point{X: x, Y: 100},
			NominalAttackers: attackersPerSwarm,
		})
	}

	defences := []int{10, 90}
	return swarms, objectives, defences
}
