package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nightwatt/nightwatt/config"
	"github.com/nightwatt/nightwatt/core/planner"
	"github.com/nightwatt/nightwatt/infra/logger"
	"github.com/nightwatt/nightwatt/infra/mqtt"
	infrastorage "github.com/nightwatt/nightwatt/infra/storage"
)

var planWaitSec int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning cycle and print the decision without acting on it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planWaitSec, "wait", 3, "seconds to wait for retained telemetry")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := infrastorage.NewFileStore(cfg.Storage.StatePath)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	client, err := mqtt.NewClient(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	// Retained payloads arrive right after subscribing; give them a moment.
	time.Sleep(time.Duration(planWaitSec) * time.Second)

	source := mqtt.NewTelemetrySource(client)
	pl := planner.New(cfg.Planner, source, store, logger.New("planner"))

	now := time.Now()
	traj, ok := pl.Simulate(now)
	if !ok {
		return fmt.Errorf("soc sensor unavailable")
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	fmt.Fprintln(out, "trajectory:")
	if err := enc.Encode(traj); err != nil {
		return err
	}
	fmt.Fprintln(out, "overnight:")
	if err := enc.Encode(traj.Overnight()); err != nil {
		return err
	}

	schedule := pl.PlanCharging(now)
	if schedule == nil {
		fmt.Fprintln(out, "decision: no charging scheduled")
		return nil
	}
	fmt.Fprintln(out, "decision:")
	return enc.Encode(schedule)
}
