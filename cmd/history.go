package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nightwatt/nightwatt/config"
	"github.com/nightwatt/nightwatt/core/storage"
	infrastorage "github.com/nightwatt/nightwatt/infra/storage"
)

var (
	historyDays   int
	historyResult string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived charging sessions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 31, "how far back to look")
	historyCmd.Flags().StringVar(&historyResult, "result", "", "filter by session result")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	archive, err := infrastorage.NewSessionLog(cfg.Storage.SessionBackend, cfg.Storage.SessionPath)
	if err != nil {
		return fmt.Errorf("session archive: %w", err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "archive close: %v\n", err)
		}
	}()

	sessions, err := archive.Query(cmd.Context(), storage.SessionQuery{
		Start:  time.Now().AddDate(0, 0, -historyDays),
		Result: historyResult,
	})
	if err != nil {
		return err
	}

	capacity := cfg.Planner.BatteryCapacityKWh
	out := cmd.OutOrStdout()
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %5.1f%% -> %5.1f%%  %5.2f kWh  %6.2f  %s\n",
			s.StartTime.Format("2006-01-02 15:04"),
			s.StartSoC, s.EndSoC,
			s.KWhCharged(capacity), s.TotalCost(capacity), s.Result)
	}
	fmt.Fprintf(out, "%d sessions\n", len(sessions))
	return nil
}
