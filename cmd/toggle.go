package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nightwatt/nightwatt/config"
	infrastorage "github.com/nightwatt/nightwatt/infra/storage"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn automatic charging on",
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(true) },
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn automatic charging off (takes effect when the service reloads the state file)",
	RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(false) },
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

func setEnabled(enabled bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := infrastorage.NewFileStore(cfg.Storage.StatePath)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	return store.SetEnabled(enabled)
}
