package cmd

import (
	"fmt"

	"github.com/mselser95/claimpool/internal/app"
	"github.com/mselser95/claimpool/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the settlement service",
	Long: `Starts the settlement service, which will:
1. Serve the settlement and reputation HTTP API
2. Subscribe to the ledger indexer feed (when LEDGER_FEED_URL is set)
3. Settle each resolved pool once and fold it into the creator's reputation
4. Persist settlements and reputation to the configured storage`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	err := loadDotEnv()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
