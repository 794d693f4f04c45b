package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "claimpool",
	Short: "Settlement and reputation engine for claim analysis pools",
	Long: `claimpool settles analysis pools once their claim resolves, previews
hypothetical stakes, and scores pool creators into reputation tiers.

The run command serves the HTTP API and, when LEDGER_FEED_URL is set,
settles resolved pools from the ledger indexer feed. The other commands
are offline tools over JSON snapshots or a read-only RPC endpoint.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
