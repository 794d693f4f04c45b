package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var inspectPoolCmd = &cobra.Command{
	Use:   "inspect-pool",
	Short: "Read a pool from the ledger and show its settlement",
	Long: `Reads a pool, its claim and the given stakes from the pool contract over
RPC, all at one block, checks the snapshot is consistent, and prints the
settlement if the pool has resolved.

Read-only: no transaction is sent.

Examples:
  claimpool inspect-pool --pool-id 7 --stake-ids 71,72,73
  claimpool inspect-pool --pool-id 7 --stake-ids 71 --block 19000000 --rpc https://rpc.example`,
	RunE: runInspectPool,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(inspectPoolCmd)
	addInspectPoolFlags(inspectPoolCmd)
}

func addInspectPoolFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("pool-id", 0, "Pool id")
	cmd.Flags().UintSlice("stake-ids", nil, "Complete list of the pool's stake ids")
	cmd.Flags().Uint64("block", 0, "Block number to read at (0 for latest)")
	cmd.Flags().String("rpc", "", "RPC URL (defaults to LEDGER_RPC_URL)")
	cmd.Flags().String("contract", "", "Pool contract address (defaults to LEDGER_CONTRACT_ADDRESS)")
	cmd.Flags().Duration("timeout", 30*time.Second, "RPC timeout")
	cmd.Flags().String("format", "table", "Output format: table, json")
	_ = cmd.MarkFlagRequired("pool-id")
}

// stakeIDs reads --stake-ids as the uint64 ids the ledger reader takes.
func stakeIDs(cmd *cobra.Command) ([]uint64, error) {
	raw, err := cmd.Flags().GetUintSlice("stake-ids")
	if err != nil {
		return nil, fmt.Errorf("read stake-ids: %w", err)
	}

	ids := make([]uint64, len(raw))
	for i, id := range raw {
		ids[i] = uint64(id)
	}
	return ids, nil
}

func runInspectPool(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	poolID, _ := flags.GetUint64("pool-id")
	blockNumber, _ := flags.GetUint64("block")
	rpcURL, _ := flags.GetString("rpc")
	contractHex, _ := flags.GetString("contract")
	timeout, _ := flags.GetDuration("timeout")
	format, _ := flags.GetString("format")

	err := validFormat(format)
	if err != nil {
		return err
	}

	ids, err := stakeIDs(cmd)
	if err != nil {
		return err
	}

	contract, err := contractAddress(contractHex)
	if err != nil {
		return err
	}
	if rpcURL == "" {
		rpcURL = os.Getenv("LEDGER_RPC_URL")
	}

	logger, err := config.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader, closeReader, err := ledger.DialReader(ctx, rpcURL, contract, logger)
	if err != nil {
		return fmt.Errorf("connect ledger: %w", err)
	}
	defer closeReader()

	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}

	snapshot, err := reader.Snapshot(ctx, poolID, ids, block)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	return printInspection(cmd, snapshot, format)
}

func printInspection(cmd *cobra.Command, snapshot *ledger.ResolutionEvent, format string) error {
	w := cmd.OutOrStdout()
	pool := snapshot.Pool

	if !pool.IsResolved() {
		if format == "json" {
			return writeJSON(w, map[string]any{"pool": pool, "stakes": snapshot.Stakes})
		}
		fmt.Fprintf(w, "Pool %d is active: creator %s, stance %s\n", pool.ID, pool.Creator.Hex(), pool.Stance)
		fmt.Fprintf(w, "  Creator stake:   %d\n", pool.CreatorStake)
		fmt.Fprintf(w, "  Agree total:     %d\n", pool.AgreeTotal)
		fmt.Fprintf(w, "  Disagree total:  %d\n", pool.DisagreeTotal)
		return nil
	}

	err := snapshot.CheckSnapshot()
	if err != nil {
		return fmt.Errorf("inconsistent snapshot: %w", err)
	}

	breakdown, err := settlement.NewView(nil).Settle(pool, snapshot.Stakes)
	if err != nil {
		return fmt.Errorf("settle pool %d: %w", pool.ID, err)
	}

	if format == "json" {
		return writeJSON(w, map[string]any{"pool": pool, "claim": snapshot.Claim, "settlement": breakdown})
	}
	printBreakdown(w, breakdown)
	return nil
}
