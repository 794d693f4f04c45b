package cmd

import (
	"fmt"
	"io"

	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Compute the settlement of a resolved pool snapshot",
	Long: `Reads a resolved pool and its complete stake list from a JSON file and
prints the settlement: protocol fee, creator reward, each stake's payout and
the rounding remainder.

Snapshot format:
  {"pool": {"id": 1, "claim_id": 101, "creator": "0x...", "stance": "affirmative",
            "creator_stake": 500, "agree_total": 500, "disagree_total": 3200,
            "total_staked": 4200, "state": "resolved", "creator_was_correct": true},
   "stakes": [{"id": 11, "pool_id": 1, "participant": "0x...", "amount": 300, "choice": "agree"}]}

Examples:
  claimpool settle --file pool.json
  cat pool.json | claimpool settle --file - --format json`,
	RunE: runSettle,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(settleCmd)
	settleCmd.Flags().StringP("file", "f", "", "Pool snapshot JSON file (- for stdin)")
	settleCmd.Flags().String("format", "table", "Output format: table, json")
	_ = settleCmd.MarkFlagRequired("file")
}

// PoolSnapshot is the settle command's input.
type PoolSnapshot struct {
	Pool   types.AnalysisPool       `json:"pool"`
	Stakes []types.ParticipantStake `json:"stakes"`
}

func runSettle(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")

	err := validFormat(format)
	if err != nil {
		return err
	}

	var snapshot PoolSnapshot
	err = readJSONInput(path, cmd.InOrStdin(), &snapshot)
	if err != nil {
		return err
	}

	breakdown, err := settlement.NewView(nil).Settle(snapshot.Pool, snapshot.Stakes)
	if err != nil {
		return fmt.Errorf("settle pool %d: %w", snapshot.Pool.ID, err)
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), breakdown)
	}
	printBreakdown(cmd.OutOrStdout(), breakdown)
	return nil
}

func printBreakdown(w io.Writer, b *reward.Breakdown) {
	fmt.Fprintf(w, "Pool %d settlement (creator %s)\n", b.PoolID, correctness(b.CreatorWasCorrect))
	fmt.Fprintf(w, "  Total pool:        %d\n", b.TotalPool)
	fmt.Fprintf(w, "  Protocol fee:      %d\n", b.ProtocolFee)
	fmt.Fprintf(w, "  Distributable:     %d\n", b.Distributable)
	fmt.Fprintf(w, "  Creator reward:    %d\n", b.CreatorRewardTotal)
	fmt.Fprintf(w, "  Staker pool:       %d (winning side %s, %d staked)\n", b.StakerPool, b.WinningChoice, b.WinningTotal)
	if b.StakerPoolAccruedToCreator {
		fmt.Fprintln(w, "  No winning stakes: staker pool accrued to the creator")
	}
	fmt.Fprintf(w, "  Remainder:         %d\n", b.Remainder)

	if len(b.Payouts) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-8s %-42s %-9s %12s %12s\n", "STAKE", "PARTICIPANT", "CHOICE", "AMOUNT", "REWARD")
	for _, p := range b.Payouts {
		fmt.Fprintf(w, "  %-8d %-42s %-9s %12d %12d\n", p.StakeID, p.Participant.Hex(), p.Choice, p.Amount, p.Reward)
	}
}

func correctness(correct bool) string {
	if correct {
		return "correct"
	}
	return "wrong"
}
