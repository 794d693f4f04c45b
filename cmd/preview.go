package cmd

import (
	"fmt"

	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the maximum reward and loss of a hypothetical stake",
	Long: `Estimates what a new stake would receive on an active pool under both
outcomes. The figures are non-binding: later stakes change the split.

Examples:
  claimpool preview --stance affirmative --creator-stake 500 \
    --agree-total 500 --disagree-total 3200 --choice agree --amount 500`,
	RunE: runPreview,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Uint64("pool-id", 1, "Pool id (informational)")
	previewCmd.Flags().String("stance", "affirmative", "Creator stance: affirmative or negative")
	previewCmd.Flags().Int64("creator-stake", 0, "Creator stake in smallest units")
	previewCmd.Flags().Int64("agree-total", 0, "Current agree total")
	previewCmd.Flags().Int64("disagree-total", 0, "Current disagree total")
	previewCmd.Flags().String("choice", "", "Stake choice: agree or disagree")
	previewCmd.Flags().Int64("amount", 0, "Stake amount in smallest units")
	previewCmd.Flags().String("format", "table", "Output format: table, json")
	_ = previewCmd.MarkFlagRequired("choice")
	_ = previewCmd.MarkFlagRequired("amount")
}

func runPreview(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	poolID, _ := flags.GetUint64("pool-id")
	stanceName, _ := flags.GetString("stance")
	creatorStake, _ := flags.GetInt64("creator-stake")
	agreeTotal, _ := flags.GetInt64("agree-total")
	disagreeTotal, _ := flags.GetInt64("disagree-total")
	choiceName, _ := flags.GetString("choice")
	amount, _ := flags.GetInt64("amount")
	format, _ := flags.GetString("format")

	err := validFormat(format)
	if err != nil {
		return err
	}

	stance, err := types.ParseStance(stanceName)
	if err != nil {
		return err
	}
	choice, err := types.ParseChoice(choiceName)
	if err != nil {
		return err
	}

	pool := types.AnalysisPool{
		ID:            poolID,
		Stance:        stance,
		CreatorStake:  creatorStake,
		AgreeTotal:    agreeTotal,
		DisagreeTotal: disagreeTotal,
		TotalStaked:   creatorStake + agreeTotal + disagreeTotal,
		State:         types.PoolStateActive,
	}

	preview, err := settlement.NewView(reputation.New(1)).PreviewStake(pool, choice, amount)
	if err != nil {
		return fmt.Errorf("preview stake: %w", err)
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(w, preview)
	}

	fmt.Fprintf(w, "Stake %d on %s (effective stance %s)\n", preview.Amount, preview.Choice, preview.EffectiveStance)
	fmt.Fprintf(w, "  Max reward:              %d\n", preview.MaxReward)
	fmt.Fprintf(w, "  Max loss:                %d\n", preview.MaxLoss)
	fmt.Fprintf(w, "  If creator is correct:   %d\n", preview.IfCreatorCorrect.Reward)
	fmt.Fprintf(w, "  If creator is wrong:     %d\n", preview.IfCreatorWrong.Reward)
	fmt.Fprintln(w, "  Estimates are non-binding.")
	return nil
}
