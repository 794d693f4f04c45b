package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var reputationCmd = &cobra.Command{
	Use:   "reputation",
	Short: "Summarise a creator's resolved pool history into a reputation record",
	Long: `Reads a creator's resolved pools from a JSON file and prints the
reputation record: points, tier, and accuracy.

History format:
  {"participant": "0x...",
   "history": [{"pool_id": 1, "creator_stake": 500, "creator_was_correct": true}]}

Examples:
  claimpool reputation --file history.json`,
	RunE: runReputation,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(reputationCmd)
	reputationCmd.Flags().StringP("file", "f", "", "History JSON file (- for stdin)")
	reputationCmd.Flags().Int64("units-per-token", 1, "Smallest units per whole token for the stake multiplier")
	reputationCmd.Flags().String("format", "table", "Output format: table, json")
	_ = reputationCmd.MarkFlagRequired("file")
}

// CreatorHistory is the reputation command's input.
type CreatorHistory struct {
	Participant common.Address     `json:"participant"`
	History     []reputation.Entry `json:"history"`
}

func runReputation(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	unitsPerToken, _ := cmd.Flags().GetInt64("units-per-token")
	format, _ := cmd.Flags().GetString("format")

	err := validFormat(format)
	if err != nil {
		return err
	}

	var input CreatorHistory
	err = readJSONInput(path, cmd.InOrStdin(), &input)
	if err != nil {
		return err
	}

	record, err := settlement.NewView(reputation.New(unitsPerToken)).Summarize(input.Participant, input.History)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(w, record)
	}

	fmt.Fprintf(w, "Reputation for %s\n", record.Participant.Hex())
	fmt.Fprintf(w, "  Tier:      %s\n", record.Tier)
	fmt.Fprintf(w, "  Points:    %d\n", record.Points)
	fmt.Fprintf(w, "  Pools:     %d (%d correct, %d wrong)\n", record.TotalPools, record.CorrectPools, record.WrongPools)
	fmt.Fprintf(w, "  Accuracy:  %d%%\n", record.Accuracy)
	return nil
}
