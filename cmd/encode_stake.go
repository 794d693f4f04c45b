package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var encodeStakeCmd = &cobra.Command{
	Use:   "encode-stake",
	Short: "Print the unsigned calldata for a stake",
	Long: `Encodes a stake(poolId, position) call. The position boolean stored by
the ledger is derived from the pool stance and the staker's choice; this
prints it alongside the calldata so the wallet can sign the transaction.

Nothing is signed or submitted.

Examples:
  claimpool encode-stake --pool-id 7 --stance negative --choice disagree --amount 1000000`,
	RunE: runEncodeStake,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(encodeStakeCmd)
	encodeStakeCmd.Flags().String("contract", "", "Pool contract address (defaults to LEDGER_CONTRACT_ADDRESS)")
	encodeStakeCmd.Flags().Uint64("pool-id", 0, "Pool id")
	encodeStakeCmd.Flags().String("stance", "", "Pool stance: affirmative or negative")
	encodeStakeCmd.Flags().String("choice", "", "Stake choice: agree or disagree")
	encodeStakeCmd.Flags().Int64("amount", 0, "Stake amount in smallest units")
	encodeStakeCmd.Flags().String("format", "table", "Output format: table, json")
	_ = encodeStakeCmd.MarkFlagRequired("pool-id")
	_ = encodeStakeCmd.MarkFlagRequired("stance")
	_ = encodeStakeCmd.MarkFlagRequired("choice")
	_ = encodeStakeCmd.MarkFlagRequired("amount")
}

func runEncodeStake(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	contractHex, _ := flags.GetString("contract")
	poolID, _ := flags.GetUint64("pool-id")
	stanceName, _ := flags.GetString("stance")
	choiceName, _ := flags.GetString("choice")
	amount, _ := flags.GetInt64("amount")
	format, _ := flags.GetString("format")

	err := validFormat(format)
	if err != nil {
		return err
	}

	contract, err := contractAddress(contractHex)
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

	call, err := ledger.PackStake(contract, poolID, stance, choice, amount)
	if err != nil {
		return fmt.Errorf("encode stake: %w", err)
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(w, map[string]any{
			"to":       call.To.Hex(),
			"data":     hexutil.Encode(call.Data),
			"value":    call.Value.String(),
			"position": call.Position,
		})
	}

	fmt.Fprintf(w, "To:        %s\n", call.To.Hex())
	fmt.Fprintf(w, "Value:     %s\n", call.Value)
	fmt.Fprintf(w, "Position:  %t (%s on a %s pool)\n", call.Position, choice, stance)
	fmt.Fprintf(w, "Data:      %s\n", hexutil.Encode(call.Data))
	return nil
}

// contractAddress resolves the flag value, falling back to the environment.
func contractAddress(flagValue string) (common.Address, error) {
	if flagValue == "" {
		err := loadDotEnv()
		if err != nil {
			return common.Address{}, err
		}
		flagValue = os.Getenv("LEDGER_CONTRACT_ADDRESS")
	}
	if !common.IsHexAddress(flagValue) {
		return common.Address{}, fmt.Errorf("contract address %q is not a hex address", flagValue)
	}
	return common.HexToAddress(flagValue), nil
}
