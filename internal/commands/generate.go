package commands

import (
	"fmt"

	"github.com/danielbgg/payment-batch/internal/generator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenerateCommand(logger *zap.SugaredLogger) *cobra.Command {
	var records int64

	cmd := &cobra.Command{
		Use:   "generate [output]",
		Short: "Generate a synthetic payments file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "input/payments-big.csv"
			if len(args) > 0 {
				output = args[0]
			}
			if records < 0 {
				return fmt.Errorf("records must not be negative, got %d", records)
			}

			return generator.New(logger).GenerateFile(output, records)
		},
	}

	cmd.Flags().Int64Var(&records, "records", generator.DefaultRecords, "number of data lines to write")

	return cmd
}
