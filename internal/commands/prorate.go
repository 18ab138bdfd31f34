package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/normalize"
	"github.com/cleared-dev/rollcheck/internal/proration"
)

func newProrateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "prorate <potential_rent> <analysis_date> <lease_end_date>",
		Short: "Convert an Argus potential rent into a monthly rent",
		Example: `  rollcheck prorate 1200 3/31/2025 12/31/2025
  rollcheck prorate '$18,000.00' 2025-03-31 2026-06-30`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			potential, err := normalize.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("potential rent: %w", err)
			}
			if potential.IsNegative() {
				return fmt.Errorf("potential rent: must not be negative, got %s", potential)
			}
			analysis, err := normalize.ParseDate(args[1])
			if err != nil {
				return fmt.Errorf("analysis date: %w", err)
			}
			leaseEnd, err := normalize.ParseDate(args[2])
			if err != nil {
				return fmt.Errorf("lease end date: %w", err)
			}

			rent := proration.Prorate(potential, analysis, leaseEnd)
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s / %d months = %s\n",
					potential.StringFixed(2), proration.Divisor(analysis, leaseEnd), rent.StringFixed(2))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rent.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the month divisor")

	return cmd
}
