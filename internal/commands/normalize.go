package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/model"
	"github.com/cleared-dev/rollcheck/internal/rentroll"
)

func newNormalizeCommand() *cobra.Command {
	var formatFlag string
	var output string

	cmd := &cobra.Command{
		Use:   "normalize <actual|argus> <extraction.json>",
		Short: "Normalize a raw extraction into unit records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.RollKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown roll kind %q (expected actual or argus)", args[0])
			}

			units, err := loadUnits(kind, args[1])
			if err != nil {
				return err
			}

			switch formatFlag {
			case "csv":
				if output != "" {
					roll, err := rentroll.New(kind, units)
					if err != nil {
						return err
					}
					return roll.Save(output)
				}
				return rentroll.WriteUnits(cmd.OutOrStdout(), units)
			case "json":
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating output file: %w", err)
					}
					defer f.Close()
					w = f
				}
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(units)
			default:
				return fmt.Errorf("unknown format %q (expected csv or json)", formatFlag)
			}
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
