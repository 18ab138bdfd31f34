package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/model"
	"github.com/cleared-dev/rollcheck/internal/normalize"
	"github.com/cleared-dev/rollcheck/internal/reconcile"
	"github.com/cleared-dev/rollcheck/internal/rentroll"
	"github.com/cleared-dev/rollcheck/internal/report"
)

func newReconcileCommand(opts *globalOptions) *cobra.Command {
	var thresholdFlag string
	var formatFlag string
	var title string

	cmd := &cobra.Command{
		Use:   "reconcile <actual.csv|json> <argus.csv|json>",
		Short: "Reconcile two rolls that are already extracted",
		Long: `Reconcile compares two rolls without calling an extraction backend.

Files ending in .csv are read as normalized unit CSV (see "rollcheck normalize").
Any other file is read as a raw extraction JSON document and normalized first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			th, err := threshold(cfg, thresholdFlag)
			if err != nil {
				return err
			}

			actual, err := loadUnits(model.KindActual, args[0])
			if err != nil {
				return err
			}
			argus, err := loadUnits(model.KindArgus, args[1])
			if err != nil {
				return err
			}

			res, err := reconcile.Reconcile(actual, argus, th)
			if err != nil {
				return err
			}
			return writeReport(cmd, report.DetectFormat(string(format)), title, res)
		},
	}

	cmd.Flags().StringVar(&thresholdFlag, "threshold", "", "materiality threshold (default from config)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "output format: table, markdown, json, yaml")
	cmd.Flags().StringVar(&title, "title", "", "markdown report title")

	return cmd
}

// loadUnits reads a unit CSV file or normalizes a raw extraction JSON file.
func loadUnits(kind model.RollKind, path string) ([]model.UnitRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		roll, err := rentroll.Load(kind, path)
		if err != nil {
			return nil, err
		}
		return roll.Units(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s roll: %w", kind, err)
	}
	n := normalize.DefaultRegistry().Get(kind)
	if n == nil {
		return nil, fmt.Errorf("no normalizer for roll kind %q", kind)
	}
	return n.Normalize(data)
}

// writeReport renders res to the command's stdout.
func writeReport(cmd *cobra.Command, format report.Format, title string, res *model.ReconciliationResult) error {
	formatter := report.NewFormatter(format)
	if title != "" {
		if mf, ok := formatter.(*report.MarkdownFormatter); ok {
			mf.Title = title
		}
	}
	return formatter.Format(cmd.OutOrStdout(), res)
}
