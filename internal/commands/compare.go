package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/extract"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/pipeline"
	"github.com/cleared-dev/rollcheck/internal/report"
)

func newCompareCommand(opts *globalOptions) *cobra.Command {
	var thresholdFlag string
	var formatFlag string
	var title string

	cmd := &cobra.Command{
		Use:   "compare <actual> <argus>",
		Short: "Extract, normalize and reconcile an actual roll against an Argus roll",
		Long: `Compare runs the full pipeline on two rent roll documents.

Documents are read by the configured extraction backend: "file" reads
pre-extracted JSON, "gemini" and "mistral" send PDFs or images to the
respective API.`,
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

			ctx := cmd.Context()
			ext, err := extract.New(ctx, cfg)
			if err != nil {
				return err
			}

			p := pipeline.New(ext, th)
			p.Timeout = cfg.Extraction.Timeout

			run, err := p.Compare(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			logging.Default().Debug().Str("run_id", run.ID.String()).Msg("writing report")

			return writeReport(cmd, report.DetectFormat(string(format)), title, run.Result)
		},
	}

	cmd.Flags().StringVar(&thresholdFlag, "threshold", "", "materiality threshold (default from config)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "output format: table, markdown, json, yaml (default table on a terminal, json otherwise)")
	cmd.Flags().StringVar(&title, "title", "", "markdown report title")

	return cmd
}
