package commands

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/buildinfo"
	"github.com/cleared-dev/rollcheck/internal/config"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/reconcile"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "rollcheck",
		Short:   "Reconcile actual rent rolls against Argus underwriting rent rolls",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCompareCommand(opts))
	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newReconcileCommand(opts))
	rootCmd.AddCommand(newProrateCommand())
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// load resolves configuration and configures the default logger.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logging.Configure(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  os.Stderr,
		NoColor: os.Getenv("NO_COLOR") != "",
	})
	return cfg, nil
}

// threshold returns the --threshold flag if given, else the configured value.
func threshold(cfg *config.Config, flag string) (decimal.Decimal, error) {
	if flag != "" {
		return reconcile.ParseThreshold(flag)
	}
	return cfg.Threshold()
}
