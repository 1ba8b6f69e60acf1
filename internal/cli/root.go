package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
	"github.com/tetrascience/ts-agent-monitoring/pkg/config"
	"github.com/tetrascience/ts-agent-monitoring/pkg/logging"
)

var (
	jsonOutput bool
	configPath string
	logLevel   string
	noColor    bool
	rootCmd    = &cobra.Command{
		Use:   "agentmon",
		Short: "agentmon - metrics from file-monitoring agent logs",
		Long: `agentmon turns the structured log batches written by TetraScience
file-monitoring agents into operational metrics: per-path scan duration
and file upload latency, keyed by organization, agent and watched path.

It runs as a CloudWatch Logs subscription Lambda, as a local HTTP
ingest server, or offline against captured batches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("AGENTMON_CONFIG"), "path to agentmon.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() {
	if args := lambdaArgs(os.Args[1:], os.LookupEnv); args != nil {
		rootCmd.SetArgs(args)
	}
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%s", formatError(err))
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies the environment and flag
// overrides and initializes the global logger from the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logging.Initialize(cfg.Logging.Level, cfg.Logging.Format, "stderr"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	return printJSON(v)
}

// printJSON prints v as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
