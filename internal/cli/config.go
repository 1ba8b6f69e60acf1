package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Inspect agentmon configuration",
	Long: `Inspect the effective configuration: the file given with --config,
overlaid with environment variables.

Environment variables:
  TETRASCIENCE_API_URL                 - platform API base URL
  TETRASCIENCE_AUTH_TOKEN_SECRET_ARN   - Secrets Manager secret holding the API token
  TETRASCIENCE_AUTH_TOKEN              - API token (local runs)
  AGENTMON_NAMESPACE                   - metric namespace
  AGENTMON_SINK                        - cloudwatch, webhook or stdout
  AGENTMON_LOG_LEVEL                   - debug, info, warn, error
  AGENTMON_LOG_FORMAT                  - json, text
  AGENTMON_LISTEN_ADDR                 - serve address
  AWS_REGION                           - AWS region

Available commands:
  show              - Show the effective configuration
  validate          - Check that batches can be processed`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Show the effective configuration with secrets redacted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		shown := cfg.Redacted()
		if jsonOutput {
			return outputJSON(shown)
		}

		data, err := shown.Marshal()
		if err != nil {
			return err
		}
		fmt.Println("# agentmon configuration")
		if configPath != "" {
			fmt.Printf("# Location: %s\n", configPath)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Println(color.Success("configuration is valid"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
