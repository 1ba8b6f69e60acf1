package cli

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
)

// envLambdaRuntimeAPI is set by the Lambda runtime for custom runtimes.
const envLambdaRuntimeAPI = "AWS_LAMBDA_RUNTIME_API"

// lambdaArgs selects the lambda command when the binary is started by a
// provided.al2 bootstrap, which passes no arguments. It returns nil when
// the command line should be used as given.
func lambdaArgs(args []string, lookup func(string) (string, bool)) []string {
	if len(args) != 0 {
		return nil
	}
	if v, ok := lookup(envLambdaRuntimeAPI); !ok || v == "" {
		return nil
	}
	return []string{"lambda"}
}

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as a CloudWatch Logs subscription Lambda handler",
	Long: `Run inside the AWS Lambda runtime. Each invocation receives one
CloudWatch Logs subscription event for an agent log group
(/agents/<orgSlug>/<agentId>) and publishes the derived metrics.

The configuration cache lives for as long as the Lambda container.

Started without arguments while AWS_LAMBDA_RUNTIME_API is set, as a
provided.al2 bootstrap does, agentmon runs this command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, err := buildEngine(cmd.Context(), cfg, engineOptions{}, metrics.Default())
		if err != nil {
			return err
		}
		lambda.Start(eng.processor.HandleEvent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
