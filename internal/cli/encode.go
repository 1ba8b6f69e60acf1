package cli

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

var (
	encodeLevel string
	encodeEvent bool
	encodeOrg   string
	encodeAgent string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file|-]",
	Short: "Encode a batch document as a subscription payload",
	Long: `Encode a CloudWatch Logs batch document (logGroup, logStream, logEvents)
the way CloudWatch delivers it: gzip, then base64.

Compression levels:
  none     - store only
  fast     - fastest compression
  default  - balanced (default)
  max      - best compression

Examples:
  agentmon encode batch.json
  agentmon encode --event batch.json > event.json
  agentmon encode --level max - < batch.json
  agentmon encode --org acme --agent 55953bf0 batch.json   # re-home the batch`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := compression.NewCompressorFromString(encodeLevel)
		if err != nil {
			return err
		}
		body, err := readInput(args)
		if err != nil {
			return err
		}
		batch, err := readBatchDocument(body)
		if err != nil {
			return err
		}
		if encodeOrg != "" || encodeAgent != "" {
			id := batch.Identity()
			if encodeOrg != "" {
				id.OrgSlug = encodeOrg
			}
			if encodeAgent != "" {
				id.AgentID = encodeAgent
			}
			batch.Source = model.SourceFor(id)
		}
		data, err := processor.EncodeBatch(batch, c)
		if err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}

		if encodeEvent || jsonOutput {
			return printJSON(events.CloudwatchLogsEvent{AWSLogs: events.CloudwatchLogsRawData{Data: data}})
		}
		fmt.Println(data)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeLevel, "level", "l", "default", "compression level (none, fast, default, max)")
	encodeCmd.Flags().BoolVar(&encodeEvent, "event", false, "wrap the payload in a subscription event")
	encodeCmd.Flags().StringVar(&encodeOrg, "org", "", "override the org slug in the log group")
	encodeCmd.Flags().StringVar(&encodeAgent, "agent", "", "override the agent id in the log group")
	rootCmd.AddCommand(encodeCmd)
}
