package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/internal/sink"
	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

var (
	processDryRun       bool
	processWatchedPaths []string
)

type processOutput struct {
	Result any                 `json:"result"`
	Groups []model.MetricGroup `json:"groups,omitempty"`
}

var processCmd = &cobra.Command{
	Use:   "process [file|-]",
	Short: "Process one captured batch",
	Long: `Process one encoded batch read from a file or stdin.

The input may be a CloudWatch Logs subscription event, a {"data": ...}
object or the bare base64 payload. With --dry-run the derived metrics are
printed instead of published. With --watched-path the platform API is not
called and every agent is treated as watching the given paths.

Examples:
  agentmon process event.json
  agentmon process --dry-run --watched-path 'C:\data' event.json
  agentmon encode batch.json | agentmon process --dry-run -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		body, err := readInput(args)
		if err != nil {
			return err
		}
		data, err := extractData(body)
		if err != nil {
			return err
		}

		var opts engineOptions
		var recorder *sink.Recorder
		if processDryRun {
			recorder = sink.NewRecorder()
			opts.sink = recorder
		}
		if len(processWatchedPaths) > 0 {
			opts.fetcher = staticFetcher{paths: processWatchedPaths}
		}

		eng, err := buildEngine(cmd.Context(), cfg, opts, metrics.NewRegistry())
		if err != nil {
			return err
		}
		res, err := eng.processor.HandleEncoded(cmd.Context(), data)
		if err != nil {
			return err
		}

		var groups []model.MetricGroup
		if recorder != nil {
			groups = recorder.Groups()
		}
		if jsonOutput {
			return outputJSON(processOutput{Result: res, Groups: groups})
		}

		fmt.Printf("%s batch %s (%s/%s)\n", color.Success("processed"), res.BatchID, res.Identity.OrgSlug, res.Identity.AgentID)
		fmt.Printf("  lines: %d  events: %d  skipped: %d  published: %d\n", res.Lines, res.Events, res.Skipped, res.Published)
		for _, g := range groups {
			for _, r := range g.Records {
				fmt.Printf("  %s %s = %v %s  %s\n",
					color.Dim(string(g.EventKind)), color.Header(r.Name), r.Value, r.Unit, formatDimensions(r.Dimensions))
			}
		}
		return nil
	},
}

func formatDimensions(dims []model.Dimension) string {
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, d.Name+"="+d.Value)
	}
	return strings.Join(parts, " ")
}

func init() {
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "print derived metrics instead of publishing them")
	processCmd.Flags().StringArrayVar(&processWatchedPaths, "watched-path", nil, "watched path to use instead of fetching configuration (repeatable)")
	rootCmd.AddCommand(processCmd)
}
