package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tetrascience/ts-agent-monitoring/internal/integrity"
	"github.com/tetrascience/ts-agent-monitoring/internal/pathtrie"
	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

var (
	matchWatchedPaths []string
	matchConfigFile   string
)

type matchResult struct {
	Observed string `json:"observed"`
	Watched  string `json:"watched,omitempty"`
	Matched  bool   `json:"matched"`
}

type matchOutput struct {
	Fingerprint model.HashValue `json:"fingerprint,omitempty"`
	Watched     []string        `json:"watched"`
	Results     []matchResult   `json:"results"`
}

var matchCmd = &cobra.Command{
	Use:   "match <observed-path>...",
	Short: "Resolve observed paths against watched paths",
	Long: `Resolve each observed path to the watched path it falls under, the way
upload latency metrics are attributed.

Paths are split on backslashes and compared case-insensitively; the
shortest watched ancestor wins. With --json the output also lists the
distinct watched paths the match ran against. Watched paths come from --watched-path or
from an agent configuration document saved from the platform API.

Examples:
  agentmon match --watched-path 'C:\data' 'c:\DATA\run1\plate.csv'
  agentmon match --config-file agent-config.json 'D:\export\a.txt'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := matchOutput{Watched: matchWatchedPaths}
		if matchConfigFile != "" {
			cfg, err := readAgentConfiguration(matchConfigFile)
			if err != nil {
				return err
			}
			fp, err := integrity.ComputeConfigFingerprint(cfg)
			if err != nil {
				return err
			}
			out.Fingerprint = fp
			out.Watched = append(cfg.WatchedPaths(), out.Watched...)
		}
		if len(out.Watched) == 0 {
			return fmt.Errorf("no watched paths: use --watched-path or --config-file")
		}

		trie := pathtrie.Build(out.Watched)
		// Report what the trie actually holds: duplicates that normalize to
		// the same segments collapse to the last one given.
		out.Watched = trie.Paths()
		for _, observed := range args {
			watched, ok := trie.MatchLongestPrefix(observed)
			out.Results = append(out.Results, matchResult{Observed: observed, Watched: watched, Matched: ok})
		}

		if jsonOutput {
			return outputJSON(out)
		}
		if out.Fingerprint != "" {
			fmt.Printf("%s %s\n", color.Dim("fingerprint:"), out.Fingerprint)
		}
		for _, r := range out.Results {
			if r.Matched {
				fmt.Printf("%s -> %s\n", r.Observed, color.Success(r.Watched))
			} else {
				fmt.Printf("%s -> %s\n", r.Observed, color.Warning("no match"))
			}
		}
		return nil
	},
}

func readAgentConfiguration(path string) (*model.AgentConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	var cfg model.AgentConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return &cfg, nil
}

func init() {
	matchCmd.Flags().StringArrayVarP(&matchWatchedPaths, "watched-path", "w", nil, "watched path (repeatable)")
	matchCmd.Flags().StringVarP(&matchConfigFile, "config-file", "f", "", "agent configuration document (JSON)")
	rootCmd.AddCommand(matchCmd)
}
