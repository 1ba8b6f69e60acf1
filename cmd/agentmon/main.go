// Command agentmon derives operational metrics from file-monitoring agent logs.
package main

import "github.com/tetrascience/ts-agent-monitoring/internal/cli"

func main() {
	cli.Execute()
}
