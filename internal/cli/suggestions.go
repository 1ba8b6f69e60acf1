package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
	"github.com/tetrascience/ts-agent-monitoring/pkg/config"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
)

// suggestFor returns a hint for a classified error, or "" when there is
// nothing useful to add.
func suggestFor(err error) string {
	switch {
	case errors.Is(err, errclass.ErrAuth):
		return fmt.Sprintf("Check the API token in %s or the secret named by %s.",
			color.Code(config.EnvAuthToken), color.Code(config.EnvAuthSecretARN))
	case errors.Is(err, errclass.ErrNotFound):
		return "The agent in the log group name is unknown to the platform; check the org slug and agent id."
	case errors.Is(err, errclass.ErrConfigInvalid):
		return fmt.Sprintf("Run %s to see the effective configuration.", color.Code("agentmon config show"))
	case errors.Is(err, errclass.ErrDecode):
		return fmt.Sprintf("Input must be a subscription event, {\"data\": ...} or base64 gzip; %s builds one.",
			color.Code("agentmon encode --event"))
	case errors.Is(err, errclass.ErrConfigurationUnavailable):
		return fmt.Sprintf("Use %s to process without the platform API.", color.Code("--watched-path"))
	default:
		return ""
	}
}

// formatError renders err with its hint, if any.
func formatError(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	if hint := suggestFor(err); hint != "" {
		sb.WriteString("\n")
		sb.WriteString(color.Dim("  " + hint))
	}
	return sb.String()
}
