package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

type batchEnvelope struct {
	AWSLogs *events.CloudwatchLogsRawData `json:"awslogs"`
	Data    string                        `json:"data"`
}

// extractData returns the encoded batch carried by body. Accepted forms are
// a CloudWatch Logs subscription event ({"awslogs":{"data":...}}), a
// {"data":...} object, a JSON string, or the bare base64 text.
func extractData(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", errclass.ErrDecode.WithMessage("empty request")
	}

	switch body[0] {
	case '{':
		var env batchEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return "", errclass.ErrDecode.WithMessage("malformed envelope").WithCause(err)
		}
		if env.AWSLogs != nil && env.AWSLogs.Data != "" {
			return env.AWSLogs.Data, nil
		}
		if env.Data != "" {
			return env.Data, nil
		}
		return "", errclass.ErrDecode.WithMessage("envelope has no data")
	case '"':
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return "", errclass.ErrDecode.WithMessage("malformed string").WithCause(err)
		}
		return s, nil
	default:
		return string(body), nil
	}
}

// readInput reads a file, or stdin for "-" or no argument.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(io.LimitReader(os.Stdin, compression.MaxDecompressedSize))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// readBatchDocument parses a decoded CloudWatch Logs batch document.
func readBatchDocument(data []byte) (*model.LogBatch, error) {
	var doc events.CloudwatchLogsData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse batch document: %w", err)
	}
	return processor.FromCloudWatch(doc), nil
}
