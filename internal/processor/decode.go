package processor

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// DecodeBatch decodes the data field of a CloudWatch Logs subscription
// delivery: base64, then gzip, then the JSON batch document.
func DecodeBatch(data string) (*model.LogBatch, error) {
	raw, err := compression.DecodePayload(data)
	if err != nil {
		return nil, errclass.ErrDecode.WithMessage("undecodable payload").WithCause(err)
	}

	var doc events.CloudwatchLogsData
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errclass.ErrDecode.WithMessage("batch is not JSON").WithCause(err)
	}
	return FromCloudWatch(doc), nil
}

// FromCloudWatch converts a decoded CloudWatch Logs document to a batch.
func FromCloudWatch(doc events.CloudwatchLogsData) *model.LogBatch {
	batch := &model.LogBatch{
		Source:      doc.LogGroup,
		Stream:      doc.LogStream,
		MessageType: doc.MessageType,
		Lines:       make([]model.LogLine, 0, len(doc.LogEvents)),
	}
	for _, e := range doc.LogEvents {
		batch.Lines = append(batch.Lines, model.LogLine{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Message:   e.Message,
		})
	}
	return batch
}

// EncodeBatch is the inverse of DecodeBatch. It is used to build payloads
// for local runs.
func EncodeBatch(batch *model.LogBatch, c *compression.Compressor) (string, error) {
	doc := events.CloudwatchLogsData{
		LogGroup:    batch.Source,
		LogStream:   batch.Stream,
		MessageType: batch.MessageType,
		LogEvents:   make([]events.CloudwatchLogsLogEvent, 0, len(batch.Lines)),
	}
	if doc.MessageType == "" {
		doc.MessageType = "DATA_MESSAGE"
	}
	for _, l := range batch.Lines {
		doc.LogEvents = append(doc.LogEvents, events.CloudwatchLogsLogEvent{
			ID:        l.ID,
			Timestamp: l.Timestamp,
			Message:   l.Message,
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return c.EncodePayload(raw)
}
