// Package event classifies raw agent log lines into typed domain events.
package event

import (
	"encoding/json"

	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

type logMessage struct {
	Event json.RawMessage `json:"event"`
}

type component struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type envelope struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Component component       `json:"component"`
	Data      json.RawMessage `json:"data"`
}

type scanCompletedData struct {
	Duration string `json:"duration"`
	Path     string `json:"path"`
}

type fileUploadCompletedData struct {
	OSFilePath           string `json:"osFilePath"`
	OSFolderPath         string `json:"osFolderPath"`
	FileLastModifiedDate string `json:"fileLastModifiedDate"`
	FileCreateDate       string `json:"fileCreateDate"`
}

type pathData struct {
	Path string `json:"path"`
}

// Classify parses one log message. It returns (nil, nil) for a message
// without an event envelope and an errclass.ErrLineParse error for a
// message that cannot be decoded.
func Classify(message string) (model.DomainEvent, error) {
	var msg logMessage
	if err := json.Unmarshal([]byte(message), &msg); err != nil {
		return nil, errclass.ErrLineParse.WithMessage("message is not JSON").WithCause(err)
	}
	if isAbsent(msg.Event) {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(msg.Event, &env); err != nil {
		return nil, errclass.ErrLineParse.WithMessage("malformed event envelope").WithCause(err)
	}

	header := model.Envelope{
		Type:          env.Type,
		Timestamp:     env.Timestamp,
		ComponentID:   env.Component.ID,
		ComponentType: env.Component.Type,
	}

	kind := model.EventKind(env.Type)
	switch {
	case kind == model.KindScanCompleted:
		var data scanCompletedData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, dataError(kind, err)
		}
		return &model.ScanCompleted{Envelope: header, Duration: data.Duration, Path: data.Path}, nil

	case kind == model.KindFileUploadCompleted:
		var data fileUploadCompletedData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, dataError(kind, err)
		}
		return &model.FileUploadCompleted{
			Envelope:             header,
			OSFilePath:           data.OSFilePath,
			OSFolderPath:         data.OSFolderPath,
			FileLastModifiedDate: data.FileLastModifiedDate,
			FileCreateDate:       data.FileCreateDate,
		}, nil

	case model.IsCounted(kind):
		var data pathData
		// Counted kinds only need the optional path; a data block of any
		// other shape is still counted.
		_ = decodeData(env.Data, &data)
		return &model.CountedEvent{Envelope: header, Path: data.Path}, nil

	default:
		return &model.UnrecognizedEvent{Envelope: header}, nil
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if isAbsent(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func dataError(kind model.EventKind, err error) error {
	return errclass.ErrLineParse.WithMessagef("malformed %s data", kind).WithCause(err)
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
