package model

// EventKind is the dot-namespaced, versioned type of an agent event.
type EventKind string

const (
	KindScanCompleted              EventKind = "agents.filelog.scanCompleted.v1"
	KindFileUploadCompleted        EventKind = "agents.filelog.fileUploadCompleted.v1"
	KindHeartbeat                  EventKind = "agents.common.heartbeat.v1"
	KindPathValidationFailed       EventKind = "agents.filelog.pathValidationFailed.v1"
	KindScanError                  EventKind = "agents.filelog.scanError.v1"
	KindFileUploadFailed           EventKind = "agents.filelog.fileUploadFailed.v1"
	KindFileArchiveCompleted       EventKind = "agents.filelog.fileArchiveCompleted.v1"
	KindFileArchiveFailed          EventKind = "agents.filelog.fileArchiveFailed.v1"
	KindArchiveFileDeleteCompleted EventKind = "agents.filelog.archiveFileDeleteCompleted.v1"
	KindArchiveFileDeleteFailed    EventKind = "agents.filelog.archiveFileDeleteFailed.v1"
)

// CountedKinds are recognized kinds that only feed per-kind counters.
var CountedKinds = []EventKind{
	KindHeartbeat,
	KindPathValidationFailed,
	KindScanError,
	KindFileUploadFailed,
	KindFileArchiveCompleted,
	KindFileArchiveFailed,
	KindArchiveFileDeleteCompleted,
	KindArchiveFileDeleteFailed,
}

// IsCounted reports whether k is one of CountedKinds.
func IsCounted(k EventKind) bool {
	for _, c := range CountedKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Envelope holds the fields shared by every agent event.
type Envelope struct {
	Type          string `json:"type"`
	Timestamp     string `json:"timestamp"`
	ComponentID   string `json:"component_id,omitempty"`
	ComponentType string `json:"component_type,omitempty"`
}

// DomainEvent is a classified agent event. The concrete type is one of
// *ScanCompleted, *FileUploadCompleted, *CountedEvent or *UnrecognizedEvent.
type DomainEvent interface {
	Kind() EventKind
	Header() Envelope
}

// ScanCompleted reports that the agent finished scanning one watched path.
type ScanCompleted struct {
	Envelope
	Duration string `json:"duration"`
	Path     string `json:"path"`
}

func (e *ScanCompleted) Kind() EventKind  { return KindScanCompleted }
func (e *ScanCompleted) Header() Envelope { return e.Envelope }

// FileUploadCompleted reports a file that reached the platform.
type FileUploadCompleted struct {
	Envelope
	OSFilePath           string `json:"os_file_path,omitempty"`
	OSFolderPath         string `json:"os_folder_path,omitempty"`
	FileLastModifiedDate string `json:"file_last_modified_date"`
	FileCreateDate       string `json:"file_create_date"`
}

func (e *FileUploadCompleted) Kind() EventKind  { return KindFileUploadCompleted }
func (e *FileUploadCompleted) Header() Envelope { return e.Envelope }

// ObservedPath is the path used for watched-path matching.
func (e *FileUploadCompleted) ObservedPath() string {
	if e.OSFilePath != "" {
		return e.OSFilePath
	}
	return e.OSFolderPath
}

// CountedEvent is a recognized kind for which no metric value is derived.
type CountedEvent struct {
	Envelope
	Path string `json:"path,omitempty"`
}

func (e *CountedEvent) Kind() EventKind  { return EventKind(e.Type) }
func (e *CountedEvent) Header() Envelope { return e.Envelope }

// UnrecognizedEvent carries an envelope whose type is not known.
type UnrecognizedEvent struct {
	Envelope
}

func (e *UnrecognizedEvent) Kind() EventKind  { return EventKind(e.Type) }
func (e *UnrecognizedEvent) Header() Envelope { return e.Envelope }
