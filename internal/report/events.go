package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventImport    EventType = "import"
	EventUnchanged EventType = "unchanged"
	EventRead      EventType = "read"
	EventRollback  EventType = "rollback"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	l := EventLevel(s)
	if _, ok := levelPriority[l]; ok {
		return l
	}
	return LevelInfo
}

// Event is one line of the import event log
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Path      string            `json:"path,omitempty"`
	SongID    int64             `json:"song_id,omitempty"`
	Title     string            `json:"title,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Album     string            `json:"album,omitempty"`
	Count     int               `json:"count,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil logger discards
// everything, so callers never need to check.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates events-<timestamp>.jsonl in outputDir. Events
// below minLevel are dropped.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("events-%s.jsonl", time.Now().Format("20060102-150405"))
	path := filepath.Join(outputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogImport records a song written to the library
func (l *EventLogger) LogImport(path string, songID int64, title, artist, album string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventImport,
		Path:   path,
		SongID: songID,
		Title:  title,
		Artist: artist,
		Album:  album,
	})
}

// LogUnchanged records a file skipped because it predates the last import
func (l *EventLogger) LogUnchanged(path string, modified time.Time) error {
	return l.Log(&Event{
		Level: LevelDebug,
		Event: EventUnchanged,
		Path:  path,
		Extra: map[string]string{"modified": modified.Format(time.RFC3339)},
	})
}

// LogRead records a tag read. Files without tags are logged as warnings.
func (l *EventLogger) LogRead(path, codec string, tagged bool, err error) error {
	level := LevelDebug
	if !tagged {
		level = LevelWarning
	}
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventRead,
		Path:  path,
		Error: errMsg,
		Extra: map[string]string{
			"codec":  codec,
			"tagged": fmt.Sprintf("%t", tagged),
		},
	})
}

// LogRollback records a batch that failed to write and was rolled back
func (l *EventLogger) LogRollback(songs int, duration time.Duration, err error) error {
	return l.Log(&Event{
		Level:    LevelError,
		Event:    EventRollback,
		Count:    songs,
		Duration: duration.Milliseconds(),
		Error:    err.Error(),
	})
}

// LogError records an error not tied to a batch
func (l *EventLogger) LogError(path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: EventError,
		Path:  path,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
