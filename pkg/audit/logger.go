package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newtron-network/rgosc/pkg/util"
)

// Logger is an audit backend.
type Logger interface {
	Log(event *Event) error
	LogRun(events []*Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// FileLogger appends compile runs to a JSON-lines file. Rotation happens
// only between runs, so the events of one run always share a file.
type FileLogger struct {
	path     string
	file     *os.File
	mu       sync.RWMutex
	rotation RotationConfig
}

// RotationConfig configures log file rotation
type RotationConfig struct {
	MaxSize    int64 // rotate before a run that would grow the file past this
	MaxBackups int   // rotated files to keep
}

// backupLayout names rotated files; it sorts chronologically as text.
const backupLayout = "20060102-150405.000000000"

// NewFileLogger creates a new file-based audit logger
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}

	file, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileLogger{path: path, file: file, rotation: rotation}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// Log records a single event as a run of its own.
func (l *FileLogger) Log(event *Event) error {
	return l.LogRun([]*Event{event})
}

// LogRun writes the events of one rgosc invocation with a single append.
// Events without a Run ID get a shared one.
func (l *FileLogger) LogRun(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	run := generateID()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if e.Run == "" {
			e.Run = run
		}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding audit event %s: %w", e.ID, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotation.MaxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() > 0 &&
			info.Size()+int64(buf.Len()) > l.rotation.MaxSize {
			if err := l.rotate(); err != nil {
				return fmt.Errorf("rotating audit log: %w", err)
			}
		}
	}
	_, err := l.file.Write(buf.Bytes())
	return err
}

// Query searches the rotated files, oldest first, and then the live file.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := append(l.backups(), l.path)
	events := []*Event{}
	for _, path := range paths {
		err := readEvents(path, func(e *Event) {
			if filter.matches(e) {
				events = append(events, e)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if filter.NewestFirst {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.After(events[j].Timestamp)
		})
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(events) {
			events = events[:0]
		} else {
			events = events[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(events) {
		events = events[:filter.Limit]
	}
	return events, nil
}

// readEvents calls fn for each well-formed line of path. A missing file
// holds no events.
func readEvents(path string, fn func(*Event)) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			util.WithField("file", filepath.Base(path)).
				Warnf("audit: skipping malformed entry at line %d: %v", lineNum, err)
			continue
		}
		fn(&event)
	}
	return scanner.Err()
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (f Filter) matches(event *Event) bool {
	switch {
	case f.Run != "" && event.Run != f.Run,
		f.User != "" && event.User != f.User,
		f.File != "" && event.File != f.File,
		f.Hostname != "" && event.Hostname != f.Hostname,
		f.Command != "" && event.Command != f.Command,
		!f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime),
		!f.EndTime.IsZero() && event.Timestamp.After(f.EndTime),
		f.SuccessOnly && !event.Success,
		f.FailureOnly && event.Success,
		f.WithWarnings && !event.Warned():
		return false
	}
	return true
}

// backups lists rotated files, oldest first.
func (l *FileLogger) backups() []string {
	matches, err := filepath.Glob(l.path + ".*")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	rotated := l.path + "." + time.Now().Format(backupLayout)
	if err := os.Rename(l.path, rotated); err != nil {
		return err
	}
	file, err := openAppend(l.path)
	if err != nil {
		return err
	}
	l.file = file

	if l.rotation.MaxBackups > 0 {
		backups := l.backups()
		for len(backups) > l.rotation.MaxBackups {
			if err := os.Remove(backups[0]); err != nil {
				util.Warnf("audit: removing %s: %v", backups[0], err)
			}
			backups = backups[1:]
		}
	}
	return nil
}

// loggerHolder wraps a Logger so atomic.Value always stores the same concrete type.
type loggerHolder struct {
	logger Logger
}

var defaultLogger atomic.Value

// SetDefaultLogger sets the default audit logger
func SetDefaultLogger(logger Logger) {
	defaultLogger.Store(loggerHolder{logger: logger})
}

func getDefaultLogger() Logger {
	v := defaultLogger.Load()
	if v == nil {
		return nil
	}
	return v.(loggerHolder).logger
}

// Log logs an event using the default logger
func Log(event *Event) error {
	l := getDefaultLogger()
	if l == nil {
		return nil // No-op if no logger configured
	}
	return l.Log(event)
}

// Query queries events from the default logger
func Query(filter Filter) ([]*Event, error) {
	l := getDefaultLogger()
	if l == nil {
		return []*Event{}, nil
	}
	return l.Query(filter)
}
