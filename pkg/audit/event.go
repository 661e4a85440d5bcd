// Package audit keeps a JSON-lines history of compilations.
package audit

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/newtron-network/rgosc/pkg/warnings"
)

// Event records one compiled unit. Events written by one LogRun call share
// a Run ID.
type Event struct {
	ID        string                `json:"id"`
	Run       string                `json:"run,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
	User      string                `json:"user"`
	Command   Command               `json:"command"`
	File      string                `json:"file"`
	Hostname  string                `json:"hostname,omitempty"`
	Success   bool                  `json:"success"`
	Error     string                `json:"error,omitempty"`
	Warnings  map[warnings.Kind]int `json:"warnings,omitempty"`
	Published bool                  `json:"published,omitempty"`
	Duration  time.Duration         `json:"duration"`
}

// Command names the CLI action that produced an event.
type Command string

const (
	CommandCompile Command = "compile"
	CommandFetch   Command = "fetch"
)

// Filter defines criteria for querying events
type Filter struct {
	Run         string
	User        string
	File        string
	Hostname    string
	Command     Command
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	// WithWarnings keeps only events that raised a red flag or an
	// unimplemented note.
	WithWarnings bool
	NewestFirst  bool
	Limit        int
	Offset       int
}

// NewEvent creates an event stamped now.
func NewEvent(user string, cmd Command, file string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Command:   cmd,
		File:      file,
	}
}

// WithHostname sets the compiled hostname
func (e *Event) WithHostname(hostname string) *Event {
	e.Hostname = hostname
	return e
}

// WithWarnings copies the per-kind warning counts.
func (e *Event) WithWarnings(w *warnings.Warnings) *Event {
	if w == nil {
		return e
	}
	e.Warnings = w.Counts()
	return e
}

// WithPublished marks the event as written to the store
func (e *Event) WithPublished(published bool) *Event {
	e.Published = published
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the compile duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// Warned reports whether the unit raised any red flag or unimplemented note.
func (e *Event) Warned() bool {
	return e.Warnings[warnings.KindRedFlag] > 0 || e.Warnings[warnings.KindUnimplemented] > 0
}

var idSeq atomic.Uint64

func generateID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
