package domain

import (
	"fmt"
	"regexp"
	"time"
)

type EventKind string

const (
	EventTimerCompleted  EventKind = "timer.completed"
	EventSessionRecorded EventKind = "session.recorded"
)

func (k EventKind) Validate() error {
	switch k {
	case EventTimerCompleted, EventSessionRecorded:
		return nil
	default:
		return fmt.Errorf("unknown event: %s", k)
	}
}

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Manifest struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Binary  string      `json:"binary"`
	SHA256  string      `json:"sha256"`
	Enabled bool        `json:"enabled"`
	Events  []EventKind `json:"events"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("plugin binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("plugin sha256 must be lowercase 64-char hex")
	}
	if len(m.Events) == 0 {
		return fmt.Errorf("plugin events are required")
	}
	seen := map[EventKind]struct{}{}
	for _, event := range m.Events {
		if err := event.Validate(); err != nil {
			return err
		}
		if _, ok := seen[event]; ok {
			return fmt.Errorf("duplicate event: %s", event)
		}
		seen[event] = struct{}{}
	}
	return nil
}

func (m Manifest) Subscribes(kind EventKind) bool {
	for _, event := range m.Events {
		if event == kind {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name    string
	Version string
	Events  []EventKind
}

type Session struct {
	Start            time.Time
	End              time.Time
	DurationSeconds  int
	TimeSpentSeconds int
}

type Event struct {
	Kind            EventKind
	At              time.Time
	TaskID          string
	DurationSeconds int
	Session         *Session
}
