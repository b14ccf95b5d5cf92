package dto

import "time"

type PluginInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
	Events  []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type SessionInput struct {
	Start            time.Time
	End              time.Time
	DurationSeconds  int
	TimeSpentSeconds int
}

type EventInput struct {
	Kind            string
	At              time.Time
	TaskID          string
	DurationSeconds int
	Session         *SessionInput
}

type DispatchFailure struct {
	Name  string
	Error string
}

type DispatchOutput struct {
	Delivered []string
	Failed    []DispatchFailure
}
