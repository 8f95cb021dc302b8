package dto

import "time"

type NotifierInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
}

type StatusOutput struct {
	Permission string
	Available  bool
	DirectSink bool
	Notifiers  []NotifierInfo
}

type PermissionOutput struct {
	Permission   string
	Prompted     bool
	WelcomeShown bool
}

type ShowInput struct {
	Title string
	Body  string
	Tag   string
}

type ShowOutput struct {
	ID        string
	Channel   string
	Collapsed bool
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Channel         string
	Error           string
}

// Notification is what in-process sinks hand to a UI.
type Notification struct {
	ID    string
	Title string
	Body  string
	Tag   string
	At    time.Time
}
