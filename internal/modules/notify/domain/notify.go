package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrPermissionNotGranted = errors.New("notification permission not granted")
	ErrNotifierDisabled     = errors.New("notifier is disabled")
	ErrChecksumMismatch     = errors.New("notifier checksum mismatch")
	ErrNotifierTimeout      = errors.New("notifier timeout")
	ErrNoChannel            = errors.New("no notification channel delivered")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return p, nil
	case "":
		return PermissionDefault, nil
	default:
		return "", fmt.Errorf("unknown permission state %q", s)
	}
}

// Manifest declares a notifier plugin process. The binary is verified
// against SHA256 before every launch.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Binary  string `json:"binary"`
	SHA256  string `json:"sha256"`
	Enabled bool   `json:"enabled"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("notifier name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("notifier version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("notifier binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("notifier sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Metadata struct {
	Name    string
	Version string
	Channel string
}

type Notification struct {
	ID        string
	Title     string
	Body      string
	Tag       string
	CreatedAt time.Time
	VaultPath string
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("notification title is required")
	}
	if strings.TrimSpace(n.Tag) == "" {
		return fmt.Errorf("notification tag is required")
	}
	return nil
}

// Receipt tells which channel took the notification. Collapsed notifications
// were swallowed because the same tag was shown moments ago.
type Receipt struct {
	NotificationID string
	Channel        string
	Collapsed      bool
}
