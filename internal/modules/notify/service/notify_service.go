package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"medtrack/internal/modules/notify/domain"
	"medtrack/internal/modules/notify/dto"
	notifyout "medtrack/internal/modules/notify/port/out"
	"medtrack/internal/platform/clock"
	apperrors "medtrack/internal/platform/errors"
	"medtrack/internal/platform/id"
)

const (
	PermissionQuestion = "Allow medication reminders on this device?"
	WelcomeTitle       = "Notifications enabled"
	WelcomeBody        = "You will receive medication reminders."
	ChannelDirect      = "direct"
)

type Options struct {
	VaultPath string
	// CollapseWindow swallows a repeated tag shown within the window.
	CollapseWindow time.Duration
}

type NotifyService struct {
	clock     clock.Clock
	idGen     id.Generator
	perms     notifyout.PermissionStore
	manifests notifyout.ManifestStore
	host      notifyout.Host
	sink      notifyout.Sink
	prompter  notifyout.Prompter
	log       hclog.Logger
	opts      Options

	mu     sync.Mutex
	recent map[string]time.Time
}

func NewNotifyService(clock clock.Clock, idGen id.Generator, perms notifyout.PermissionStore, manifests notifyout.ManifestStore, host notifyout.Host, sink notifyout.Sink, prompter notifyout.Prompter, log hclog.Logger, opts Options) *NotifyService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &NotifyService{
		clock:     clock,
		idGen:     idGen,
		perms:     perms,
		manifests: manifests,
		host:      host,
		sink:      sink,
		prompter:  prompter,
		log:       log.Named("notify"),
		opts:      opts,
		recent:    map[string]time.Time{},
	}
}

func (s *NotifyService) available() bool {
	return s.sink != nil || (s.host != nil && s.manifests != nil)
}

func (s *NotifyService) Permission(ctx context.Context) (domain.Permission, error) {
	if !s.available() {
		return domain.PermissionDefault, apperrors.ErrNotificationUnavailable
	}
	return s.perms.Load(ctx)
}

// RequestPermission asks once. A stored grant is returned as is; otherwise
// the answer is stored and a grant is acknowledged with a welcome
// notification.
func (s *NotifyService) RequestPermission(ctx context.Context) (dto.PermissionOutput, error) {
	current, err := s.Permission(ctx)
	if err != nil {
		return dto.PermissionOutput{}, err
	}
	if current == domain.PermissionGranted {
		return dto.PermissionOutput{Permission: string(current)}, nil
	}
	answer := domain.PermissionDenied
	if s.prompter != nil && s.prompter.Confirm(ctx, PermissionQuestion) {
		answer = domain.PermissionGranted
	}
	if err := s.perms.Save(ctx, answer); err != nil {
		return dto.PermissionOutput{}, err
	}
	s.log.Info("notification permission stored", "permission", string(answer))
	out := dto.PermissionOutput{Permission: string(answer), Prompted: true}
	if answer == domain.PermissionGranted {
		if _, err := s.deliver(ctx, s.newNotification(WelcomeTitle, WelcomeBody, "welcome-"+s.idGen.New())); err != nil {
			s.log.Warn("welcome notification failed", "error", err)
		} else {
			out.WelcomeShown = true
		}
	}
	return out, nil
}

func (s *NotifyService) Revoke(ctx context.Context) (dto.PermissionOutput, error) {
	if err := s.perms.Save(ctx, domain.PermissionDenied); err != nil {
		return dto.PermissionOutput{}, err
	}
	s.log.Info("notification permission revoked")
	return dto.PermissionOutput{Permission: string(domain.PermissionDenied)}, nil
}

// Show delivers a notification when permission is granted. A tag shown
// within the collapse window is reported as collapsed and not delivered.
func (s *NotifyService) Show(ctx context.Context, title, body, tag string) (domain.Receipt, error) {
	permission, err := s.Permission(ctx)
	if err != nil {
		return domain.Receipt{}, err
	}
	if permission != domain.PermissionGranted {
		return domain.Receipt{}, fmt.Errorf("%w: %s", domain.ErrPermissionNotGranted, permission)
	}
	notification := s.newNotification(title, body, tag)
	if err := notification.Validate(); err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if s.collapse(tag, notification.CreatedAt) {
		s.log.Debug("notification collapsed", "tag", tag)
		return domain.Receipt{NotificationID: notification.ID, Collapsed: true}, nil
	}
	receipt, err := s.deliver(ctx, notification)
	if err != nil {
		s.forget(tag)
		return domain.Receipt{}, err
	}
	return receipt, nil
}

func (s *NotifyService) collapse(tag string, now time.Time) bool {
	if s.opts.CollapseWindow <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, at := range s.recent {
		if now.Sub(at) >= s.opts.CollapseWindow {
			delete(s.recent, t)
		}
	}
	if _, ok := s.recent[tag]; ok {
		return true
	}
	s.recent[tag] = now
	return false
}

func (s *NotifyService) forget(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recent, tag)
}

func (s *NotifyService) newNotification(title, body, tag string) domain.Notification {
	return domain.Notification{
		ID:        s.idGen.New(),
		Title:     title,
		Body:      body,
		Tag:       tag,
		CreatedAt: s.clock.Now(),
		VaultPath: s.opts.VaultPath,
	}
}

// deliver tries every enabled plugin in manifest order and falls back to the
// direct sink when none of them takes the notification.
func (s *NotifyService) deliver(ctx context.Context, notification domain.Notification) (domain.Receipt, error) {
	var failures []error
	if s.host != nil && s.manifests != nil {
		manifests, err := s.manifests.Load(ctx)
		if err != nil {
			failures = append(failures, err)
			s.log.Warn("load notifier manifests", "error", err)
		}
		for _, m := range manifests {
			if !m.Enabled {
				continue
			}
			if err := s.runnable(m); err != nil {
				failures = append(failures, err)
				s.log.Warn("notifier skipped", "notifier", m.Name, "error", err)
				continue
			}
			if err := s.host.Deliver(ctx, m, notification); err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", m.Name, err))
				s.log.Warn("notifier delivery failed", "notifier", m.Name, "error", err)
				continue
			}
			return domain.Receipt{NotificationID: notification.ID, Channel: m.Name}, nil
		}
	}
	if s.sink != nil {
		if err := s.sink.Deliver(ctx, notification); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", ChannelDirect, err))
		} else {
			return domain.Receipt{NotificationID: notification.ID, Channel: ChannelDirect}, nil
		}
	}
	if len(failures) == 0 {
		return domain.Receipt{}, apperrors.ErrNotificationUnavailable
	}
	return domain.Receipt{}, fmt.Errorf("%w: %w", domain.ErrNoChannel, errors.Join(failures...))
}

func (s *NotifyService) runnable(m domain.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !m.Enabled {
		return fmt.Errorf("%w: %s", domain.ErrNotifierDisabled, m.Name)
	}
	return checksumMatches(m.Binary, m.SHA256)
}

func (s *NotifyService) List(ctx context.Context) ([]dto.NotifierInfo, error) {
	if s.manifests == nil {
		return []dto.NotifierInfo{}, nil
	}
	manifests, err := s.manifests.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotifierInfo, 0, len(manifests))
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		out = append(out, dto.NotifierInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary})
	}
	return out, nil
}

func (s *NotifyService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	if s.manifests == nil {
		return []dto.DoctorResult{}, nil
	}
	manifests, err := s.manifests.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			meta, err := s.host.GetMetadata(ctx, m)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("%w: %s", domain.ErrNotifierTimeout, m.Name)
				}
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
				result.Channel = meta.Channel
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read notifier binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
