package out

import (
	"context"

	"medtrack/internal/modules/notify/domain"
)

type PermissionStore interface {
	Load(ctx context.Context) (domain.Permission, error)
	Save(ctx context.Context, permission domain.Permission) error
}

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Host talks to notifier plugin processes.
type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Deliver(ctx context.Context, manifest domain.Manifest, notification domain.Notification) error
}

// Sink shows a notification in-process, without a plugin.
type Sink interface {
	Deliver(ctx context.Context, notification domain.Notification) error
}

type Prompter interface {
	Confirm(ctx context.Context, message string) bool
}
