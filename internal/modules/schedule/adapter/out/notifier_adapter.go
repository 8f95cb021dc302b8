package out

import (
	"context"

	notifydto "medtrack/internal/modules/notify/dto"
	notifyin "medtrack/internal/modules/notify/port/in"
	"medtrack/internal/modules/schedule/domain"
	scheduleout "medtrack/internal/modules/schedule/port/out"
)

// NotifyAdapter hands due reminders to the notify module.
type NotifyAdapter struct {
	notify notifyin.Usecase
}

func NewNotifyAdapter(notify notifyin.Usecase) scheduleout.Notifier {
	return &NotifyAdapter{notify: notify}
}

func (a *NotifyAdapter) Permission(ctx context.Context) (domain.Permission, error) {
	permission, err := a.notify.Permission(ctx)
	if err != nil {
		return domain.PermissionDefault, err
	}
	switch domain.Permission(permission) {
	case domain.PermissionGranted, domain.PermissionDenied:
		return domain.Permission(permission), nil
	default:
		return domain.PermissionDefault, nil
	}
}

func (a *NotifyAdapter) Show(ctx context.Context, reminder domain.Reminder) error {
	_, err := a.notify.Show(ctx, notifydto.ShowInput{
		Title: reminder.Title,
		Body:  reminder.Body,
		Tag:   reminder.Tag,
	})
	return err
}
