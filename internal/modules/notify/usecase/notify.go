package usecase

import (
	"context"
	"errors"

	"medtrack/internal/modules/notify/dto"
	notifyin "medtrack/internal/modules/notify/port/in"
	"medtrack/internal/modules/notify/service"
	apperrors "medtrack/internal/platform/errors"
)

const (
	testTitle = "medtrack test"
	testBody  = "Notifications are working."
	testTag   = "medtrack-test"
)

type Interactor struct {
	svc        *service.NotifyService
	directSink bool
}

func NewInteractor(svc *service.NotifyService, directSink bool) notifyin.Usecase {
	return &Interactor{svc: svc, directSink: directSink}
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	out := dto.StatusOutput{Available: true, DirectSink: i.directSink}
	permission, err := i.svc.Permission(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotificationUnavailable):
		out.Available = false
	case err != nil:
		return dto.StatusOutput{}, err
	}
	out.Permission = string(permission)
	notifiers, err := i.svc.List(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	out.Notifiers = notifiers
	return out, nil
}

func (i *Interactor) Permission(ctx context.Context) (string, error) {
	permission, err := i.svc.Permission(ctx)
	if err != nil {
		return "", err
	}
	return string(permission), nil
}

func (i *Interactor) RequestPermission(ctx context.Context) (dto.PermissionOutput, error) {
	return i.svc.RequestPermission(ctx)
}

func (i *Interactor) Revoke(ctx context.Context) (dto.PermissionOutput, error) {
	return i.svc.Revoke(ctx)
}

func (i *Interactor) Show(ctx context.Context, input dto.ShowInput) (dto.ShowOutput, error) {
	receipt, err := i.svc.Show(ctx, input.Title, input.Body, input.Tag)
	if err != nil {
		return dto.ShowOutput{}, err
	}
	return dto.ShowOutput{ID: receipt.NotificationID, Channel: receipt.Channel, Collapsed: receipt.Collapsed}, nil
}

func (i *Interactor) Test(ctx context.Context) (dto.ShowOutput, error) {
	return i.Show(ctx, dto.ShowInput{Title: testTitle, Body: testBody, Tag: testTag})
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) List(ctx context.Context) ([]dto.NotifierInfo, error) {
	return i.svc.List(ctx)
}
