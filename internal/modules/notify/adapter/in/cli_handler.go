package in

import (
	"context"

	"medtrack/internal/modules/notify/dto"
	notifyin "medtrack/internal/modules/notify/port/in"
)

type CLIHandler struct {
	usecase notifyin.Usecase
}

func NewCLIHandler(usecase notifyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Enable(ctx context.Context) (dto.PermissionOutput, error) {
	return h.usecase.RequestPermission(ctx)
}

func (h CLIHandler) Disable(ctx context.Context) (dto.PermissionOutput, error) {
	return h.usecase.Revoke(ctx)
}

func (h CLIHandler) Test(ctx context.Context) (dto.ShowOutput, error) {
	return h.usecase.Test(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}
