package in

import (
	"context"

	"medtrack/internal/modules/notify/dto"
)

type Usecase interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
	Permission(ctx context.Context) (string, error)
	RequestPermission(ctx context.Context) (dto.PermissionOutput, error)
	Revoke(ctx context.Context) (dto.PermissionOutput, error)
	Show(ctx context.Context, input dto.ShowInput) (dto.ShowOutput, error)
	Test(ctx context.Context) (dto.ShowOutput, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	List(ctx context.Context) ([]dto.NotifierInfo, error)
}
