package in

import (
	"context"

	"pomotrack/internal/modules/notify/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Dispatch(ctx context.Context, input dto.EventInput) (dto.DispatchOutput, error)
}
