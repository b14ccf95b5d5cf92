package usecase

import (
	"context"
	"fmt"

	"pomotrack/internal/modules/notify/domain"
	notifydto "pomotrack/internal/modules/notify/dto"
	notifyin "pomotrack/internal/modules/notify/port/in"
	"pomotrack/internal/modules/notify/service"
	apperrors "pomotrack/internal/platform/errors"
)

type Interactor struct {
	svc     *service.NotifyService
	enabled bool
}

// NewInteractor wires the service; with enabled false Dispatch delivers to
// nobody, while List and Doctor still inspect the manifests.
func NewInteractor(svc *service.NotifyService, enabled bool) notifyin.Usecase {
	return &Interactor{svc: svc, enabled: enabled}
}

func (i *Interactor) List(ctx context.Context) ([]notifydto.PluginInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]notifydto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Dispatch(ctx context.Context, input notifydto.EventInput) (notifydto.DispatchOutput, error) {
	if input.At.IsZero() {
		return notifydto.DispatchOutput{}, fmt.Errorf("%w: event time is required", apperrors.ErrInvalidInput)
	}
	if !i.enabled {
		return notifydto.DispatchOutput{}, nil
	}
	event := domain.Event{
		Kind:            domain.EventKind(input.Kind),
		At:              input.At,
		TaskID:          input.TaskID,
		DurationSeconds: input.DurationSeconds,
	}
	if input.Session != nil {
		event.Session = &domain.Session{
			Start:            input.Session.Start,
			End:              input.Session.End,
			DurationSeconds:  input.Session.DurationSeconds,
			TimeSpentSeconds: input.Session.TimeSpentSeconds,
		}
	}
	return i.svc.Dispatch(ctx, event)
}
