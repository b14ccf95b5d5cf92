package in

import (
	"context"
	"time"

	notifydto "pomotrack/internal/modules/notify/dto"
	notifyin "pomotrack/internal/modules/notify/port/in"
)

type CLIHandler struct {
	usecase notifyin.Usecase
}

func NewCLIHandler(usecase notifyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]notifydto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]notifydto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

// Test sends a synthetic completion so a user can check their setup.
func (h CLIHandler) Test(ctx context.Context, event string, now time.Time) (notifydto.DispatchOutput, error) {
	return h.usecase.Dispatch(ctx, notifydto.EventInput{Kind: event, At: now})
}
