package out

import (
	"context"
	"sync"

	notifydto "pomotrack/internal/modules/notify/dto"
	notifyin "pomotrack/internal/modules/notify/port/in"
	"pomotrack/internal/modules/timer/domain"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

// NotifyBridge logs every timer event and forwards it to notifier plugins.
// In async mode plugin delivery runs in the background; Wait drains it.
type NotifyBridge struct {
	notify notifyin.Usecase
	log    hclog.Logger
	async  bool
	wg     sync.WaitGroup
}

func NewNotifyBridge(notify notifyin.Usecase, log hclog.Logger, async bool) *NotifyBridge {
	return &NotifyBridge{notify: notify, log: logging.OrDiscard(log), async: async}
}

func (b *NotifyBridge) Notify(ctx context.Context, event domain.Event) {
	b.log.Info("timer event", "event", string(event.Kind), "task", event.TaskID, "duration_s", event.Duration)
	if b.notify == nil {
		return
	}
	input := toEventInput(event)
	if !b.async {
		b.dispatch(ctx, input)
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.dispatch(context.WithoutCancel(ctx), input)
	}()
}

func (b *NotifyBridge) Wait() {
	b.wg.Wait()
}

func (b *NotifyBridge) dispatch(ctx context.Context, input notifydto.EventInput) {
	out, err := b.notify.Dispatch(ctx, input)
	if err != nil {
		b.log.Warn("notifier dispatch failed", "event", input.Kind, "error", err)
		return
	}
	for _, failure := range out.Failed {
		b.log.Warn("notifier plugin failed", "plugin", failure.Name, "event", input.Kind, "error", failure.Error)
	}
}

func toEventInput(event domain.Event) notifydto.EventInput {
	input := notifydto.EventInput{
		Kind:            string(event.Kind),
		At:              event.At,
		TaskID:          event.TaskID,
		DurationSeconds: event.Duration,
	}
	if event.Session != nil {
		input.Session = &notifydto.SessionInput{
			Start:            event.Session.Start,
			End:              event.Session.End,
			DurationSeconds:  event.Session.Duration,
			TimeSpentSeconds: event.Session.TimeSpent,
		}
	}
	return input
}
