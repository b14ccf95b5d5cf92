package out

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"pomotrack/internal/modules/notify/adapter/out/rpc"
	"pomotrack/internal/modules/notify/domain"
	notifyout "pomotrack/internal/modules/notify/port/out"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCHost launches one plugin process per call and kills it afterwards.
type GRPCHost struct {
	log hclog.Logger
}

func NewGRPCHost(log hclog.Logger) notifyout.Host {
	return &GRPCHost{log: logging.OrDiscard(log)}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, wrapCallErr(callCtx, "get metadata", manifest, err)
	}
	events := make([]domain.EventKind, 0, len(meta.Events))
	for _, event := range meta.Events {
		events = append(events, domain.EventKind(event))
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Events: events}, nil
}

func (h *GRPCHost) Notify(ctx context.Context, manifest domain.Manifest, event domain.Event) error {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx)
	defer cancel()
	resp, err := client.Notify(callCtx, toRequest(event))
	if err != nil {
		return wrapCallErr(callCtx, "notify", manifest, err)
	}
	if !resp.Accepted {
		return fmt.Errorf("plugin %s rejected %s: %s", manifest.Name, event.Kind, resp.Message)
	}
	return nil
}

func (h *GRPCHost) connect(manifest domain.Manifest) (rpc.NotifierClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  rpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          rpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           h.log.Named(manifest.Name),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start plugin client: %w", err)
	}
	raw, err := rpcClient.Dispense(rpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense plugin: %w", err)
	}
	typed, ok := raw.(rpc.NotifierClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("plugin rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func toRequest(event domain.Event) *rpc.NotifyRequest {
	req := &rpc.NotifyRequest{
		Event:           string(event.Kind),
		At:              event.At.UTC().Format(time.RFC3339),
		TaskID:          event.TaskID,
		DurationSeconds: int32(event.DurationSeconds),
	}
	if event.Session != nil {
		req.Session = &rpc.Session{
			Start:            event.Session.Start.UTC().Format(time.RFC3339),
			End:              event.Session.End.UTC().Format(time.RFC3339),
			DurationSeconds:  int32(event.Session.DurationSeconds),
			TimeSpentSeconds: int32(event.Session.TimeSpentSeconds),
		}
	}
	return req
}

func wrapCallErr(callCtx context.Context, op string, manifest domain.Manifest, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s", apperrors.ErrPluginTimeout, manifest.Name, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, defaultCallTimeout)
}
