package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"pomotrack/internal/modules/notify/domain"
	"pomotrack/internal/modules/notify/dto"
	notifyout "pomotrack/internal/modules/notify/port/out"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

const defaultTimeout = 5 * time.Second

type NotifyService struct {
	store   notifyout.ManifestStore
	host    notifyout.Host
	timeout time.Duration
	log     hclog.Logger
}

func NewNotifyService(store notifyout.ManifestStore, host notifyout.Host, timeout time.Duration, log hclog.Logger) *NotifyService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &NotifyService{store: store, host: host, timeout: timeout, log: logging.OrDiscard(log)}
}

func (s *NotifyService) List(ctx context.Context) ([]dto.PluginInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(manifests))
	for _, m := range manifests {
		events := make([]string, 0, len(m.Events))
		for _, e := range m.Events {
			events = append(events, string(e))
		}
		out = append(out, dto.PluginInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Events: events})
	}
	return out, nil
}

func (s *NotifyService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			err := s.host.CheckLifecycle(callCtx, m)
			cancel()
			if err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

// Dispatch delivers event to every enabled plugin subscribed to it. One
// plugin failing never stops delivery to the rest.
func (s *NotifyService) Dispatch(ctx context.Context, event domain.Event) (dto.DispatchOutput, error) {
	if err := event.Kind.Validate(); err != nil {
		return dto.DispatchOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return dto.DispatchOutput{}, err
	}
	out := dto.DispatchOutput{}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			s.log.Debug("skipping invalid notifier manifest", "plugin", m.Name, "error", err)
			continue
		}
		if !m.Enabled || !m.Subscribes(event.Kind) {
			continue
		}
		if err := s.deliver(ctx, m, event); err != nil {
			out.Failed = append(out.Failed, dto.DispatchFailure{Name: m.Name, Error: err.Error()})
			continue
		}
		out.Delivered = append(out.Delivered, m.Name)
	}
	return out, nil
}

func (s *NotifyService) deliver(ctx context.Context, m domain.Manifest, event domain.Event) error {
	if s.host == nil {
		return fmt.Errorf("notifier host is not configured")
	}
	if err := checksumMatches(m.Binary, m.SHA256); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.host.Notify(callCtx, m, event)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrPluginTimeout) {
		return fmt.Errorf("%w: %s", apperrors.ErrPluginTimeout, m.Name)
	}
	return err
}

func (s *NotifyService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid manifest %q: %w", m.Name, err)
		}
	}
	return manifests, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func checksumMatches(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open plugin binary: %w", err)
	}
	defer func() { _ = f.Close() }()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("hash plugin binary: %w", err)
	}
	if hex.EncodeToString(hash.Sum(nil)) != expected {
		return apperrors.ErrChecksumMismatch
	}
	return nil
}
