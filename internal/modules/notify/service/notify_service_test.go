package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pomotrack/internal/modules/notify/domain"
	"pomotrack/internal/modules/notify/service"
	apperrors "pomotrack/internal/platform/errors"
)

type fakeStore struct {
	manifests []domain.Manifest
}

func (f fakeStore) Load(context.Context) ([]domain.Manifest, error) {
	return f.manifests, nil
}

type fakeHost struct {
	notified  []string
	failFor   string
	lifecycle error
}

func (f *fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return f.lifecycle }
func (f *fakeHost) GetMetadata(_ context.Context, m domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: m.Name, Version: m.Version}, nil
}
func (f *fakeHost) Notify(_ context.Context, m domain.Manifest, event domain.Event) error {
	if m.Name == f.failFor {
		return errors.New("boom")
	}
	f.notified = append(f.notified, m.Name+":"+string(event.Kind))
	return nil
}

func writeBinary(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, name)
	payload := []byte("binary-" + name)
	if err := os.WriteFile(path, payload, 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256(payload)
	return path, hex.EncodeToString(sum[:])
}

func manifest(name, binary, checksum string, enabled bool, events ...domain.EventKind) domain.Manifest {
	return domain.Manifest{Name: name, Version: "1.0.0", Binary: binary, SHA256: checksum, Enabled: enabled, Events: events}
}

func TestDispatchDeliversToEnabledSubscribers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	aPath, aSum := writeBinary(t, dir, "a")
	bPath, bSum := writeBinary(t, dir, "b")
	cPath, cSum := writeBinary(t, dir, "c")
	dPath, _ := writeBinary(t, dir, "d")
	ePath, eSum := writeBinary(t, dir, "e")

	host := &fakeHost{failFor: "e"}
	svc := service.NewNotifyService(fakeStore{manifests: []domain.Manifest{
		manifest("a", aPath, aSum, true, domain.EventTimerCompleted),
		manifest("b", bPath, bSum, false, domain.EventTimerCompleted),
		manifest("c", cPath, cSum, true, domain.EventSessionRecorded),
		manifest("d", dPath, strings.Repeat("0", 64), true, domain.EventTimerCompleted),
		manifest("e", ePath, eSum, true, domain.EventTimerCompleted),
	}}, host, time.Second, nil)

	out, err := svc.Dispatch(context.Background(), domain.Event{Kind: domain.EventTimerCompleted, At: time.Now()})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(out.Delivered) != 1 || out.Delivered[0] != "a" {
		t.Fatalf("expected delivery to a only, got %v", out.Delivered)
	}
	if len(out.Failed) != 2 {
		t.Fatalf("expected checksum and host failures, got %+v", out.Failed)
	}
	if out.Failed[0].Name != "d" || !strings.Contains(out.Failed[0].Error, apperrors.ErrChecksumMismatch.Error()) {
		t.Fatalf("expected checksum failure for d, got %+v", out.Failed[0])
	}
	if len(host.notified) != 1 || host.notified[0] != "a:timer.completed" {
		t.Fatalf("unexpected host calls %v", host.notified)
	}
}

func TestDispatchRejectsUnknownEvent(t *testing.T) {
	t.Parallel()
	svc := service.NewNotifyService(fakeStore{}, &fakeHost{}, 0, nil)
	if _, err := svc.Dispatch(context.Background(), domain.Event{Kind: "timer.started"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDoctorReportsChecksumAndLifecycle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	goodPath, goodSum := writeBinary(t, dir, "good")
	badPath, _ := writeBinary(t, dir, "bad")
	svc := service.NewNotifyService(fakeStore{manifests: []domain.Manifest{
		manifest("good", goodPath, goodSum, true, domain.EventTimerCompleted),
		manifest("bad", badPath, strings.Repeat("0", 64), true, domain.EventTimerCompleted),
		manifest("missing", filepath.Join(dir, "nope"), goodSum, true, domain.EventTimerCompleted),
		{Name: "invalid"},
	}}, &fakeHost{}, time.Second, nil)

	results, err := svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four results, got %d", len(results))
	}
	if !results[0].ChecksumValid || !results[0].LifecycleOK || results[0].Error != "" {
		t.Fatalf("expected healthy plugin, got %+v", results[0])
	}
	if results[1].ChecksumValid || results[1].Error != "checksum mismatch" {
		t.Fatalf("expected checksum mismatch, got %+v", results[1])
	}
	if results[2].BinaryReachable {
		t.Fatalf("expected unreachable binary, got %+v", results[2])
	}
	if results[3].Error == "" {
		t.Fatalf("expected validation error for invalid manifest")
	}
}

func TestListFailsOnInvalidManifest(t *testing.T) {
	t.Parallel()
	svc := service.NewNotifyService(fakeStore{manifests: []domain.Manifest{{Name: "x"}}}, nil, 0, nil)
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("expected invalid manifest error")
	}
}
