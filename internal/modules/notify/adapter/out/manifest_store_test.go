package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	notifyout "pomotrack/internal/modules/notify/adapter/out"
	"pomotrack/internal/modules/notify/domain"
)

func writeManifests(t *testing.T, base, raw string) {
	t.Helper()
	pluginsDir := filepath.Join(base, "plugins")
	if err := os.MkdirAll(pluginsDir, 0o755); err != nil {
		t.Fatalf("mkdir plugins: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginsDir, "plugins.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write plugins.json: %v", err)
	}
}

func TestFileManifestStoreLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	store := notifyout.NewFileManifestStore(t.TempDir())
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected empty manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[
  {
    "name": "notify-log",
    "version": "1.0.0",
    "binary": "plugins/notify-log/notify-log",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "events": ["timer.completed"]
  }
]`)
	manifests, err := notifyout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected one manifest, got %d", len(manifests))
	}
	if want := filepath.Join(base, "plugins", "notify-log", "notify-log"); manifests[0].Binary != want {
		t.Fatalf("expected %s, got %s", want, manifests[0].Binary)
	}
	if !manifests[0].Subscribes(domain.EventTimerCompleted) {
		t.Fatalf("expected timer.completed subscription")
	}
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[
  {
    "name": "notify-log",
    "version": "1.0.0",
    "binary": "/tmp/notify-log",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "events": ["timer.completed"],
    "capabilities": ["command"]
  }
]`)
	if _, err := notifyout.NewFileManifestStore(base).Load(context.Background()); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFileManifestStoreNormalizesAndChecksEvents(t *testing.T) {
	base := t.TempDir()
	t.Setenv("POMOTRACK_TEST_NOTIFIER_DIR", "/opt/notifiers")
	writeManifests(t, base, `[
  {"name": " bell ", "version": "1.0.0", "binary": "$POMOTRACK_TEST_NOTIFIER_DIR/bell",
   "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "enabled": true,
   "events": [" Timer.Completed", "session.recorded"]}
]`)
	manifests, err := notifyout.NewFileManifestStore(base).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	m := manifests[0]
	if m.Name != "bell" || m.Binary != "/opt/notifiers/bell" {
		t.Fatalf("expected trimmed name and expanded binary, got %q %q", m.Name, m.Binary)
	}
	if !m.Subscribes(domain.EventTimerCompleted) || !m.Subscribes(domain.EventSessionRecorded) {
		t.Fatalf("expected normalized events, got %v", m.Events)
	}
}

func TestFileManifestStoreRejectsUnknownEventAndDuplicateName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"unknown event": `[{"name":"bell","version":"1","binary":"/bin/bell","sha256":"","enabled":true,"events":["timer.started"]}]`,
		"duplicate name": `[{"name":"bell","version":"1","binary":"/bin/a","sha256":"","enabled":true,"events":["timer.completed"]},
 {"name":"bell","version":"2","binary":"/bin/b","sha256":"","enabled":false,"events":["timer.completed"]}]`,
	}
	for name, raw := range cases {
		base := t.TempDir()
		writeManifests(t, base, raw)
		if _, err := notifyout.NewFileManifestStore(base).Load(context.Background()); err == nil {
			t.Fatalf("%s: expected load error", name)
		}
	}
}
