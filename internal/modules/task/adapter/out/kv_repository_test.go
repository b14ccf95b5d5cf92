package out_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	taskout "pomotrack/internal/modules/task/adapter/out"
	"pomotrack/internal/modules/task/domain"
	"pomotrack/internal/platform/kv"
)

type brokenStore struct {
	kv.Store
}

func (brokenStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("io error")
}

func TestLoadMigratesLegacyArrayAndPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	legacy := `[{"id":"a","title":"Old","description":"","dueDate":"2026-03-05T18:00","priority":"medium","status":"complete","createdAt":"2026-03-01T10:00:00.000Z"}]`
	if err := store.Save(ctx, "tasks", []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := taskout.NewKVTaskRepository(store, nil)
	tasks, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 || tasks[0].CompletedAt == nil || tasks[0].Sessions == nil {
		t.Fatalf("expected migrated task, got %+v", tasks)
	}
	payload, _, _ := store.Load(ctx, "tasks")
	if !strings.HasPrefix(string(payload), `{"version":2,`) {
		t.Fatalf("migration should be persisted once, got %s", payload)
	}
}

func TestLoadFallsBackToEmptyAndPreservesPayload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Save(ctx, "tasks", []byte(`{not json`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks, err := taskout.NewKVTaskRepository(store, nil).Load(ctx)
	if err != nil {
		t.Fatalf("load must not fail on bad data: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty fallback, got %d", len(tasks))
	}
	kept, ok, _ := store.Load(ctx, "tasks.unreadable")
	if !ok || string(kept) != `{not json` {
		t.Fatalf("expected unreadable payload preserved, got %q", kept)
	}

	tasks, err = taskout.NewKVTaskRepository(brokenStore{}, nil).Load(ctx)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("read failure should fall back to empty, got %v %v", tasks, err)
	}
}

func TestLoadRepairsRecordsInsteadOfErasingThem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	legacy := `[{"id":"a","title":"Kept","dueDate":"2026-03-05T18:00","priority":"medium","status":"incomplete","createdAt":"2026-03-01T10:00:00Z"},
{"id":"b","title":"No due","dueDate":"","priority":"high","status":"incomplete","createdAt":"2026-03-01T10:00:00Z",
 "sessions":[{"startTime":"2026-03-01T11:00:00Z","endTime":"2026-03-01T11:50:00Z","duration":3000}]}]`
	if err := store.Save(ctx, "tasks", []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks, err := taskout.NewKVTaskRepository(store, nil).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected both tasks loaded, got %d", len(tasks))
	}
	stored, _, _ := store.Load(ctx, "tasks")
	if !strings.Contains(string(stored), `"id":"b"`) || !strings.Contains(string(stored), `"timeSpent":3000`) {
		t.Fatalf("repaired task and its sessions must be persisted, got %s", stored)
	}
	if _, ok, _ := store.Load(ctx, "tasks.dropped"); ok {
		t.Fatalf("nothing was lost, so no copy should be written")
	}
}

func TestLoadPreservesPayloadBeforeDroppingRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	legacy := `[{"id":"a","title":"First","dueDate":"2026-03-05T18:00","priority":"medium","status":"incomplete","createdAt":"2026-03-01T10:00:00Z"},
{"id":"a","title":"Same id","dueDate":"2026-03-06T18:00","priority":"low","status":"incomplete","createdAt":"2026-03-01T10:00:00Z",
 "sessions":[{"startTime":"2026-03-01T11:00:00Z","endTime":"2026-03-01T11:50:00Z","duration":3000}]}]`
	if err := store.Save(ctx, "tasks", []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks, err := taskout.NewKVTaskRepository(store, nil).Load(ctx)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("expected one task after dropping the duplicate, got %d %v", len(tasks), err)
	}
	kept, ok, _ := store.Load(ctx, "tasks.dropped")
	if !ok || string(kept) != legacy {
		t.Fatalf("original payload must be preserved before rewrite, got %q", kept)
	}
}

type failingSideStore struct {
	*kv.MemoryStore
}

func (s failingSideStore) Save(ctx context.Context, key string, value []byte) error {
	if key == "tasks.dropped" {
		return errors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, key, value)
}

func TestLoadLeavesPayloadWhenPreservationFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := failingSideStore{kv.NewMemoryStore()}
	legacy := `[{"id":"","title":"No id","dueDate":"2026-03-05T18:00","priority":"medium","status":"incomplete","createdAt":"2026-03-01T10:00:00Z"}]`
	if err := store.Save(ctx, "tasks", []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := taskout.NewKVTaskRepository(store, nil).Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	stored, _, _ := store.Load(ctx, "tasks")
	if string(stored) != legacy {
		t.Fatalf("payload must stay untouched when it cannot be copied aside, got %s", stored)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task, err := domain.NewTask("a", "Focus", "notes", now.Add(time.Hour), domain.PriorityHigh, now)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	task, _ = domain.RecordSession(task, now, now.Add(25*time.Minute))
	repo := taskout.NewKVTaskRepository(kv.NewMemoryStore(), nil)
	if err := repo.Save(ctx, []domain.Task{task}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].TimeSpent != 1500 || !loaded[0].Sessions[0].EndTime.Equal(now.Add(25*time.Minute)) {
		t.Fatalf("unexpected round trip %+v", loaded)
	}
}
