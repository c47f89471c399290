package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"skillforge/api/internal/catalog"
)

type memKV struct {
	data  map[string]json.RawMessage
	saves int
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]json.RawMessage)}
}

func (m *memKV) Load(_ context.Context, key string) json.RawMessage {
	return m.data[key]
}

func (m *memKV) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	m.data[key] = raw
	m.saves++
	return nil
}

func (m *memKV) Ping(context.Context) error { return nil }
func (m *memKV) Close() error               { return nil }

func newTestService(t *testing.T) (*Service, *memKV) {
	t.Helper()
	kv := newMemKV()
	svc := NewService(kv, catalog.New())
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc, kv
}

func testActor(key string) Actor {
	return Actor{Key: key, Name: "Asha Learner", Email: key, Subscription: "free"}
}

func TestServiceReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)
	actor := testActor("asha@example.com")

	svc.MarkCompleted(ctx, actor, "react-fundamentals")
	svc.StartMentorSession(ctx, actor.Key, StartMentorSessionInput{MentorID: "mentor-noor", Topic: "growth"})

	// A fresh service over the same KV sees everything the first one wrote.
	reloaded := NewService(kv, catalog.New())
	if got := len(reloaded.Completions(ctx, actor.Key)); got != 1 {
		t.Fatalf("completions after reload = %d, want 1", got)
	}
	if got := len(reloaded.MentorSessions(ctx, actor.Key)); got != 1 {
		t.Fatalf("mentor sessions after reload = %d, want 1", got)
	}
	if got := len(reloaded.Certificates(ctx, actor.Key)); got != 1 {
		t.Fatalf("certificates after reload = %d, want 1", got)
	}
}

func TestLegacyArrayBelongsToAnonymous(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[keyCompletions] = json.RawMessage(`[{"courseId":"react-fundamentals","completedAt":"2026-03-01T10:00:00Z"}]`)

	svc := NewService(kv, catalog.New())
	if got := len(svc.Completions(ctx, AnonymousKey)); got != 1 {
		t.Fatalf("anonymous completions = %d, want 1", got)
	}
	if got := len(svc.Completions(ctx, "asha@example.com")); got != 0 {
		t.Fatalf("signed-in completions = %d, want 0", got)
	}
}

func TestCorruptValueDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[keyCompletions] = json.RawMessage(`42`)

	svc := NewService(kv, catalog.New())
	if got := len(svc.Completions(ctx, AnonymousKey)); got != 0 {
		t.Fatalf("completions from corrupt value = %d, want 0", got)
	}
}
