package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type setCall struct {
	key string
	ttl time.Duration
}

type fakeRedis struct {
	data   map[string]string
	sets   []setCall
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.sets = append(f.sets, setCall{key: key, ttl: expiration})
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStoreSaveUsesPrefixedKeyAndTTL(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	store, err := NewRedisStore(client, WithKeyPrefix("tenant"), WithTTL(1500*time.Millisecond),
		WithIDGenerator(func() string { return "abc" }))
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}

	if _, err := store.Create(context.Background(), "555", "biz", "Phone"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(client.sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(client.sets))
	}
	if client.sets[0].key != "tenant:abc" {
		t.Fatalf("key = %q, want tenant:abc", client.sets[0].key)
	}
	if client.sets[0].ttl != 2*time.Second {
		t.Fatalf("ttl = %v, want rounded up to 2s", client.sets[0].ttl)
	}
}

func TestRedisStoreRoundTripAcrossInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeRedis()
	writer, _ := NewRedisStore(client)
	reader, _ := NewRedisStore(client)

	sess, err := writer.Create(ctx, "555", "biz", "Phone")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sess.Stage = StageConfirmSlot
	start := time.Date(2025, 3, 4, 13, 0, 0, 0, time.UTC)
	sess.ProposedSlot = &TimeSlot{Start: start, End: start.Add(time.Hour)}
	if err := writer.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := reader.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ProposedSlot == nil || !got.ProposedSlot.Start.Equal(start) {
		t.Fatalf("ProposedSlot = %+v", got.ProposedSlot)
	}
}

func TestRedisStoreMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeRedis()
	store, _ := NewRedisStore(client)

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}

	client.data[defaultStoreKeyPrefix+":bad"] = "not-json"
	if _, err := store.Get(ctx, "bad"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Get(corrupt) error = %v", err)
	}

	client.getErr = errors.New("connection reset")
	if _, err := store.Get(ctx, "bad"); err == nil || errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Get() with transport failure error = %v", err)
	}
}

func TestRedisStoreSaveRejectsInvalidSessions(t *testing.T) {
	t.Parallel()

	store, _ := NewRedisStore(newFakeRedis())
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, ErrNilSessionState) {
		t.Fatalf("Save(nil) error = %v", err)
	}
	if err := store.Save(ctx, &Session{BusinessID: "biz", Stage: StageGreeting}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save(no id) error = %v", err)
	}
	bad := NewSession("x", "biz", "", "", time.Now())
	bad.ProposedSlot = &TimeSlot{Start: time.Now(), End: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, bad); !errors.Is(err, ErrSlotBeforeConfirm) {
		t.Fatalf("Save(slot at GREETING) error = %v", err)
	}
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("NewRedisStore(nil) expected error")
	}
}
