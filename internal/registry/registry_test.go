package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/store"
	"github.com/zjrosen/vscroll/internal/tracing"
)

type mockLoader struct{ mock.Mock }

func (m *mockLoader) Load(ctx context.Context, key string) (itemcache.Snapshot, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(itemcache.Snapshot), args.Error(1)
}

type mockSaver struct{ mock.Mock }

func (m *mockSaver) Save(ctx context.Context, snap itemcache.Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func nextEvent(t *testing.T, ch <-chan pubsub.Event[Event]) pubsub.Event[Event] {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for registry event")
		return pubsub.Event[Event]{}
	}
}

func TestGetOrCreate_ReturnsSameCache(t *testing.T) {
	r := New(WithEstimatedItemHeight(24))

	a := r.GetOrCreate("inbox")
	b := r.GetOrCreate("inbox")
	require.Same(t, a, b)
	require.Equal(t, "inbox", a.Key())
	require.Equal(t, 24.0, a.EstimatedItemHeight())

	require.NotSame(t, a, r.GetOrCreate("archive"))
	require.Equal(t, []string{"archive", "inbox"}, r.Keys())
}

func TestLookup_DoesNotCreate(t *testing.T) {
	r := New()
	_, ok := r.Lookup("inbox")
	require.False(t, ok)
	require.Empty(t, r.Keys())
}

func TestDiscard(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := r.Subscribe(ctx)

	first := r.GetOrCreate("inbox")
	first.SetScrollPosition(420)
	require.Equal(t, pubsub.CreatedEvent, nextEvent(t, events).Type)

	require.True(t, r.Discard("inbox"))
	ev := nextEvent(t, events)
	require.Equal(t, pubsub.DiscardedEvent, ev.Type)
	require.Equal(t, "inbox", ev.Payload.Key)
	require.Equal(t, 420.0, ev.Payload.ScrollPosition)

	require.False(t, r.Discard("inbox"))

	fresh := r.GetOrCreate("inbox")
	require.NotSame(t, first, fresh)
	require.Zero(t, fresh.ScrollPosition())
}

func TestNextKey_Sequence(t *testing.T) {
	r := New()
	require.Equal(t, "@@0", r.NextKey())
	require.Equal(t, "@@1", r.NextKey())
	require.Equal(t, "@@2", r.NextKey())
}

func TestGetOrCreate_RehydratesFromLoader(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, "inbox").Return(itemcache.Snapshot{
		Key:                 "inbox",
		ScrollPosition:      420,
		EstimatedItemHeight: 50,
		Items:               []itemcache.SnapshotItem{{Key: "a", Index: 0, Height: 30, Measured: true}},
	}, nil).Once()
	loader.On("Load", mock.Anything, "fresh").Return(itemcache.Snapshot{}, fmt.Errorf("wrapped: %w", store.ErrNotFound)).Once()
	loader.On("Load", mock.Anything, "broken").Return(itemcache.Snapshot{}, errors.New("disk on fire")).Once()

	r := New(WithLoader(loader))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := r.Subscribe(ctx)

	inbox := r.GetOrCreate("inbox")
	require.Equal(t, 420.0, inbox.ScrollPosition())
	require.Equal(t, 30.0, inbox.TotalHeight())
	require.Equal(t, pubsub.RehydratedEvent, nextEvent(t, events).Type)

	// Second reference hits the in-memory cache, not the loader.
	require.Same(t, inbox, r.GetOrCreate("inbox"))

	require.Zero(t, r.GetOrCreate("fresh").Len())
	require.Equal(t, pubsub.CreatedEvent, nextEvent(t, events).Type)

	require.Zero(t, r.GetOrCreate("broken").Len(), "load failures start fresh")
	require.Equal(t, pubsub.CreatedEvent, nextEvent(t, events).Type)

	loader.AssertExpectations(t)
}

func TestPersist(t *testing.T) {
	r := New()
	r.GetOrCreate("a").SetScrollPosition(10)
	r.GetOrCreate("b").SetScrollPosition(20)

	saver := &mockSaver{}
	saver.On("Save", mock.Anything, mock.MatchedBy(func(s itemcache.Snapshot) bool { return s.Key == "a" })).Return(nil)
	saver.On("Save", mock.Anything, mock.MatchedBy(func(s itemcache.Snapshot) bool { return s.Key == "b" })).Return(errors.New("readonly"))

	saved, err := r.Persist(context.Background(), saver)
	require.Equal(t, 1, saved)
	require.ErrorContains(t, err, `failed to persist cache "b"`)
	saver.AssertExpectations(t)
}

func TestPersist_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := New(WithTracer(tp.Tracer("test")))
	r.GetOrCreate("a")
	r.GetOrCreate("b")

	saver := &mockSaver{}
	saver.On("Save", mock.Anything, mock.MatchedBy(func(s itemcache.Snapshot) bool { return s.Key == "a" })).Return(nil)
	saver.On("Save", mock.Anything, mock.MatchedBy(func(s itemcache.Snapshot) bool { return s.Key == "b" })).Return(errors.New("disk full"))

	_, err := r.Persist(context.Background(), saver)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanPersist, spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Contains(t, spans[0].Attributes(), attribute.Int(tracing.AttrSavedCaches, 1))
}

func TestPersist_Empty(t *testing.T) {
	saved, err := New().Persist(context.Background(), &mockSaver{})
	require.NoError(t, err)
	require.Zero(t, saved)
}

func TestPersistAndRehydrate_WithStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "vscroll.db"))
	require.NoError(t, err)
	defer s.Close()

	r := New(WithLoader(s))
	c := r.GetOrCreate("inbox")
	c.Sync([]string{"a", "b"})
	c.SetItem("a", 0, 12, true)
	c.SetScrollPosition(7)

	saved, err := r.Persist(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, 1, saved)

	again := New(WithLoader(s)).GetOrCreate("inbox")
	require.Equal(t, 7.0, again.ScrollPosition())
	e, ok := again.GetItemByKey("a")
	require.True(t, ok)
	require.True(t, e.Measured)
	require.Equal(t, 12.0, e.Height)
}
