package task

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/procure-cli/internal/model"
)

func newTestStore() *Store {
	s := NewStore()
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("task-%03d", n) }
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }
	return s
}

func TestLifecycle(t *testing.T) {
	s := newTestStore()

	created := s.Create(model.AgentKindProducts, "Pharma Depot")
	assert.Equal(t, model.TaskStatusPending, created.Status)
	assert.Nil(t, created.StartedAt)

	require.NoError(t, s.MarkRunning(created.ID))
	running, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusRunning, running.Status)
	require.NotNil(t, running.StartedAt)

	require.NoError(t, s.MarkCompleted(created.ID, "conv-1", 12))
	done, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.Equal(t, "conv-1", done.ConversationRef)
	assert.Equal(t, 12, done.MessageCount)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.After(*done.StartedAt))
}

func TestMarkCompleted_DuplicateIsNoop(t *testing.T) {
	s := newTestStore()
	created := s.Create(model.AgentKindDelivery, "MediSource")
	require.NoError(t, s.MarkRunning(created.ID))
	require.NoError(t, s.MarkCompleted(created.ID, "conv-1", 5))

	first, err := s.Get(created.ID)
	require.NoError(t, err)

	// A second completion signal must not move completed_at or overwrite the
	// conversation outcome.
	require.NoError(t, s.MarkCompleted(created.ID, "conv-other", 99))
	second, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarkFailed_AfterCompletedIsNoop(t *testing.T) {
	s := newTestStore()
	created := s.Create(model.AgentKindProducts, "Pharma Depot")
	require.NoError(t, s.MarkCompleted(created.ID, "conv-1", 3))

	require.NoError(t, s.MarkFailed(created.ID, "late failure signal"))
	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestMarkFailed(t *testing.T) {
	s := newTestStore()
	created := s.Create(model.AgentKindAvailability, "BioStock")
	require.NoError(t, s.MarkRunning(created.ID))
	require.NoError(t, s.MarkFailed(created.ID, "call timed out"))

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, got.Status)
	assert.Equal(t, "call timed out", got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestMarkRunning_TerminalIsNoop(t *testing.T) {
	s := newTestStore()
	created := s.Create(model.AgentKindProducts, "Pharma Depot")
	require.NoError(t, s.MarkFailed(created.ID, "boom"))

	require.NoError(t, s.MarkRunning(created.ID))
	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, got.Status)
	assert.Nil(t, got.StartedAt)
}

func TestUnknownID(t *testing.T) {
	s := newTestStore()
	_, err := s.Get("nope")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.True(t, eris.Is(s.MarkRunning("nope"), ErrNotFound))
	assert.True(t, eris.Is(s.MarkCompleted("nope", "c", 1), ErrNotFound))
	assert.True(t, eris.Is(s.MarkFailed("nope", "r"), ErrNotFound))
}

func TestList_InsertionOrder(t *testing.T) {
	s := newTestStore()
	for _, name := range []string{"A", "B", "C"} {
		s.Create(model.AgentKindProducts, name)
	}
	require.NoError(t, s.MarkCompleted(s.List()[1].ID, "conv-b", 2))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].SupplierName)
	assert.Equal(t, "B", list[1].SupplierName)
	assert.Equal(t, "C", list[2].SupplierName)
	assert.Equal(t, model.TaskStatusCompleted, list[1].Status)
}

func TestList_ReturnsSnapshots(t *testing.T) {
	s := newTestStore()
	created := s.Create(model.AgentKindProducts, "Pharma Depot")

	list := s.List()
	list[0].Status = model.TaskStatusFailed

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, got.Status)
}

func TestConcurrentTransitions(t *testing.T) {
	s := NewStore()
	created := s.Create(model.AgentKindProducts, "Pharma Depot")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.MarkCompleted(created.ID, "conv-1", 4))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.MarkFailed(created.ID, "raced"))
		}()
	}
	wg.Wait()

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Terminal())
	require.NotNil(t, got.CompletedAt)
}
