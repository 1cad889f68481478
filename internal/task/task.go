// Package task tracks the lifecycle of asynchronously launched supplier
// calls. Tasks move Pending -> Running -> Completed or Failed; terminal
// transitions are idempotent so duplicate completion signals from the call
// machinery are harmless.
package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/model"
)

// ErrNotFound marks a lookup for a task id the store has never issued.
var ErrNotFound = eris.New("task: not found")

// Store holds every task for the lifetime of the process. Tasks are never
// deleted; List returns them in insertion order.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*model.ConversationTask
	order []string

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty task store.
func NewStore() *Store {
	return &Store{
		tasks: make(map[string]*model.ConversationTask),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create registers a new pending task and returns a snapshot of it.
func (s *Store) Create(kind model.AgentKind, supplierName string) model.ConversationTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &model.ConversationTask{
		ID:           s.newID(),
		AgentKind:    kind,
		SupplierName: supplierName,
		Status:       model.TaskStatusPending,
		CreatedAt:    s.now(),
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	zap.L().Info("task created",
		zap.String("task_id", task.ID),
		zap.String("agent_kind", string(kind)),
		zap.String("supplier", supplierName),
	)
	return *task
}

// MarkRunning moves a pending task to running and stamps started_at. Calling
// it again, or on a terminal task, changes nothing.
func (s *Store) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return eris.Wrapf(ErrNotFound, "%q", id)
	}
	if task.Status != model.TaskStatusPending {
		return nil
	}
	now := s.now()
	task.Status = model.TaskStatusRunning
	task.StartedAt = &now
	return nil
}

// MarkCompleted moves a task to completed and records the conversation
// outcome. A task already in a terminal state is left untouched, so the first
// completion signal wins.
func (s *Store) MarkCompleted(id, conversationRef string, messageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return eris.Wrapf(ErrNotFound, "%q", id)
	}
	if task.Status.Terminal() {
		zap.L().Debug("ignoring duplicate terminal transition",
			zap.String("task_id", id),
			zap.String("status", string(task.Status)),
		)
		return nil
	}
	now := s.now()
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	task.ConversationRef = conversationRef
	task.MessageCount = messageCount
	zap.L().Info("task completed",
		zap.String("task_id", id),
		zap.String("conversation_ref", conversationRef),
		zap.Int("messages", messageCount),
	)
	return nil
}

// MarkFailed moves a task to failed with the given reason. No-op on a task
// already in a terminal state.
func (s *Store) MarkFailed(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return eris.Wrapf(ErrNotFound, "%q", id)
	}
	if task.Status.Terminal() {
		return nil
	}
	now := s.now()
	task.Status = model.TaskStatusFailed
	task.CompletedAt = &now
	task.Error = reason
	zap.L().Warn("task failed",
		zap.String("task_id", id),
		zap.String("reason", reason),
	)
	return nil
}

// Get returns a snapshot of one task.
func (s *Store) Get(id string) (model.ConversationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return model.ConversationTask{}, eris.Wrapf(ErrNotFound, "%q", id)
	}
	return *task, nil
}

// List returns snapshots of every task in insertion order.
func (s *Store) List() []model.ConversationTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ConversationTask, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}
