package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/model"
	"github.com/pharmalink/procure-cli/internal/reconcile"
	"github.com/pharmalink/procure-cli/internal/task"
	"github.com/pharmalink/procure-cli/internal/transcript"
)

// Extractor turns transcript text into catalog deltas.
type Extractor interface {
	ExtractDeltas(ctx context.Context, transcriptText, supplierName string) ([]model.DeltaRecord, error)
	ExtractOrderDeltas(ctx context.Context, transcriptText, supplierName string, now time.Time) ([]model.OrderDelta, error)
}

// ReconcileSummary reports what one transcript reconciliation did.
type ReconcileSummary struct {
	Results           []model.ReconciliationResult `json:"results"`
	Applied           int                          `json:"applied"`
	Failed            int                          `json:"failed"`
	Inserted          int                          `json:"inserted"`
	OrdersUpdated     int                          `json:"orders_updated"`
	AlreadyReconciled bool                         `json:"already_reconciled,omitempty"`
}

// Runner launches call-and-reconcile tasks. Start returns as soon as the task
// is registered; a worker goroutine does the rest. The transcript is durably
// saved before the task is marked completed, and a reconciliation failure
// after that point never reverts the task's status.
type Runner struct {
	catalog     *catalog.Store
	tasks       *task.Store
	transcripts *transcript.Store
	caller      Caller
	extractor   Extractor
	engine      *reconcile.Engine

	wg  sync.WaitGroup
	now func() time.Time
}

// NewRunner wires a runner over its collaborators.
func NewRunner(
	cat *catalog.Store,
	tasks *task.Store,
	transcripts *transcript.Store,
	caller Caller,
	extractor Extractor,
	engine *reconcile.Engine,
) *Runner {
	return &Runner{
		catalog:     cat,
		tasks:       tasks,
		transcripts: transcripts,
		caller:      caller,
		extractor:   extractor,
		engine:      engine,
		now:         time.Now,
	}
}

// Tasks exposes the underlying task store.
func (r *Runner) Tasks() *task.Store { return r.tasks }

// Transcripts exposes the underlying transcript store.
func (r *Runner) Transcripts() *transcript.Store { return r.transcripts }

// Start registers a new task and launches its worker. The returned snapshot
// is still pending; poll the task store for progress.
func (r *Runner) Start(ctx context.Context, kind model.AgentKind, supplierName string) (model.ConversationTask, error) {
	if !kind.Valid() {
		return model.ConversationTask{}, eris.Errorf("agent: unknown agent kind %q", kind)
	}
	created := r.tasks.Create(kind, supplierName)

	// The worker outlives the request that launched it.
	workerCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(workerCtx, created.ID, kind, supplierName)
	}()
	return created, nil
}

// Wait blocks until every launched worker has finished.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(ctx context.Context, taskID string, kind model.AgentKind, supplierName string) {
	if err := r.tasks.MarkRunning(taskID); err != nil {
		zap.L().Error("marking task running", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	supplier, err := r.resolveSupplier(supplierName)
	if err != nil {
		r.fail(taskID, err)
		return
	}

	result, err := r.caller.PlaceCall(ctx, kind, supplier)
	if err != nil {
		r.fail(taskID, err)
		return
	}

	tr := model.Transcript{
		ConversationRef: result.ConversationRef,
		SupplierName:    supplier.Name,
		AgentKind:       kind,
		Timestamp:       r.now(),
		Messages:        result.Messages,
	}
	if err := r.transcripts.Save(tr); err != nil {
		r.fail(taskID, err)
		return
	}

	if err := r.tasks.MarkCompleted(taskID, result.ConversationRef, len(result.Messages)); err != nil {
		zap.L().Error("marking task completed", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	// The call itself succeeded and its transcript is on disk. From here on,
	// extraction or persistence trouble is logged but the task stays
	// completed; the saved transcript can be reconciled again later.
	if !r.transcripts.TryMarkReconciled(taskID) {
		return
	}
	if _, err := r.ReconcileText(ctx, kind, transcript.FormatText(tr), supplier.Name); err != nil {
		zap.L().Error("reconciling transcript",
			zap.String("task_id", taskID),
			zap.String("conversation_ref", result.ConversationRef),
			zap.Error(err),
		)
	}
}

func (r *Runner) fail(taskID string, err error) {
	zap.L().Warn("call task failed", zap.String("task_id", taskID), zap.Error(err))
	if markErr := r.tasks.MarkFailed(taskID, err.Error()); markErr != nil {
		zap.L().Error("marking task failed", zap.String("task_id", taskID), zap.Error(markErr))
	}
}

// resolveSupplier matches a supplier by normalized name, first row winning on
// duplicates.
func (r *Runner) resolveSupplier(name string) (model.Supplier, error) {
	suppliers, err := r.catalog.Suppliers()
	if err != nil {
		return model.Supplier{}, err
	}
	key := model.NameKey(name)
	for _, s := range suppliers {
		if model.NameKey(s.Name) == key {
			return s, nil
		}
	}
	return model.Supplier{}, eris.Errorf("agent: unknown supplier %q", name)
}

// ReconcileTask reconciles a completed task's saved transcript. A task whose
// transcript was already reconciled is a no-op reported in the summary.
func (r *Runner) ReconcileTask(ctx context.Context, taskID string) (*ReconcileSummary, error) {
	t, err := r.tasks.Get(taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TaskStatusCompleted {
		return nil, eris.Errorf("agent: task %s is %s, not completed", taskID, t.Status)
	}
	if !r.transcripts.TryMarkReconciled(taskID) {
		return &ReconcileSummary{AlreadyReconciled: true}, nil
	}

	tr, err := r.transcripts.Load(t.ConversationRef)
	if err != nil {
		return nil, err
	}
	return r.ReconcileText(ctx, t.AgentKind, transcript.FormatText(tr), tr.SupplierName)
}

// ReconcileText extracts deltas from raw transcript text and applies them.
// Delivery calls update order arrival estimates; every other kind updates the
// offer table.
func (r *Runner) ReconcileText(ctx context.Context, kind model.AgentKind, transcriptText, supplierName string) (*ReconcileSummary, error) {
	if kind == model.AgentKindDelivery {
		deltas, err := r.extractor.ExtractOrderDeltas(ctx, transcriptText, supplierName, r.now())
		if err != nil {
			return nil, err
		}
		results, err := reconcile.ReconcileOrders(r.catalog, deltas)
		if err != nil {
			return nil, err
		}
		summary := &ReconcileSummary{}
		for _, res := range results {
			if res.Err != nil {
				summary.Failed++
				continue
			}
			summary.Applied++
			summary.OrdersUpdated += res.OrdersUpdated
		}
		return summary, nil
	}

	deltas, err := r.extractor.ExtractDeltas(ctx, transcriptText, supplierName)
	if err != nil {
		return nil, err
	}
	results, err := r.engine.Reconcile(deltas)
	if err != nil {
		return nil, err
	}
	if err := r.engine.Commit(); err != nil {
		return nil, err
	}

	summary := &ReconcileSummary{Results: results}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			continue
		}
		summary.Applied++
		if res.Inserted {
			summary.Inserted++
		}
	}
	return summary, nil
}
