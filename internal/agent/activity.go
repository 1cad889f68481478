package agent

import (
	"fmt"
	"sort"
	"time"

	"github.com/pharmalink/procure-cli/internal/model"
)

// ActivityItem is one entry of the daily activity recap: either a live task
// or a historical transcript.
type ActivityItem struct {
	TaskID          string           `json:"task_id"`
	AgentKind       model.AgentKind  `json:"agent_kind"`
	SupplierName    string           `json:"supplier_name"`
	Status          model.TaskStatus `json:"status"`
	Description     string           `json:"description"`
	CreatedAt       time.Time        `json:"created_at"`
	ConversationRef string           `json:"conversation_ref,omitempty"`
	MessageCount    int              `json:"message_count"`
}

// ActivitySummary aggregates the recap window into headline numbers.
type ActivitySummary struct {
	ProductCalls       int `json:"product_calls"`
	DeliveryChecks     int `json:"delivery_checks"`
	AvailabilityChecks int `json:"availability_checks"`
	TimeSavedMinutes   int `json:"time_saved_minutes"`
	TotalCount         int `json:"total_count"`
}

// Recap merges live tasks with historical transcripts, newest first, capped
// at limit. A completed task whose transcript is already on disk shows up
// once, through the transcript.
func (r *Runner) Recap(limit int) ([]ActivityItem, error) {
	transcripts, err := r.transcripts.List()
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]bool, len(transcripts))
	for _, tr := range transcripts {
		onDisk[tr.ConversationRef] = true
	}

	items := make([]ActivityItem, 0, len(transcripts))
	for _, t := range r.tasks.List() {
		if t.Status == model.TaskStatusCompleted && t.ConversationRef != "" && onDisk[t.ConversationRef] {
			continue
		}
		items = append(items, ActivityItem{
			TaskID:          t.ID,
			AgentKind:       t.AgentKind,
			SupplierName:    t.SupplierName,
			Status:          t.Status,
			Description:     fmt.Sprintf(t.AgentKind.DescriptionFormat(), t.SupplierName),
			CreatedAt:       t.CreatedAt,
			ConversationRef: t.ConversationRef,
			MessageCount:    t.MessageCount,
		})
	}
	for _, tr := range transcripts {
		kind := tr.AgentKind
		if !kind.Valid() {
			kind = model.AgentKindProducts
		}
		items = append(items, ActivityItem{
			TaskID:          "transcript_" + tr.ConversationRef,
			AgentKind:       kind,
			SupplierName:    tr.SupplierName,
			Status:          model.TaskStatusCompleted,
			Description:     fmt.Sprintf(kind.DescriptionFormat(), tr.SupplierName),
			CreatedAt:       tr.Timestamp,
			ConversationRef: tr.ConversationRef,
			MessageCount:    tr.TotalMessages,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Summary counts the recap window by kind and estimates minutes saved by
// completed calls.
func (r *Runner) Summary(limit int) (*ActivitySummary, error) {
	items, err := r.Recap(limit)
	if err != nil {
		return nil, err
	}

	summary := &ActivitySummary{TotalCount: len(items)}
	for _, item := range items {
		switch item.AgentKind {
		case model.AgentKindProducts:
			summary.ProductCalls++
		case model.AgentKindDelivery:
			summary.DeliveryChecks++
		case model.AgentKindAvailability:
			summary.AvailabilityChecks++
		}
		if item.Status == model.TaskStatusCompleted {
			summary.TimeSavedMinutes += item.AgentKind.SavedMinutes()
		}
	}
	return summary, nil
}
