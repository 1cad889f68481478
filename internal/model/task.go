package model

import "time"

// TaskStatus represents the current state of a conversation task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// AgentKind identifies which calling agent drives a conversation. Closed set;
// dispatch goes through agentKindInfo rather than string comparison.
type AgentKind string

const (
	AgentKindProducts     AgentKind = "products"
	AgentKindDelivery     AgentKind = "delivery"
	AgentKindAvailability AgentKind = "availability"
)

type agentKindInfo struct {
	description string // recap description, %s is the supplier name
	savedMins   int    // estimated minutes saved per completed call
}

var agentKinds = map[AgentKind]agentKindInfo{
	AgentKindProducts:     {description: "Getting product information from %s", savedMins: 6},
	AgentKindDelivery:     {description: "Checking delivery status with %s", savedMins: 9},
	AgentKindAvailability: {description: "Checking product availability with %s", savedMins: 2},
}

// Valid reports whether k is a known agent kind.
func (k AgentKind) Valid() bool {
	_, ok := agentKinds[k]
	return ok
}

// DescriptionFormat returns the recap description template for the kind.
func (k AgentKind) DescriptionFormat() string {
	return agentKinds[k].description
}

// SavedMinutes returns the estimated minutes a completed call of this kind
// saves over doing it by hand.
func (k AgentKind) SavedMinutes() int {
	return agentKinds[k].savedMins
}

// ParseAgentKind validates a wire-level agent kind string.
func ParseAgentKind(s string) (AgentKind, bool) {
	k := AgentKind(s)
	return k, k.Valid()
}

// ConversationTask tracks one asynchronously launched call-and-reconcile
// operation. Owned exclusively by the task store; mutated only through its
// transition methods; never deleted.
type ConversationTask struct {
	ID              string     `json:"task_id"`
	AgentKind       AgentKind  `json:"agent_kind"`
	SupplierName    string     `json:"supplier_name"`
	Status          TaskStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ConversationRef string     `json:"conversation_ref,omitempty"`
	Error           string     `json:"error,omitempty"`
	MessageCount    int        `json:"message_count"`
}
