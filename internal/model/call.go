package model

import "time"

// CallMessage is one turn of a supplier phone conversation.
type CallMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Transcript is the durable record of one completed supplier call.
type Transcript struct {
	ConversationRef string        `json:"conversation_id"`
	SupplierName    string        `json:"supplier_name"`
	AgentKind       AgentKind     `json:"agent_kind"`
	Timestamp       time.Time     `json:"timestamp"`
	Messages        []CallMessage `json:"messages"`
	TotalMessages   int           `json:"total_messages"`
}
