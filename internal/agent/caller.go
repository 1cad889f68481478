// Package agent drives supplier phone calls end to end: place the call,
// persist the transcript, and feed it through extraction and reconciliation.
package agent

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pharmalink/procure-cli/internal/model"
	"github.com/pharmalink/procure-cli/pkg/elevenlabs"
)

// CallResult is the outcome of one completed supplier call.
type CallResult struct {
	ConversationRef string
	Messages        []model.CallMessage
}

// Caller places one supplier phone call and waits for its transcript.
type Caller interface {
	PlaceCall(ctx context.Context, kind model.AgentKind, supplier model.Supplier) (*CallResult, error)
}

// PhoneCaller implements Caller over the ElevenLabs conversational API. Each
// agent kind maps to its own configured voice agent.
type PhoneCaller struct {
	client   elevenlabs.Client
	agentIDs map[model.AgentKind]string
	pollOpts []elevenlabs.PollOption
}

// NewPhoneCaller creates a caller over the given ElevenLabs client. agentIDs
// maps each agent kind to the voice agent driving that conversation type.
func NewPhoneCaller(client elevenlabs.Client, agentIDs map[model.AgentKind]string, pollOpts ...elevenlabs.PollOption) *PhoneCaller {
	return &PhoneCaller{client: client, agentIDs: agentIDs, pollOpts: pollOpts}
}

func (p *PhoneCaller) PlaceCall(ctx context.Context, kind model.AgentKind, supplier model.Supplier) (*CallResult, error) {
	agentID, ok := p.agentIDs[kind]
	if !ok || agentID == "" {
		return nil, eris.Errorf("agent: no voice agent configured for kind %q", kind)
	}
	if supplier.Phone == "" {
		return nil, eris.Errorf("agent: supplier %q has no phone number", supplier.Name)
	}

	call, err := p.client.StartOutboundCall(ctx, agentID, supplier.Phone)
	if err != nil {
		return nil, eris.Wrap(err, "starting outbound call")
	}

	conv, err := elevenlabs.PollConversation(ctx, p.client, call.ConversationID, p.pollOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "waiting for conversation")
	}
	if conv.Failed() {
		return nil, eris.Errorf("agent: conversation %s failed", call.ConversationID)
	}

	messages := make([]model.CallMessage, 0, len(conv.Transcript))
	for _, entry := range conv.Transcript {
		messages = append(messages, model.CallMessage{Role: entry.Role, Text: entry.Message})
	}
	return &CallResult{ConversationRef: call.ConversationID, Messages: messages}, nil
}
