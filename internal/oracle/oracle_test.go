package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/procure-cli/pkg/anthropic"
)

// stubClient returns a canned response and records the last request.
type stubClient struct {
	response string
	err      error
	lastReq  anthropic.MessageRequest
}

func (s *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.response}},
	}, nil
}

func TestExtractDeltas(t *testing.T) {
	client := &stubClient{response: `{"Paracétamol 500mg": {"price": 12.5}}`}
	ex := NewExtractor(client, "claude-haiku-4-5-20251001", 2048, 0)

	deltas, err := ex.ExtractDeltas(context.Background(), "transcript text", "Pharma Depot")
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, "Paracétamol 500mg", deltas[0].ProductName)
	assert.Equal(t, "Pharma Depot", deltas[0].SupplierName)

	// The transcript and supplier must both land in the prompt.
	require.Len(t, client.lastReq.Messages, 1)
	assert.Contains(t, client.lastReq.Messages[0].Content, "transcript text")
	assert.Contains(t, client.lastReq.Messages[0].Content, "Pharma Depot")
	assert.Equal(t, "claude-haiku-4-5-20251001", client.lastReq.Model)
}

func TestExtractDeltas_APIErrorPropagates(t *testing.T) {
	client := &stubClient{err: eris.New("rate limited")}
	ex := NewExtractor(client, "m", 1024, 0)

	_, err := ex.ExtractDeltas(context.Background(), "t", "s")
	require.Error(t, err)
}

func TestExtractDeltas_MalformedOutputIsEmptyNotError(t *testing.T) {
	client := &stubClient{response: "Sorry, I couldn't process that call."}
	ex := NewExtractor(client, "m", 1024, 0)

	deltas, err := ex.ExtractDeltas(context.Background(), "t", "s")
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestExtractOrderDeltas(t *testing.T) {
	client := &stubClient{response: `{"Ibuprofène 400mg": {"delay_days": 3}}`}
	ex := NewExtractor(client, "m", 1024, 0)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	deltas, err := ex.ExtractOrderDeltas(context.Background(), "t", "Pharma Depot", now)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, 3, *deltas[0].DelayDays)

	// Prompt carries the current date so relative delays can be grounded.
	assert.Contains(t, client.lastReq.Messages[0].Content, "2025-03-01")
}
