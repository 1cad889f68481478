// Package elevenlabs provides a client for the ElevenLabs conversational AI
// API: starting outbound phone calls and fetching conversation transcripts.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the conversational AI operations used by the call agents.
type Client interface {
	// StartOutboundCall places a phone call driven by the given agent and
	// returns the conversation id tracking it.
	StartOutboundCall(ctx context.Context, agentID, toNumber string) (*OutboundCallResponse, error)
	// GetConversation fetches the current state and transcript of a
	// conversation.
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
}

// OutboundCallResponse is the parsed outbound-call API response.
type OutboundCallResponse struct {
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

// Conversation is the parsed conversation-state API response.
type Conversation struct {
	ConversationID string            `json:"conversation_id"`
	Status         string            `json:"status"`
	Transcript     []TranscriptEntry `json:"transcript"`
}

// TranscriptEntry is one turn of a conversation transcript.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Done reports whether the conversation reached a terminal state.
func (c *Conversation) Done() bool {
	return c.Status == "done" || c.Status == "failed"
}

// Failed reports whether the conversation ended unsuccessfully.
func (c *Conversation) Failed() bool {
	return c.Status == "failed"
}

// Option configures the ElevenLabs client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPhoneNumberID sets the agent phone number id used for outbound calls.
func WithPhoneNumberID(id string) Option {
	return func(c *httpClient) {
		c.phoneNumberID = id
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	phoneNumberID string
	http          *http.Client
}

// NewClient creates a new ElevenLabs conversational AI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.elevenlabs.io",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). The request body, if any, is
// re-sent on each attempt.
func (c *httpClient) retryDo(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, 0, eris.Wrap(err, "elevenlabs: create request")
		}
		req.Header.Set("xi-api-key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "elevenlabs: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("elevenlabs: status %d: %s", resp.StatusCode, string(respBody))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return respBody, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) StartOutboundCall(ctx context.Context, agentID, toNumber string) (*OutboundCallResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"agent_id":              agentID,
		"agent_phone_number_id": c.phoneNumberID,
		"to_number":             toNumber,
	})
	if err != nil {
		return nil, eris.Wrap(err, "elevenlabs: marshal request")
	}

	body, statusCode, err := c.retryDo(ctx, http.MethodPost, c.baseURL+"/v1/convai/twilio/outbound-call", payload)
	if err != nil {
		return nil, eris.Wrap(err, "elevenlabs: outbound call failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("elevenlabs: unexpected status %d: %s", statusCode, string(body))
	}

	var result OutboundCallResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "elevenlabs: unmarshal response")
	}
	if result.ConversationID == "" {
		return nil, eris.New("elevenlabs: outbound call returned no conversation id")
	}
	return &result, nil
}

func (c *httpClient) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	body, statusCode, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/v1/convai/conversations/"+conversationID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "elevenlabs: get conversation failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("elevenlabs: unexpected status %d: %s", statusCode, string(body))
	}

	var result Conversation
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "elevenlabs: unmarshal response")
	}
	return &result, nil
}
