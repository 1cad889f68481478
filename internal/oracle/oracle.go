// Package oracle turns raw call transcripts into structured delta records via
// the Anthropic API. The model is treated as a black box: anything it returns
// that is not valid, in-bounds JSON degrades to an empty delta set rather
// than an error, since a useless transcript is normal (wrong number, voice
// mail, supplier had nothing new).
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pharmalink/procure-cli/internal/model"
	"github.com/pharmalink/procure-cli/pkg/anthropic"
)

const systemText = "You are an assistant specialized in analyzing phone conversations between a pharmacy buyer and its wholesale suppliers. You respond with strict JSON only, no additional text."

const deltaPrompt = `Analyze the following transcript of a conversation with the supplier %q.

Transcript:
%s

Extract ONLY the following for each product mentioned:
- The exact product name
- The new price (if mentioned)
- The new delivery time in days (if mentioned)

Important rules:
1. Extract ONLY information explicitly stated in the conversation
2. If a price or delivery time is not mentioned for a product, omit that field
3. Prices are decimal numbers (e.g. 12.50)
4. Delivery times are whole days between 1 and 14
5. Ignore stock levels, future availability, and anything else not asked for

STRICT response format (JSON):
{
    "product_name_1": {
        "price": 12.50,
        "delivery_time": 5
    },
    "product_name_2": {
        "price": 8.30
    }
}

If no relevant information is found, return an empty JSON object: {}

Respond ONLY with the JSON, no additional text.`

const orderPrompt = `Current date: %s

Analyze the following transcript of a conversation with the supplier %q about in-flight orders.

Transcript:
%s

Extract ONLY the following for each product or order mentioned:
- The exact product name
- The new estimated delivery date OR the delay in days

Important rules:
1. Extract ONLY information explicitly stated in the conversation
2. If no date or delay is mentioned for a product, omit it entirely
3. Dates use the YYYY-MM-DD format (e.g. 2025-12-20)
4. Delays are whole days: positive for late, negative for early

STRICT response format (JSON):
{
    "product_name_1": {
        "estimated_arrival": "2025-12-20"
    },
    "product_name_2": {
        "delay_days": 5
    }
}

If no relevant information is found, return an empty JSON object: {}

Respond ONLY with the JSON, no additional text.`

// Extractor runs transcript extraction against the Anthropic API.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// NewExtractor creates an extractor. requestsPerMinute bounds the call rate
// to the API; zero or negative disables limiting.
func NewExtractor(client anthropic.Client, modelID string, maxTokens int64, requestsPerMinute int) *Extractor {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)
	}
	return &Extractor{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		limiter:   limiter,
	}
}

// ExtractDeltas extracts product price/delivery updates from a transcript.
// An API failure is an error; unusable model output is an empty delta set.
func (e *Extractor) ExtractDeltas(ctx context.Context, transcript, supplierName string) ([]model.DeltaRecord, error) {
	raw, err := e.complete(ctx, fmt.Sprintf(deltaPrompt, supplierName, transcript), "extract_deltas")
	if err != nil {
		return nil, err
	}

	deltas := parseDeltaResponse(raw, supplierName, time.Now())
	zap.L().Info("extracted deltas",
		zap.String("supplier", supplierName),
		zap.Int("count", len(deltas)),
	)
	return deltas, nil
}

// ExtractOrderDeltas extracts delivery-estimate updates for open orders from
// a delivery-check transcript.
func (e *Extractor) ExtractOrderDeltas(ctx context.Context, transcript, supplierName string, now time.Time) ([]model.OrderDelta, error) {
	prompt := fmt.Sprintf(orderPrompt, now.Format("2006-01-02"), supplierName, transcript)
	raw, err := e.complete(ctx, prompt, "extract_order_deltas")
	if err != nil {
		return nil, err
	}

	deltas := parseOrderResponse(raw, supplierName)
	zap.L().Info("extracted order deltas",
		zap.String("supplier", supplierName),
		zap.Int("count", len(deltas)),
	)
	return deltas, nil
}

func (e *Extractor) complete(ctx context.Context, prompt, step string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "oracle: rate limit wait")
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemText),
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "oracle: extraction call")
	}
	resp.Usage.LogCost(e.model, step)

	return resp.Text(), nil
}
