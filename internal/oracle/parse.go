package oracle

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/model"
)

// jsonObjectRe grabs the outermost JSON object from a response that may be
// wrapped in prose or a code fence.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Delivery time bounds accepted from the model, in days.
const (
	minDeliveryDays = 1
	maxDeliveryDays = 14
)

// parseDeltaResponse converts raw model output into validated delta records.
// Unparseable output or out-of-bounds fields are dropped silently except for
// a warning log; the caller always gets a usable (possibly empty) slice.
func parseDeltaResponse(raw, supplierName string, observedAt time.Time) []model.DeltaRecord {
	payload := extractJSONObject(raw)
	if payload == nil {
		return nil
	}

	var deltas []model.DeltaRecord
	for key, fields := range payload {
		productName, keySupplier := parseEntityKey(key)
		if productName == "" {
			continue
		}
		if keySupplier == "" {
			keySupplier = supplierName
		}

		var df model.DeltaFields
		if price, ok := coerceFloat(fields["price"]); ok && price > 0 {
			df.Price = &price
		}
		if days, ok := coerceInt(fields["delivery_time"]); ok && days >= minDeliveryDays && days <= maxDeliveryDays {
			df.DeliveryDays = &days
		}
		if df.Empty() {
			continue
		}

		deltas = append(deltas, model.DeltaRecord{
			ProductName:  productName,
			SupplierName: keySupplier,
			Fields:       df,
			ObservedAt:   observedAt,
		})
	}

	// Map iteration order is random; keep output deterministic.
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].ProductName < deltas[j].ProductName })
	return deltas
}

// parseOrderResponse converts raw model output into validated order deltas.
func parseOrderResponse(raw, supplierName string) []model.OrderDelta {
	payload := extractJSONObject(raw)
	if payload == nil {
		return nil
	}

	var deltas []model.OrderDelta
	for key, fields := range payload {
		productName, keySupplier := parseEntityKey(key)
		if productName == "" {
			continue
		}
		if keySupplier == "" {
			keySupplier = supplierName
		}

		delta := model.OrderDelta{
			ProductName:  productName,
			SupplierName: keySupplier,
		}
		if s, ok := fields["estimated_arrival"].(string); ok {
			if eta, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err == nil {
				delta.EstimatedArrival = &eta
			}
		}
		if days, ok := coerceInt(fields["delay_days"]); ok {
			delta.DelayDays = &days
		}
		if delta.EstimatedArrival == nil && delta.DelayDays == nil {
			continue
		}
		deltas = append(deltas, delta)
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].ProductName < deltas[j].ProductName })
	return deltas
}

// extractJSONObject pulls the first JSON object out of raw model text and
// unmarshals it leniently. Returns nil (empty set) on any parse failure.
func extractJSONObject(raw string) map[string]map[string]any {
	match := jsonObjectRe.FindString(raw)
	if match == "" {
		zap.L().Warn("oracle response contains no JSON object", zap.Int("response_len", len(raw)))
		return nil
	}

	var payload map[string]map[string]any
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		zap.L().Warn("oracle response is not valid JSON", zap.Error(err))
		return nil
	}
	return payload
}

// parseEntityKey splits a delta key into product and supplier names. The
// model is asked for bare product-name keys, but "[product, supplier]" pair
// keys are accepted too since that is the wire form used by the reconcile
// endpoints. An unparseable key returns an empty product name.
func parseEntityKey(key string) (productName, supplierName string) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") {
		parts := strings.SplitN(key[1:len(key)-1], ", ", 2)
		if len(parts) != 2 {
			return "", ""
		}
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return key, ""
}

// coerceFloat accepts JSON numbers and numeric strings.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// coerceInt accepts JSON numbers with an integral value and numeric strings.
func coerceInt(v any) (int, bool) {
	f, ok := coerceFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
