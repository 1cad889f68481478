package model

import "time"

// DeltaFields holds the optional field updates carried by a single delta.
// Nil pointers mean "not mentioned in the call" and must never overwrite an
// existing value.
type DeltaFields struct {
	Price        *float64 `json:"price,omitempty"`
	DeliveryDays *int     `json:"delivery_time,omitempty"`
}

// Empty reports whether the delta carries no field at all.
func (f DeltaFields) Empty() bool {
	return f.Price == nil && f.DeliveryDays == nil
}

// DeltaRecord is one extracted product update from a supplier call. Transient:
// consumed by the reconciliation engine, never persisted on its own.
type DeltaRecord struct {
	ProductName  string      `json:"product_name"`
	SupplierName string      `json:"supplier_name"`
	Fields       DeltaFields `json:"fields"`
	ObservedAt   time.Time   `json:"observed_at"`
}

// OrderDelta is one extracted delivery-estimate update for an open order.
// Either EstimatedArrival or DelayDays is set; DelayDays shifts the current
// estimate (negative means early).
type OrderDelta struct {
	ProductName      string     `json:"product_name"`
	SupplierName     string     `json:"supplier_name"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	DelayDays        *int       `json:"delay_days,omitempty"`
}

// ReconciliationResult records the outcome of applying a single delta.
// Err is non-nil when the delta was skipped (unresolved supplier); the rest
// of the batch is unaffected.
type ReconciliationResult struct {
	ProductName   string   `json:"product_name"`
	ProductID     string   `json:"product_id,omitempty"`
	SupplierID    string   `json:"supplier_id,omitempty"`
	AppliedFields []string `json:"applied_fields,omitempty"`
	Inserted      bool     `json:"inserted,omitempty"`
	Err           error    `json:"-"`
}

// Applied reports whether the delta landed in the catalog.
func (r ReconciliationResult) Applied() bool {
	return r.Err == nil
}
