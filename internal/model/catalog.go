package model

import "time"

// Supplier is a wholesale supplier the pharmacy can call. Immutable once
// created; Name is the human join key used by extraction output.
type Supplier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CatalogOffer is a supplier's price/delivery quote for a product. Composite
// identity is (ProductID, SupplierID). All offers sharing a product name share
// the same ProductID; the catalog enforces that mapping at insert time.
//
// Price and DeliveryDays use zero as "unset": a valid price is always > 0 and
// a valid delivery time is always in [1,14], so zero never collides with real
// data. Rows inserted from a partial delta may carry unset fields until a
// later call fills them in.
type CatalogOffer struct {
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	SupplierID   string    `json:"supplier_id"`
	Price        float64   `json:"price,omitempty"`
	DeliveryDays int       `json:"delivery_days,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StoreProduct is a product currently stocked in the pharmacy. ID matches the
// ProductID of the offer it was sourced from. Read-mostly; the reconciliation
// engine never mutates this dataset.
type StoreProduct struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	SupplierID string  `json:"supplier_id"`
	Stock      int     `json:"stock"`
}

// Order is a purchase order placed with a supplier. ActualArrival is nil
// until the delivery lands; EstimatedArrival is updated by delivery-check
// calls.
type Order struct {
	ID               string     `json:"id"`
	SupplierID       string     `json:"supplier_id"`
	ProductName      string     `json:"product_name"`
	Quantity         int        `json:"quantity"`
	OrderDate        time.Time  `json:"order_date"`
	EstimatedArrival time.Time  `json:"estimated_arrival"`
	ActualArrival    *time.Time `json:"actual_arrival,omitempty"`
}

// Delivered reports whether the order has arrived.
func (o Order) Delivered() bool {
	return o.ActualArrival != nil
}

// OnTime reports whether a delivered order arrived by its estimate.
// Undelivered orders are neither on time nor late.
func (o Order) OnTime() bool {
	return o.ActualArrival != nil && !o.ActualArrival.After(o.EstimatedArrival)
}
