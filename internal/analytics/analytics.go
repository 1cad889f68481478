// Package analytics answers procurement questions over catalog snapshots:
// which stocked products have cheaper suppliers, which supplier products the
// store does not carry yet, and how each supplier performs overall. Queries
// are pure reads; they never mutate the catalog.
package analytics

import (
	"math"
	"time"

	"github.com/pharmalink/procure-cli/internal/catalog"
)

// Engine runs analytics queries against one catalog store.
type Engine struct {
	store *catalog.Store

	now func() time.Time
}

// NewEngine creates an analytics engine over the given catalog store.
func NewEngine(store *catalog.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
