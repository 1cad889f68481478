// Package reconcile merges extracted call deltas into the supplier catalog:
// match supplier and product names against the existing tables, update the
// offer row in place or mint a new one, and persist the result atomically.
package reconcile

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/model"
)

// ErrSupplierNotResolved marks a delta whose supplier name matched no row in
// the supplier table. The delta is skipped; the batch continues.
var ErrSupplierNotResolved = eris.New("reconcile: supplier not resolved")

// ErrPersistFailed marks a commit that could not write the backing file. The
// prior on-disk snapshot is intact.
var ErrPersistFailed = eris.New("reconcile: persist failed")

// Engine applies delta batches to a working copy of the offer table and
// commits the whole table back through the catalog store. One engine guards
// one catalog; Reconcile and Commit are safe to call from multiple workers.
type Engine struct {
	store *catalog.Store

	mu     sync.Mutex
	offers []model.CatalogOffer
	loaded bool
	dirty  bool

	now   func() time.Time
	newID func() string
}

// NewEngine creates an engine over the given catalog store.
func NewEngine(store *catalog.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		newID: func() string { return "prod_" + uuid.NewString() },
	}
}

// load pulls the working offer table from the store on first use. Must be
// called with e.mu held.
func (e *Engine) load() error {
	if e.loaded {
		return nil
	}
	offers, err := e.store.Offers()
	if err != nil {
		return err
	}
	e.offers = offers
	e.loaded = true
	e.dirty = false
	return nil
}

// Reconcile applies a batch of deltas to the working offer table. Deltas
// whose supplier cannot be resolved fail individually; everything else in the
// batch still applies. The returned results mirror the input order. Mutations
// stay in memory until Commit.
func (e *Engine) Reconcile(deltas []model.DeltaRecord) ([]model.ReconciliationResult, error) {
	suppliers, err := e.store.Suppliers()
	if err != nil {
		return nil, err
	}

	// First match wins on duplicate supplier names: the table is ordered and
	// nothing enforces name uniqueness, so the tie-break must be stable.
	supplierByName := make(map[string]model.Supplier, len(suppliers))
	for _, s := range suppliers {
		key := model.NameKey(s.Name)
		if _, ok := supplierByName[key]; !ok {
			supplierByName[key] = s
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(); err != nil {
		return nil, err
	}

	results := make([]model.ReconciliationResult, 0, len(deltas))
	for _, d := range deltas {
		results = append(results, e.applyLocked(d, supplierByName))
	}
	return results, nil
}

// applyLocked upserts a single delta into the working table.
func (e *Engine) applyLocked(d model.DeltaRecord, supplierByName map[string]model.Supplier) model.ReconciliationResult {
	result := model.ReconciliationResult{ProductName: d.ProductName}

	supplier, ok := supplierByName[model.NameKey(d.SupplierName)]
	if !ok {
		result.Err = eris.Wrapf(ErrSupplierNotResolved, "%q", d.SupplierName)
		zap.L().Warn("skipping delta for unknown supplier",
			zap.String("supplier", d.SupplierName),
			zap.String("product", d.ProductName),
		)
		return result
	}
	result.SupplierID = supplier.ID

	// Reuse the product id of any offer sharing this name; every offer row
	// with the same product name must carry the same id.
	productKey := model.NameKey(d.ProductName)
	productID := ""
	for i := range e.offers {
		if model.NameKey(e.offers[i].ProductName) == productKey {
			productID = e.offers[i].ProductID
			break
		}
	}
	if productID == "" {
		productID = e.newID()
	}
	result.ProductID = productID

	stamp := d.ObservedAt
	if stamp.IsZero() {
		stamp = e.now()
	}

	if d.Fields.Price != nil {
		result.AppliedFields = append(result.AppliedFields, "price")
	}
	if d.Fields.DeliveryDays != nil {
		result.AppliedFields = append(result.AppliedFields, "delivery_time")
	}

	for i := range e.offers {
		if e.offers[i].ProductID == productID && e.offers[i].SupplierID == supplier.ID {
			// Partial update: absent fields keep their current value.
			if d.Fields.Price != nil {
				e.offers[i].Price = *d.Fields.Price
			}
			if d.Fields.DeliveryDays != nil {
				e.offers[i].DeliveryDays = *d.Fields.DeliveryDays
			}
			e.offers[i].UpdatedAt = stamp
			e.dirty = true
			return result
		}
	}

	offer := model.CatalogOffer{
		ProductID:   productID,
		ProductName: d.ProductName,
		SupplierID:  supplier.ID,
		UpdatedAt:   stamp,
	}
	if d.Fields.Price != nil {
		offer.Price = *d.Fields.Price
	}
	if d.Fields.DeliveryDays != nil {
		offer.DeliveryDays = *d.Fields.DeliveryDays
	}
	e.offers = append(e.offers, offer)
	e.dirty = true
	result.Inserted = true
	return result
}

// Offers returns a copy of the working table, including uncommitted changes.
func (e *Engine) Offers() ([]model.CatalogOffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(); err != nil {
		return nil, err
	}
	return append([]model.CatalogOffer(nil), e.offers...), nil
}

// Commit persists the working offer table back to the backing file and
// invalidates the catalog cache. A write failure aborts the commit, leaves
// the prior snapshot intact, and keeps the working table for a retry. A clean
// commit drops the working table so the next pass re-reads committed state.
func (e *Engine) Commit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded || !e.dirty {
		return nil
	}
	if err := e.store.ReplaceOffers(e.offers); err != nil {
		return eris.Wrapf(ErrPersistFailed, "offers: %v", err)
	}
	e.loaded = false
	e.offers = nil
	zap.L().Info("catalog committed", zap.String("table", "supplier_offers"))
	return nil
}
