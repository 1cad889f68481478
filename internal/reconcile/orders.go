package reconcile

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/model"
)

// OrderResult records the outcome of applying one order delta.
type OrderResult struct {
	ProductName   string `json:"product_name"`
	SupplierID    string `json:"supplier_id,omitempty"`
	OrdersUpdated int    `json:"orders_updated"`
	Err           error  `json:"-"`
}

// ReconcileOrders applies delivery-estimate deltas to the open orders of the
// matching supplier and persists the order table atomically. Per-delta
// failures (unknown supplier, no open order) do not abort the batch. Deltas
// carrying a relative delay shift the order's current estimate.
func ReconcileOrders(store *catalog.Store, deltas []model.OrderDelta) ([]OrderResult, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	suppliers, err := store.Suppliers()
	if err != nil {
		return nil, err
	}
	orders, err := store.Orders()
	if err != nil {
		return nil, err
	}

	supplierByName := make(map[string]model.Supplier, len(suppliers))
	for _, s := range suppliers {
		key := model.NameKey(s.Name)
		if _, ok := supplierByName[key]; !ok {
			supplierByName[key] = s
		}
	}

	results := make([]OrderResult, 0, len(deltas))
	dirty := false
	for _, d := range deltas {
		result := OrderResult{ProductName: d.ProductName}

		supplier, ok := supplierByName[model.NameKey(d.SupplierName)]
		if !ok {
			result.Err = eris.Wrapf(ErrSupplierNotResolved, "%q", d.SupplierName)
			results = append(results, result)
			continue
		}
		result.SupplierID = supplier.ID

		productKey := model.NameKey(d.ProductName)
		for i := range orders {
			if orders[i].Delivered() ||
				orders[i].SupplierID != supplier.ID ||
				model.NameKey(orders[i].ProductName) != productKey {
				continue
			}
			switch {
			case d.EstimatedArrival != nil:
				orders[i].EstimatedArrival = *d.EstimatedArrival
			case d.DelayDays != nil:
				orders[i].EstimatedArrival = orders[i].EstimatedArrival.AddDate(0, 0, *d.DelayDays)
			}
			result.OrdersUpdated++
			dirty = true
		}

		if result.OrdersUpdated == 0 {
			zap.L().Warn("order delta matched no open order",
				zap.String("supplier", d.SupplierName),
				zap.String("product", d.ProductName),
			)
		}
		results = append(results, result)
	}

	if dirty {
		if err := store.ReplaceOrders(orders); err != nil {
			return results, eris.Wrapf(ErrPersistFailed, "orders: %v", err)
		}
		zap.L().Info("catalog committed", zap.String("table", "orders"))
	}
	return results, nil
}
