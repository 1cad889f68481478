package analytics

import (
	"sort"

	"github.com/pharmalink/procure-cli/internal/model"
)

// Sort criteria for InnovativeProducts.
const (
	SortBySuppliers    = "suppliers"
	SortByPrice        = "price"
	SortByDeliveryTime = "delivery_time"
)

// InnovativeProducts lists products that suppliers offer but the store does
// not stock, aggregated per product name. Products carried by fewer than
// minSuppliers offers are dropped. sortBy picks the ordering: avg price
// ascending, min delivery ascending, or supplier count descending (default).
func (e *Engine) InnovativeProducts(minSuppliers int, sortBy string) (*model.DiscoveryReport, error) {
	stocked, err := e.store.StoreProducts()
	if err != nil {
		return nil, err
	}
	offers, err := e.store.Offers()
	if err != nil {
		return nil, err
	}
	suppliers, err := e.store.Suppliers()
	if err != nil {
		return nil, err
	}

	stockedNames := make(map[string]bool, len(stocked))
	for _, p := range stocked {
		stockedNames[model.NameKey(p.Name)] = true
	}
	supplierByID := make(map[string]model.Supplier, len(suppliers))
	for _, s := range suppliers {
		supplierByID[s.ID] = s
	}

	offersByName := make(map[string][]model.CatalogOffer)
	for _, o := range offers {
		key := model.NameKey(o.ProductName)
		if stockedNames[key] {
			continue
		}
		offersByName[key] = append(offersByName[key], o)
	}

	products := make([]model.InnovativeProduct, 0, len(offersByName))
	for _, entries := range offersByName {
		if len(entries) < minSuppliers {
			continue
		}

		entry := model.InnovativeProduct{
			ProductName:   entries[0].ProductName,
			SupplierCount: len(entries),
		}

		// Zero encodes "never quoted"; such offers are excluded from the
		// price and delivery aggregates.
		var priceSum float64
		var priceN int
		var deliverySum, deliveryN int
		for _, o := range entries {
			if o.Price > 0 {
				priceSum += o.Price
				priceN++
				if entry.MinPrice == 0 || o.Price < entry.MinPrice {
					entry.MinPrice = o.Price
				}
				if o.Price > entry.MaxPrice {
					entry.MaxPrice = o.Price
				}
			}
			if o.DeliveryDays > 0 {
				deliverySum += o.DeliveryDays
				deliveryN++
				if entry.MinDeliveryDays == 0 || o.DeliveryDays < entry.MinDeliveryDays {
					entry.MinDeliveryDays = o.DeliveryDays
				}
			}
		}
		if priceN > 0 {
			entry.AvgPrice = round2(priceSum / float64(priceN))
		}
		if deliveryN > 0 {
			entry.AvgDeliveryDays = round1(float64(deliverySum) / float64(deliveryN))
		}

		seen := make(map[string]bool, len(entries))
		for _, o := range entries {
			if seen[o.SupplierID] {
				continue
			}
			seen[o.SupplierID] = true
			if s, ok := supplierByID[o.SupplierID]; ok {
				entry.Suppliers = append(entry.Suppliers, model.SupplierInfo{
					ID: s.ID, Name: s.Name, Phone: s.Phone,
				})
			}
		}

		products = append(products, entry)
	}

	// Name tie-break keeps the order stable across map iteration.
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch sortBy {
		case SortByPrice:
			if a.AvgPrice != b.AvgPrice {
				return a.AvgPrice < b.AvgPrice
			}
		case SortByDeliveryTime:
			if a.MinDeliveryDays != b.MinDeliveryDays {
				return a.MinDeliveryDays < b.MinDeliveryDays
			}
		default:
			if a.SupplierCount != b.SupplierCount {
				return a.SupplierCount > b.SupplierCount
			}
		}
		return a.ProductName < b.ProductName
	})

	return &model.DiscoveryReport{
		Products:     products,
		TotalCount:   len(products),
		MinSuppliers: minSuppliers,
	}, nil
}
