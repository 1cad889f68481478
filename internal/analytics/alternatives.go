package analytics

import (
	"sort"

	"github.com/pharmalink/procure-cli/internal/model"
)

// CheaperAlternatives flags stocked products that another supplier offers at a
// saving of at least minSavingsPercent. productID narrows the scan to one
// stocked product when non-empty. Results are sorted by savings descending.
func (e *Engine) CheaperAlternatives(minSavingsPercent float64, productID string) (*model.AlternativesReport, error) {
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

	supplierByID := make(map[string]model.Supplier, len(suppliers))
	for _, s := range suppliers {
		supplierByID[s.ID] = s
	}
	offersByName := make(map[string][]model.CatalogOffer)
	for _, o := range offers {
		key := model.NameKey(o.ProductName)
		offersByName[key] = append(offersByName[key], o)
	}

	alternatives := make([]model.CheaperAlternative, 0)
	for _, product := range stocked {
		if productID != "" && product.ID != productID {
			continue
		}
		if product.Price <= 0 {
			continue
		}
		for _, alt := range offersByName[model.NameKey(product.Name)] {
			if alt.SupplierID == product.SupplierID || alt.Price <= 0 {
				continue
			}
			savings := product.Price - alt.Price
			savingsPercent := savings / product.Price * 100
			if savingsPercent < minSavingsPercent {
				continue
			}
			entry := model.CheaperAlternative{
				ProductID:       product.ID,
				ProductName:     product.Name,
				CurrentPrice:    product.Price,
				CurrentSupplier: product.SupplierID,
				CurrentStock:    product.Stock,
				AltSupplierID:   alt.SupplierID,
				AltPrice:        alt.Price,
				SavingsAmount:   round2(savings),
				SavingsPercent:  round2(savingsPercent),
				DeliveryDays:    alt.DeliveryDays,
				UpdatedAt:       alt.UpdatedAt,
			}
			if cur, ok := supplierByID[product.SupplierID]; ok {
				entry.CurrentName = cur.Name
			}
			if sup, ok := supplierByID[alt.SupplierID]; ok {
				entry.AltSupplierName = sup.Name
				entry.AltPhone = sup.Phone
			}
			alternatives = append(alternatives, entry)
		}
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].SavingsPercent > alternatives[j].SavingsPercent
	})

	return &model.AlternativesReport{
		Alternatives:      alternatives,
		TotalCount:        len(alternatives),
		MinSavingsPercent: minSavingsPercent,
	}, nil
}
