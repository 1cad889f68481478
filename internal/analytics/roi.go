package analytics

import (
	"sort"

	"github.com/pharmalink/procure-cli/internal/model"
)

// Sub-score weights for the supplier performance rating.
const (
	weightDelivery  = 0.4
	weightPrice     = 0.3
	weightVolume    = 0.2
	weightDiversity = 0.1
)

// Performance status buckets.
const (
	statusExcellent = "excellent"
	statusGood      = "good"
	statusFair      = "fair"
	statusWarning   = "warning"
)

// SupplierROI rates every supplier on delivery reliability, price
// competitiveness, order volume, and product diversity, weighted
// 0.4/0.3/0.2/0.1. Spend and delivery stats come from the trailing 30 days of
// orders; with no order in that window, spend falls back to all-time. Results
// are sorted by performance descending.
func (e *Engine) SupplierROI() (*model.ROIReport, error) {
	suppliers, err := e.store.Suppliers()
	if err != nil {
		return nil, err
	}
	stocked, err := e.store.StoreProducts()
	if err != nil {
		return nil, err
	}
	offers, err := e.store.Offers()
	if err != nil {
		return nil, err
	}
	orders, err := e.store.Orders()
	if err != nil {
		return nil, err
	}

	stockedByName := make(map[string]model.StoreProduct, len(stocked))
	for _, p := range stocked {
		key := model.NameKey(p.Name)
		if _, ok := stockedByName[key]; !ok {
			stockedByName[key] = p
		}
	}

	spend := make(map[string]float64)
	onTime := make(map[string]int)
	late := make(map[string]int)

	cutoff := e.now().AddDate(0, 0, -30)
	for _, o := range orders {
		if o.OrderDate.Before(cutoff) {
			continue
		}
		product, ok := stockedByName[model.NameKey(o.ProductName)]
		if !ok || product.SupplierID != o.SupplierID {
			continue
		}
		spend[o.SupplierID] += float64(o.Quantity) * product.Price
		if o.Delivered() {
			if o.OnTime() {
				onTime[o.SupplierID]++
			} else {
				late[o.SupplierID]++
			}
		}
	}

	// No order in the window: estimate monthly spend from the full history so
	// the volume score does not zero out for every supplier at once.
	if len(spend) == 0 {
		for _, o := range orders {
			product, ok := stockedByName[model.NameKey(o.ProductName)]
			if !ok || product.SupplierID != o.SupplierID {
				continue
			}
			spend[o.SupplierID] += float64(o.Quantity) * product.Price
		}
	}

	scores := make([]model.SupplierScore, 0, len(suppliers))
	for _, supplier := range suppliers {
		monthlySpend := spend[supplier.ID]

		productCount := 0
		cheaperCount := 0
		for _, p := range stocked {
			if p.SupplierID != supplier.ID {
				continue
			}
			productCount++
			if p.Price <= 0 {
				continue
			}
			key := model.NameKey(p.Name)
			for _, alt := range offers {
				if alt.SupplierID != supplier.ID && alt.Price > 0 &&
					alt.Price < p.Price && model.NameKey(alt.ProductName) == key {
					cheaperCount++
				}
			}
		}

		deliveries := onTime[supplier.ID] + late[supplier.ID]
		deliveryScore := 100.0
		if deliveries > 0 {
			deliveryScore = float64(onTime[supplier.ID]) / float64(deliveries) * 100
		}
		priceScore := 100 - float64(cheaperCount)/float64(max(1, productCount))*30
		if priceScore < 0 {
			priceScore = 0
		}
		volumeScore := 0.0
		if monthlySpend > 0 {
			volumeScore = min(100, monthlySpend/1000*20)
		}
		diversityScore := min(100, float64(productCount)*5)

		performance := deliveryScore*weightDelivery +
			priceScore*weightPrice +
			volumeScore*weightVolume +
			diversityScore*weightDiversity
		performance = min(100, max(0, performance))

		var status string
		switch {
		case performance >= 90:
			status = statusExcellent
		case performance >= 75:
			status = statusGood
		case performance >= 60:
			status = statusFair
		default:
			status = statusWarning
		}

		var trend string
		switch {
		case monthlySpend > 5000:
			trend = "up"
		case monthlySpend > 1000:
			trend = "stable"
		default:
			trend = "down"
		}

		var issues []string
		if late[supplier.ID] > 0 {
			issues = append(issues, "Late Deliveries")
		}
		if float64(cheaperCount) > float64(productCount)*0.5 {
			issues = append(issues, "Price Increases")
		}
		if deliveries == 0 && monthlySpend == 0 {
			issues = append(issues, "No Recent Activity")
		}

		scores = append(scores, model.SupplierScore{
			ID:             supplier.ID,
			Name:           supplier.Name,
			Phone:          supplier.Phone,
			Performance:    round1(performance),
			DeliveryScore:  round1(deliveryScore),
			PriceScore:     round1(priceScore),
			VolumeScore:    round1(volumeScore),
			DiversityScore: round1(diversityScore),
			MonthlySpend:   round2(monthlySpend),
			Status:         status,
			Trend:          trend,
			Issues:         issues,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Performance > scores[j].Performance
	})

	report := &model.ROIReport{
		Suppliers:  scores,
		TotalCount: len(scores),
	}
	for _, s := range scores {
		report.TotalMonthlySpend += s.MonthlySpend
		report.AvgPerformance += s.Performance
		switch s.Status {
		case statusExcellent:
			report.ExcellentCount++
		case statusWarning:
			report.WarningCount++
		}
	}
	report.TotalMonthlySpend = round2(report.TotalMonthlySpend)
	if len(scores) > 0 {
		report.AvgPerformance = round1(report.AvgPerformance / float64(len(scores)))
	}
	return report, nil
}
