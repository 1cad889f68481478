package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/procure-cli/internal/catalog"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func fixtureEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("suppliers.csv",
		"id,name,phone\n"+
			"supp_a,Pharma Depot,+33 1 00 00 00 01\n"+
			"supp_b,MediSource,+33 1 00 00 00 02\n"+
			"supp_c,BioStock,+33 1 00 00 00 03\n")
	write("store_products.csv",
		"id,name,price,supplier_id,stock\n"+
			"prod_para,Paracetamol,10,supp_a,50\n"+
			"prod_ibu,Ibuprofen,8,supp_b,30\n")
	write("supplier_offers.csv",
		"id,name,supplier_id,price,delivery_days,updated_at\n"+
			// 10% cheaper Paracetamol at supp_b.
			"prod_para,Paracetamol,supp_b,9,3,2025-03-01 00:00:00\n"+
			// 40% cheaper at supp_c.
			"prod_para,Paracetamol,supp_c,6,5,2025-03-02 00:00:00\n"+
			// Own supplier requoting, never an alternative.
			"prod_para,Paracetamol,supp_a,9.5,4,2025-03-03 00:00:00\n"+
			// Not stocked: innovative, two suppliers.
			"prod_amox,Amoxicillin,supp_b,12,2,2025-03-01 00:00:00\n"+
			"prod_amox,Amoxicillin,supp_c,14,6,2025-03-01 00:00:00\n"+
			// Not stocked, single supplier, price never quoted.
			"prod_zinc,Zinc,supp_c,,4,2025-03-01 00:00:00\n")
	write("orders.csv",
		"id,supplier_id,product_name,quantity,order_date,estimated_arrival,actual_arrival\n"+
			// Recent, on time: 20 x 10 = 200 spend for supp_a.
			"ord_1,supp_a,Paracetamol,20,2025-03-01,2025-03-05,2025-03-04\n"+
			// Recent, late.
			"ord_2,supp_a,Paracetamol,10,2025-03-05,2025-03-08,2025-03-10\n"+
			// Old order, outside the 30-day window.
			"ord_3,supp_b,Ibuprofen,100,2024-01-01,2024-01-05,2024-01-05\n")

	e := NewEngine(catalog.NewStore(dir))
	e.now = func() time.Time { return testNow }
	return e
}

func TestCheaperAlternatives(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.CheaperAlternatives(5, "")
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalCount)

	// Sorted by savings percent descending.
	best := report.Alternatives[0]
	assert.Equal(t, "supp_c", best.AltSupplierID)
	assert.Equal(t, "BioStock", best.AltSupplierName)
	assert.Equal(t, 40.0, best.SavingsPercent)
	assert.Equal(t, 4.0, best.SavingsAmount)
	assert.Equal(t, "Pharma Depot", best.CurrentName)
	assert.Equal(t, 50, best.CurrentStock)

	second := report.Alternatives[1]
	assert.Equal(t, "supp_b", second.AltSupplierID)
	assert.Equal(t, 10.0, second.SavingsPercent)
}

func TestCheaperAlternatives_ThresholdExcludes(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.CheaperAlternatives(15, "")
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalCount)
	assert.Equal(t, "supp_c", report.Alternatives[0].AltSupplierID)
	assert.Equal(t, 15.0, report.MinSavingsPercent)
}

func TestCheaperAlternatives_ProductFilter(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.CheaperAlternatives(5, "prod_ibu")
	require.NoError(t, err)
	assert.Zero(t, report.TotalCount)
}

func TestInnovativeProducts(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.InnovativeProducts(1, SortBySuppliers)
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalCount)

	// Amoxicillin first: two offers against Zinc's one.
	amox := report.Products[0]
	assert.Equal(t, "Amoxicillin", amox.ProductName)
	assert.Equal(t, 2, amox.SupplierCount)
	assert.Equal(t, 13.0, amox.AvgPrice)
	assert.Equal(t, 12.0, amox.MinPrice)
	assert.Equal(t, 14.0, amox.MaxPrice)
	assert.Equal(t, 2, amox.MinDeliveryDays)
	assert.Equal(t, 4.0, amox.AvgDeliveryDays)
	require.Len(t, amox.Suppliers, 2)

	// Zinc's only offer has no price; aggregates stay zero.
	zinc := report.Products[1]
	assert.Equal(t, "Zinc", zinc.ProductName)
	assert.Zero(t, zinc.AvgPrice)
	assert.Equal(t, 4, zinc.MinDeliveryDays)
}

func TestInnovativeProducts_MinSuppliers(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.InnovativeProducts(2, SortBySuppliers)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalCount)
	assert.Equal(t, "Amoxicillin", report.Products[0].ProductName)
}

func TestInnovativeProducts_SortByDelivery(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.InnovativeProducts(1, SortByDeliveryTime)
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalCount)
	assert.Equal(t, "Amoxicillin", report.Products[0].ProductName)
	assert.Equal(t, "Zinc", report.Products[1].ProductName)
}

func TestSupplierROI(t *testing.T) {
	e := fixtureEngine(t)

	report, err := e.SupplierROI()
	require.NoError(t, err)
	require.Equal(t, 3, report.TotalCount)

	byID := make(map[string]int)
	for i, s := range report.Suppliers {
		byID[s.ID] = i
	}

	// supp_a: one on-time and one late delivery, 300 spend, one stocked
	// product with two cheaper offers.
	a := report.Suppliers[byID["supp_a"]]
	assert.Equal(t, 50.0, a.DeliveryScore)
	assert.Equal(t, 40.0, a.PriceScore)
	assert.Equal(t, 6.0, a.VolumeScore)
	assert.Equal(t, 5.0, a.DiversityScore)
	assert.Equal(t, 33.7, a.Performance)
	assert.Equal(t, 300.0, a.MonthlySpend)
	assert.Equal(t, statusWarning, a.Status)
	assert.Equal(t, "down", a.Trend)
	assert.Contains(t, a.Issues, "Late Deliveries")
	assert.Contains(t, a.Issues, "Price Increases")

	// supp_b: no recent order, no cheaper offer against its product, default
	// delivery score.
	b := report.Suppliers[byID["supp_b"]]
	assert.Equal(t, 100.0, b.DeliveryScore)
	assert.Equal(t, 100.0, b.PriceScore)
	assert.Zero(t, b.VolumeScore)
	assert.Equal(t, 5.0, b.DiversityScore)
	assert.Contains(t, b.Issues, "No Recent Activity")

	// supp_c stocks nothing: diversity zero, price unpenalized.
	c := report.Suppliers[byID["supp_c"]]
	assert.Zero(t, c.DiversityScore)
	assert.Equal(t, 100.0, c.PriceScore)

	// Sorted by performance descending.
	for i := 1; i < len(report.Suppliers); i++ {
		assert.GreaterOrEqual(t, report.Suppliers[i-1].Performance, report.Suppliers[i].Performance)
	}

	assert.Equal(t, 300.0, report.TotalMonthlySpend)
	assert.Equal(t, 1, report.WarningCount)
}

func TestSupplierROI_AllTimeSpendFallback(t *testing.T) {
	e := fixtureEngine(t)
	// Move "now" a year ahead so no order is recent; spend falls back to the
	// full history and delivery stats reset to the default.
	e.now = func() time.Time { return testNow.AddDate(1, 0, 0) }

	report, err := e.SupplierROI()
	require.NoError(t, err)

	var a, b *struct{ spend, delivery float64 }
	for _, s := range report.Suppliers {
		entry := &struct{ spend, delivery float64 }{s.MonthlySpend, s.DeliveryScore}
		switch s.ID {
		case "supp_a":
			a = entry
		case "supp_b":
			b = entry
		}
	}
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 300.0, a.spend)
	assert.Equal(t, 800.0, b.spend)
	assert.Equal(t, 100.0, a.delivery)
}
