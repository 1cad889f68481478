package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/model"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func fixtureCatalog(t *testing.T) (*catalog.Store, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("suppliers.csv",
		"id,name,phone\nsupp_a,Supplier A,+33 1\nsupp_b,Supplier B,+33 2\n")
	write("store_products.csv",
		"id,name,price,supplier_id,stock\nprod_para,Paracetamol,10,supp_a,50\n")
	write("supplier_offers.csv",
		"id,name,supplier_id,price,delivery_days,updated_at\n"+
			"prod_para,Paracetamol,supp_a,10,4,2025-01-01 00:00:00\n")
	write("orders.csv",
		"id,supplier_id,product_name,quantity,order_date,estimated_arrival,actual_arrival\n"+
			"ord_1,supp_a,Paracetamol,10,2025-01-02,2025-01-06,\n"+
			"ord_2,supp_a,Paracetamol,5,2024-12-01,2024-12-05,2024-12-05\n")
	return catalog.NewStore(dir), dir
}

func newTestEngine(store *catalog.Store) *Engine {
	e := NewEngine(store)
	e.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	e.newID = func() string { n++; return "prod_minted_" + string(rune('a'+n-1)) }
	return e
}

func TestReconcile_UpdateExistingOffer(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	results, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Paracetamol",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(12.5)},
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Applied())
	assert.False(t, results[0].Inserted)
	assert.Equal(t, "prod_para", results[0].ProductID)
	assert.Equal(t, []string{"price"}, results[0].AppliedFields)

	offers, err := engine.Offers()
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, 12.5, offers[0].Price)
	// Partial update: delivery time untouched.
	assert.Equal(t, 4, offers[0].DeliveryDays)
}

func TestReconcile_InsertNewOffer(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	results, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Ibuprofen",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(8.3), DeliveryDays: intPtr(3)},
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Inserted)
	assert.Equal(t, "prod_minted_a", results[0].ProductID)

	offers, err := engine.Offers()
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, 8.3, offers[1].Price)
	assert.Equal(t, 3, offers[1].DeliveryDays)
}

func TestReconcile_ReusesProductIDAcrossSuppliers(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	// Supplier B quoting Paracetamol must reuse prod_para, not mint a new id.
	results, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Paracetamol",
		SupplierName: "Supplier B",
		Fields:       model.DeltaFields{Price: floatPtr(9.0)},
	}})
	require.NoError(t, err)
	assert.Equal(t, "prod_para", results[0].ProductID)
	assert.True(t, results[0].Inserted)

	offers, err := engine.Offers()
	require.NoError(t, err)
	require.Len(t, offers, 2)
	for _, o := range offers {
		assert.Equal(t, "prod_para", o.ProductID)
	}
}

func TestReconcile_NameIDInvariantAcrossBatch(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	// Two suppliers quoting the same unseen product in one batch share the
	// freshly minted id.
	results, err := engine.Reconcile([]model.DeltaRecord{
		{ProductName: "Amoxicillin", SupplierName: "Supplier A", Fields: model.DeltaFields{Price: floatPtr(5)}},
		{ProductName: "Amoxicillin", SupplierName: "Supplier B", Fields: model.DeltaFields{Price: floatPtr(6)}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].ProductID, results[1].ProductID)
}

func TestReconcile_UnknownSupplierSkipsDeltaOnly(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	results, err := engine.Reconcile([]model.DeltaRecord{
		{ProductName: "Paracetamol", SupplierName: "Nobody Corp", Fields: model.DeltaFields{Price: floatPtr(1)}},
		{ProductName: "Paracetamol", SupplierName: "Supplier A", Fields: model.DeltaFields{Price: floatPtr(11)}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, eris.Is(results[0].Err, ErrSupplierNotResolved))
	assert.True(t, results[1].Applied())

	offers, err := engine.Offers()
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, 11.0, offers[0].Price)
}

func TestReconcile_AccentInsensitiveNameForms(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	// A decomposed spelling from a later transcript must match the composed
	// row inserted first.
	_, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Paracétamol",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(2)},
	}})
	require.NoError(t, err)

	results, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Paracétamol",
		SupplierName: "Supplier B",
		Fields:       model.DeltaFields{Price: floatPtr(3)},
	}})
	require.NoError(t, err)
	// Both spellings resolve to the same product id.
	offers, err := engine.Offers()
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, offers[1].ProductID, offers[2].ProductID)
	assert.Equal(t, results[0].ProductID, offers[1].ProductID)
}

func TestReconcile_Idempotent(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)

	deltas := []model.DeltaRecord{{
		ProductName:  "Paracetamol",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(12.5), DeliveryDays: intPtr(2)},
	}}

	_, err := engine.Reconcile(deltas)
	require.NoError(t, err)
	first, err := engine.Offers()
	require.NoError(t, err)

	_, err = engine.Reconcile(deltas)
	require.NoError(t, err)
	second, err := engine.Offers()
	require.NoError(t, err)

	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Price, second[0].Price)
	assert.Equal(t, first[0].DeliveryDays, second[0].DeliveryDays)
	assert.Equal(t, first[0].ProductID, second[0].ProductID)
}

func TestCommit_PersistsAndInvalidates(t *testing.T) {
	store, dir := fixtureCatalog(t)
	engine := newTestEngine(store)

	// Warm the cache so the test proves Commit invalidates it.
	_, err := store.Offers()
	require.NoError(t, err)

	_, err = engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Ibuprofen",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(8.3), DeliveryDays: intPtr(3)},
	}})
	require.NoError(t, err)
	require.NoError(t, engine.Commit())

	// The same store instance sees the new row post-invalidation.
	offers, err := store.Offers()
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	// And so does a fresh store over the same directory.
	fresh, err := catalog.NewStore(dir).Offers()
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestCommit_NoopWhenClean(t *testing.T) {
	store, _ := fixtureCatalog(t)
	engine := newTestEngine(store)
	require.NoError(t, engine.Commit())
}

func TestCommit_PersistFailureKeepsSnapshot(t *testing.T) {
	store, dir := fixtureCatalog(t)
	engine := newTestEngine(store)

	_, err := engine.Reconcile([]model.DeltaRecord{{
		ProductName:  "Paracetamol",
		SupplierName: "Supplier A",
		Fields:       model.DeltaFields{Price: floatPtr(99)},
	}})
	require.NoError(t, err)

	// Make the data dir unwritable so the temp-file creation fails.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err = engine.Commit()
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrPersistFailed))

	require.NoError(t, os.Chmod(dir, 0o755))
	offers, err := catalog.NewStore(dir).Offers()
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, 10.0, offers[0].Price)
}
