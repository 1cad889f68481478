// Package catalog loads and caches the CSV-backed supplier catalog datasets
// and owns their on-disk persistence.
package catalog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/pharmalink/procure-cli/internal/model"
)

// ErrDataUnavailable marks a missing or corrupt backing file. Fatal to the
// calling request; the store never caches a partial parse.
var ErrDataUnavailable = eris.New("catalog: data unavailable")

// Backing file names inside the data directory.
const (
	suppliersFile     = "suppliers.csv"
	storeProductsFile = "store_products.csv"
	offersFile        = "supplier_offers.csv"
	ordersFile        = "orders.csv"
)

// Store serves cached snapshots of the four catalog datasets. Every accessor
// returns a defensive copy, so callers can mutate freely without affecting
// other readers. Writes swap the cache only after the backing file has been
// replaced atomically.
type Store struct {
	dataDir string

	mu            sync.RWMutex
	suppliers     []model.Supplier
	storeProducts []model.StoreProduct
	offers        []model.CatalogOffer
	orders        []model.Order
}

// NewStore creates a store over dataDir. Nothing is read until first access.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// DataDir returns the backing directory.
func (s *Store) DataDir() string { return s.dataDir }

// Suppliers returns the supplier table, parsing it on first access.
func (s *Store) Suppliers() ([]model.Supplier, error) {
	s.mu.RLock()
	cached := s.suppliers
	s.mu.RUnlock()
	if cached != nil {
		return append([]model.Supplier(nil), cached...), nil
	}

	rows, err := readSuppliers(filepath.Join(s.dataDir, suppliersFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.suppliers = rows
	s.mu.Unlock()
	return append([]model.Supplier(nil), rows...), nil
}

// StoreProducts returns the in-store product table, parsing it on first access.
func (s *Store) StoreProducts() ([]model.StoreProduct, error) {
	s.mu.RLock()
	cached := s.storeProducts
	s.mu.RUnlock()
	if cached != nil {
		return append([]model.StoreProduct(nil), cached...), nil
	}

	rows, err := readStoreProducts(filepath.Join(s.dataDir, storeProductsFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.storeProducts = rows
	s.mu.Unlock()
	return append([]model.StoreProduct(nil), rows...), nil
}

// Offers returns the supplier-offer table, parsing it on first access.
func (s *Store) Offers() ([]model.CatalogOffer, error) {
	s.mu.RLock()
	cached := s.offers
	s.mu.RUnlock()
	if cached != nil {
		return append([]model.CatalogOffer(nil), cached...), nil
	}

	rows, err := readOffers(filepath.Join(s.dataDir, offersFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.offers = rows
	s.mu.Unlock()
	return append([]model.CatalogOffer(nil), rows...), nil
}

// Orders returns the purchase-order table, parsing it on first access.
func (s *Store) Orders() ([]model.Order, error) {
	s.mu.RLock()
	cached := s.orders
	s.mu.RUnlock()
	if cached != nil {
		return append([]model.Order(nil), cached...), nil
	}

	rows, err := readOrders(filepath.Join(s.dataDir, ordersFile))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders = rows
	s.mu.Unlock()
	return append([]model.Order(nil), rows...), nil
}

// InvalidateAll drops every cached snapshot. The next accessor call re-parses
// from disk. Must be called after any successful catalog mutation; this is the
// sole consistency mechanism between writers and cached readers.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

// ReplaceOffers atomically persists a full replacement offer table and
// invalidates the cache. The lock is held for the entire write-then-invalidate
// sequence so a concurrent reconciliation can never read half-written state;
// readers keep getting the prior snapshot until the swap completes. On write
// failure the previous file and cache survive untouched.
func (s *Store) ReplaceOffers(offers []model.CatalogOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeOffers(filepath.Join(s.dataDir, offersFile), offers); err != nil {
		return err
	}
	s.invalidateLocked()
	return nil
}

// ReplaceOrders atomically persists a full replacement order table and
// invalidates the cache. Same discipline as ReplaceOffers.
func (s *Store) ReplaceOrders(orders []model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeOrders(filepath.Join(s.dataDir, ordersFile), orders); err != nil {
		return err
	}
	s.invalidateLocked()
	return nil
}

// ReplaceSuppliers atomically persists a full replacement supplier table and
// invalidates the cache. Suppliers are immutable in normal operation; this
// exists for the seed generator.
func (s *Store) ReplaceSuppliers(suppliers []model.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeSuppliers(filepath.Join(s.dataDir, suppliersFile), suppliers); err != nil {
		return err
	}
	s.invalidateLocked()
	return nil
}

// ReplaceStoreProducts atomically persists a full replacement in-store product
// table and invalidates the cache.
func (s *Store) ReplaceStoreProducts(products []model.StoreProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeStoreProducts(filepath.Join(s.dataDir, storeProductsFile), products); err != nil {
		return err
	}
	s.invalidateLocked()
	return nil
}

func (s *Store) invalidateLocked() {
	s.suppliers = nil
	s.storeProducts = nil
	s.offers = nil
	s.orders = nil
}

// atomicWrite writes data to path via a temp file in the same directory and a
// rename, so a crash mid-write never leaves a truncated backing file behind.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "catalog: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "catalog: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "catalog: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "catalog: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "catalog: replace file")
	}
	return nil
}
