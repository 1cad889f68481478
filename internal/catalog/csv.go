package catalog

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pharmalink/procure-cli/internal/model"
)

// Timestamp layouts used by the backing files.
const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// readTable opens a CSV file and returns its header column index plus the
// data rows. Any failure wraps ErrDataUnavailable.
func readTable(path string, required ...string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(ErrDataUnavailable, "open %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(ErrDataUnavailable, "read %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, nil, eris.Wrapf(ErrDataUnavailable, "%s: missing header", path)
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		colIdx[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, nil, eris.Wrapf(ErrDataUnavailable, "%s: missing column %q", path, col)
		}
	}
	return colIdx, records[1:], nil
}

// getCol safely retrieves a column value from a CSV row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readSuppliers(path string) ([]model.Supplier, error) {
	colIdx, rows, err := readTable(path, "id", "name", "phone")
	if err != nil {
		return nil, err
	}

	suppliers := make([]model.Supplier, 0, len(rows))
	for _, row := range rows {
		id := getCol(row, colIdx, "id")
		if id == "" {
			continue
		}
		suppliers = append(suppliers, model.Supplier{
			ID:    id,
			Name:  getCol(row, colIdx, "name"),
			Phone: getCol(row, colIdx, "phone"),
		})
	}
	return suppliers, nil
}

func readStoreProducts(path string) ([]model.StoreProduct, error) {
	colIdx, rows, err := readTable(path, "id", "name", "price", "supplier_id", "stock")
	if err != nil {
		return nil, err
	}

	products := make([]model.StoreProduct, 0, len(rows))
	for _, row := range rows {
		id := getCol(row, colIdx, "id")
		if id == "" {
			continue
		}
		price, err := strconv.ParseFloat(getCol(row, colIdx, "price"), 64)
		if err != nil {
			return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad price for %s", path, id)
		}
		stock, err := strconv.Atoi(getCol(row, colIdx, "stock"))
		if err != nil {
			return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad stock for %s", path, id)
		}
		products = append(products, model.StoreProduct{
			ID:         id,
			Name:       getCol(row, colIdx, "name"),
			Price:      price,
			SupplierID: getCol(row, colIdx, "supplier_id"),
			Stock:      stock,
		})
	}
	return products, nil
}

func readOffers(path string) ([]model.CatalogOffer, error) {
	colIdx, rows, err := readTable(path, "id", "name", "supplier_id", "price", "delivery_days", "updated_at")
	if err != nil {
		return nil, err
	}

	offers := make([]model.CatalogOffer, 0, len(rows))
	for _, row := range rows {
		id := getCol(row, colIdx, "id")
		if id == "" {
			continue
		}
		offer := model.CatalogOffer{
			ProductID:   id,
			ProductName: getCol(row, colIdx, "name"),
			SupplierID:  getCol(row, colIdx, "supplier_id"),
		}

		// Price and delivery are optional: rows minted from a partial call
		// update may not have them yet.
		if raw := getCol(row, colIdx, "price"); raw != "" {
			offer.Price, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad price for %s", path, id)
			}
		}
		if raw := getCol(row, colIdx, "delivery_days"); raw != "" {
			offer.DeliveryDays, err = strconv.Atoi(raw)
			if err != nil {
				return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad delivery_days for %s", path, id)
			}
		}
		if raw := getCol(row, colIdx, "updated_at"); raw != "" {
			offer.UpdatedAt, err = time.Parse(timestampLayout, raw)
			if err != nil {
				return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad updated_at for %s", path, id)
			}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func readOrders(path string) ([]model.Order, error) {
	colIdx, rows, err := readTable(path, "id", "supplier_id", "product_name", "quantity", "order_date", "estimated_arrival")
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		id := getCol(row, colIdx, "id")
		if id == "" {
			continue
		}
		quantity, err := strconv.Atoi(getCol(row, colIdx, "quantity"))
		if err != nil {
			return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad quantity for %s", path, id)
		}
		orderDate, err := time.Parse(dateLayout, getCol(row, colIdx, "order_date"))
		if err != nil {
			return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad order_date for %s", path, id)
		}
		estimated, err := time.Parse(dateLayout, getCol(row, colIdx, "estimated_arrival"))
		if err != nil {
			return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad estimated_arrival for %s", path, id)
		}

		order := model.Order{
			ID:               id,
			SupplierID:       getCol(row, colIdx, "supplier_id"),
			ProductName:      getCol(row, colIdx, "product_name"),
			Quantity:         quantity,
			OrderDate:        orderDate,
			EstimatedArrival: estimated,
		}
		if raw := getCol(row, colIdx, "actual_arrival"); raw != "" {
			actual, err := time.Parse(dateLayout, raw)
			if err != nil {
				return nil, eris.Wrapf(ErrDataUnavailable, "%s: bad actual_arrival for %s", path, id)
			}
			order.ActualArrival = &actual
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func writeSuppliers(path string, suppliers []model.Supplier) error {
	records := make([][]string, 0, len(suppliers)+1)
	records = append(records, []string{"id", "name", "phone"})
	for _, s := range suppliers {
		records = append(records, []string{s.ID, s.Name, s.Phone})
	}
	return writeTable(path, records)
}

func writeStoreProducts(path string, products []model.StoreProduct) error {
	records := make([][]string, 0, len(products)+1)
	records = append(records, []string{"id", "name", "price", "supplier_id", "stock"})
	for _, p := range products {
		records = append(records, []string{
			p.ID,
			p.Name,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			p.SupplierID,
			strconv.Itoa(p.Stock),
		})
	}
	return writeTable(path, records)
}

func writeOffers(path string, offers []model.CatalogOffer) error {
	records := make([][]string, 0, len(offers)+1)
	records = append(records, []string{"id", "name", "supplier_id", "price", "delivery_days", "updated_at"})
	for _, o := range offers {
		price := ""
		if o.Price > 0 {
			price = strconv.FormatFloat(o.Price, 'f', -1, 64)
		}
		delivery := ""
		if o.DeliveryDays > 0 {
			delivery = strconv.Itoa(o.DeliveryDays)
		}
		updated := ""
		if !o.UpdatedAt.IsZero() {
			updated = o.UpdatedAt.Format(timestampLayout)
		}
		records = append(records, []string{o.ProductID, o.ProductName, o.SupplierID, price, delivery, updated})
	}
	return writeTable(path, records)
}

func writeOrders(path string, orders []model.Order) error {
	records := make([][]string, 0, len(orders)+1)
	records = append(records, []string{"id", "supplier_id", "product_name", "quantity", "order_date", "estimated_arrival", "actual_arrival"})
	for _, o := range orders {
		actual := ""
		if o.ActualArrival != nil {
			actual = o.ActualArrival.Format(dateLayout)
		}
		records = append(records, []string{
			o.ID,
			o.SupplierID,
			o.ProductName,
			strconv.Itoa(o.Quantity),
			o.OrderDate.Format(dateLayout),
			o.EstimatedArrival.Format(dateLayout),
			actual,
		})
	}
	return writeTable(path, records)
}

func writeTable(path string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return eris.Wrapf(err, "catalog: encode %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "catalog: encode %s", path)
	}
	return atomicWrite(path, buf.Bytes())
}
