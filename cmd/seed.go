package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/model"
)

var (
	seedSuppliers int
	seedProducts  int
	seedOrders    int
	seedValue     int64
)

var supplierBaseNames = []string{
	"PharmaDistrib", "MedSupply Co.", "Health Products Inc.", "Pharmaceutical Express",
	"MediCare Distributors", "Pharma Solutions", "Medical Supply Pro", "Health Warehouse",
	"Pharma Direct", "MediSupply Network", "Pharmaceutical Hub", "Pharma Depot",
	"Health Distributors", "MedSupply Express", "Pharma Central", "Medical Products Ltd",
}

var supplierRegions = []string{"North", "South", "East", "West", "International", "Global"}

var productNames = []string{
	"Paracétamol 500mg", "Ibuprofène 400mg", "Aspirine 500mg", "Doliprane 1000mg",
	"Amoxicilline 500mg", "Ciprofloxacine 500mg", "Azithromycine 250mg", "Doxycycline 100mg",
	"Métronidazole 500mg", "Métformine 500mg", "Atorvastatine 20mg", "Amlodipine 5mg",
	"Lisinopril 10mg", "Oméprazole 20mg", "Lansoprazole 30mg", "Montélukast 10mg",
	"Salbutamol Spray", "Fluticasone Nasal", "Insuline Glulisine", "Loratadine 10mg",
	"Cétirizine 10mg", "Prednisolone 20mg", "Furosémide 40mg", "Warfarine 5mg",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a deterministic fake catalog",
	Long: `Writes suppliers.csv, store_products.csv, supplier_offers.csv, and
orders.csv under the configured data directory. The same seed always produces
the same ids, names, and prices; dates are relative to the current day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(false)
		if err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(seedValue))
		newID := func(prefix string) string {
			return prefix + "_" + uuid.Must(uuid.NewRandomFromReader(rng)).String()
		}
		now := time.Now()

		suppliers := make([]model.Supplier, 0, seedSuppliers)
		for i := 0; i < seedSuppliers; i++ {
			name := fmt.Sprintf("%s %s",
				supplierBaseNames[rng.Intn(len(supplierBaseNames))],
				supplierRegions[rng.Intn(len(supplierRegions))],
			)
			phone := fmt.Sprintf("+33 %d %02d %02d %02d %02d",
				1+rng.Intn(9), 10+rng.Intn(90), 10+rng.Intn(90), 10+rng.Intn(90), 10+rng.Intn(90))
			suppliers = append(suppliers, model.Supplier{
				ID:    newID("supp"),
				Name:  name,
				Phone: phone,
			})
		}

		names := productNames
		if seedProducts < len(names) {
			names = names[:seedProducts]
		}

		// Every offer row for one product name shares the same id.
		var offers []model.CatalogOffer
		idByName := make(map[string]string, len(names))
		for _, name := range names {
			productID := newID("prod")
			idByName[name] = productID

			for _, idx := range rng.Perm(len(suppliers))[:1+rng.Intn(4)] {
				price := float64(int((2+rng.Float64()*148)*100)) / 100
				offers = append(offers, model.CatalogOffer{
					ProductID:    productID,
					ProductName:  name,
					SupplierID:   suppliers[idx].ID,
					Price:        price,
					DeliveryDays: 1 + rng.Intn(14),
					UpdatedAt:    now.AddDate(0, 0, -(1 + rng.Intn(90))),
				})
			}
		}

		// Roughly two thirds of the offered products end up stocked, each
		// sourced from one of its offering suppliers.
		var stocked []model.StoreProduct
		for _, name := range names {
			if rng.Intn(3) == 0 {
				continue
			}
			var candidates []model.CatalogOffer
			for _, o := range offers {
				if o.ProductName == name {
					candidates = append(candidates, o)
				}
			}
			pick := candidates[rng.Intn(len(candidates))]
			stocked = append(stocked, model.StoreProduct{
				ID:         idByName[name],
				Name:       name,
				Price:      pick.Price,
				SupplierID: pick.SupplierID,
				Stock:      rng.Intn(500),
			})
		}

		var orders []model.Order
		for i := 0; i < seedOrders && len(stocked) > 0; i++ {
			product := stocked[rng.Intn(len(stocked))]
			orderDate := now.AddDate(0, 0, -rng.Intn(60))
			estimated := orderDate.AddDate(0, 0, 1+rng.Intn(10))
			order := model.Order{
				ID:               newID("ord"),
				SupplierID:       product.SupplierID,
				ProductName:      product.Name,
				Quantity:         1 + rng.Intn(50),
				OrderDate:        orderDate,
				EstimatedArrival: estimated,
			}
			// Most past-due orders arrived, a fifth of them late.
			if estimated.Before(now) && rng.Intn(4) > 0 {
				actual := estimated
				if rng.Intn(5) == 0 {
					actual = estimated.AddDate(0, 0, 1+rng.Intn(4))
				}
				order.ActualArrival = &actual
			}
			orders = append(orders, order)
		}

		if err := env.Catalog.ReplaceSuppliers(suppliers); err != nil {
			return err
		}
		if err := env.Catalog.ReplaceStoreProducts(stocked); err != nil {
			return err
		}
		if err := env.Catalog.ReplaceOffers(offers); err != nil {
			return err
		}
		if err := env.Catalog.ReplaceOrders(orders); err != nil {
			return err
		}

		zap.L().Info("catalog seeded",
			zap.String("data_dir", cfg.Data.Dir),
			zap.Int("suppliers", len(suppliers)),
			zap.Int("stocked_products", len(stocked)),
			zap.Int("offers", len(offers)),
			zap.Int("orders", len(orders)),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedSuppliers, "suppliers", 12, "number of suppliers")
	seedCmd.Flags().IntVar(&seedProducts, "products", 24, "number of distinct products")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 60, "number of orders")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed")
	rootCmd.AddCommand(seedCmd)
}
