package model

import "time"

// SupplierInfo is the compact supplier view embedded in analytics results.
type SupplierInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CheaperAlternative flags a stocked product that another supplier offers for
// meaningfully less.
type CheaperAlternative struct {
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	CurrentPrice    float64   `json:"current_price"`
	CurrentSupplier string    `json:"current_supplier_id"`
	CurrentName     string    `json:"current_supplier_name"`
	CurrentStock    int       `json:"current_stock"`
	AltSupplierID   string    `json:"alternative_supplier_id"`
	AltSupplierName string    `json:"alternative_supplier_name"`
	AltPhone        string    `json:"alternative_supplier_phone"`
	AltPrice        float64   `json:"alternative_price"`
	SavingsAmount   float64   `json:"savings_amount"`
	SavingsPercent  float64   `json:"savings_percent"`
	DeliveryDays    int       `json:"delivery_days"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AlternativesReport is the cheaper-alternatives query response.
type AlternativesReport struct {
	Alternatives      []CheaperAlternative `json:"alternatives"`
	TotalCount        int                  `json:"total_count"`
	MinSavingsPercent float64              `json:"min_savings_percent"`
}

// InnovativeProduct is a product suppliers offer but the store does not stock,
// aggregated across all offering suppliers.
type InnovativeProduct struct {
	ProductName     string         `json:"product_name"`
	SupplierCount   int            `json:"supplier_count"`
	AvgPrice        float64        `json:"avg_price"`
	MinPrice        float64        `json:"min_price"`
	MaxPrice        float64        `json:"max_price"`
	MinDeliveryDays int            `json:"min_delivery_days"`
	AvgDeliveryDays float64        `json:"avg_delivery_days"`
	Suppliers       []SupplierInfo `json:"suppliers"`
}

// DiscoveryReport is the innovative-products query response.
type DiscoveryReport struct {
	Products     []InnovativeProduct `json:"products"`
	TotalCount   int                 `json:"total_count"`
	MinSuppliers int                 `json:"min_suppliers"`
}

// SupplierScore is the weighted 0-100 performance rating for one supplier.
type SupplierScore struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Performance    float64  `json:"performance"`
	DeliveryScore  float64  `json:"delivery_score"`
	PriceScore     float64  `json:"price_score"`
	VolumeScore    float64  `json:"volume_score"`
	DiversityScore float64  `json:"diversity_score"`
	MonthlySpend   float64  `json:"monthly_spend"`
	Status         string   `json:"status"`
	Trend          string   `json:"trend"`
	Issues         []string `json:"issues"`
}

// ROIReport is the supplier ROI query response, sorted by performance
// descending with aggregate totals.
type ROIReport struct {
	Suppliers         []SupplierScore `json:"suppliers"`
	TotalCount        int             `json:"total_count"`
	TotalMonthlySpend float64         `json:"total_monthly_spend"`
	AvgPerformance    float64         `json:"avg_performance"`
	ExcellentCount    int             `json:"excellent_count"`
	WarningCount      int             `json:"warning_count"`
}
