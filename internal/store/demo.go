package store

import (
	"time"

	"github.com/shopspring/decimal"

	"stockpos/backend/internal/domain"
)

// DemoCatalog is the starter data used by the in-memory store and by empty
// SQL databases when demo seeding is enabled.
func DemoCatalog(now time.Time) ([]domain.Supplier, []domain.Product) {
	suppliers := []domain.Supplier{
		{ID: "sup-sodiam", Name: "Sodiam Distribution", Contact: "+225 07 00 11 22", Address: "Zone industrielle, Yopougon", CreatedAt: now},
		{ID: "sup-agrifresh", Name: "AgriFresh", Contact: "orders@agrifresh.example", Address: "Marché de gros, Bouaké", CreatedAt: now},
	}

	vat := decimal.NewFromInt(18)
	products := []domain.Product{
		{ID: "prd-rice-5kg", Name: "Rice 5kg", CategoryID: "grocery", SupplierID: "sup-sodiam", UnitPrice: decimal.NewFromInt(4500), Stock: 40, AlertThreshold: 10, LastPurchasePrice: decimal.NewFromInt(3600)},
		{ID: "prd-oil-1l", Name: "Vegetable Oil 1L", CategoryID: "grocery", SupplierID: "sup-sodiam", UnitPrice: decimal.NewFromInt(1500), Stock: 25, AlertThreshold: 8, LastPurchasePrice: decimal.NewFromInt(1150)},
		{ID: "prd-sugar-1kg", Name: "Sugar 1kg", CategoryID: "grocery", UnitPrice: decimal.NewFromInt(900), Stock: 6, AlertThreshold: 10, LastPurchasePrice: decimal.Zero},
		{ID: "prd-milk-400g", Name: "Powdered Milk 400g", CategoryID: "dairy", SupplierID: "sup-agrifresh", UnitPrice: decimal.NewFromInt(2800), Stock: 18, AlertThreshold: 5, LastPurchasePrice: decimal.NewFromInt(2200)},
		{ID: "prd-water-1-5l", Name: "Mineral Water 1.5L", CategoryID: "beverage", UnitPrice: decimal.NewFromInt(400), Stock: 120, AlertThreshold: 30, LastPurchasePrice: decimal.Zero},
		{ID: "prd-soap", Name: "Bath Soap", CategoryID: "household", UnitPrice: decimal.NewFromInt(350), Stock: 0, AlertThreshold: 12, LastPurchasePrice: decimal.Zero},
	}
	for i := range products {
		products[i].VATRate = vat
		products[i].BaselineStock = products[i].Stock
		products[i].CreatedAt = now
	}
	return suppliers, products
}
