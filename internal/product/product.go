package product

import "github.com/shopspring/decimal"

// Product represents a catalogue entry and maps to the `products` table.
// The cart and checkout code only ever read products.
type Product struct {
	ID    int             `json:"productId"`
	Name  string          `json:"productName"`
	Price decimal.Decimal `json:"productPrice"`
	Image string          `json:"productImage"`
}

// SampleProducts is the catalogue installed on an empty database when
// seeding is enabled.
var SampleProducts = []Product{
	{Name: "Cat Scratcher Bed", Price: decimal.RequireFromString("8400.00"), Image: "/shopping/cat-bed.svg"},
	{Name: "Double Food Bowl", Price: decimal.RequireFromString("4200.00"), Image: "/shopping/double-bowl.svg"},
	{Name: "Cat Sweater", Price: decimal.RequireFromString("2600.00"), Image: "/shopping/cat-sweater.svg"},
	{Name: "Cheese Cat House", Price: decimal.RequireFromString("3990.00"), Image: "/shopping/cheese-house.svg"},
}
