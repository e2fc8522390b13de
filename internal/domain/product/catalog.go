// internal/domain/product/catalog.go
package product

import "github.com/shopspring/decimal"

// DemoCatalog returns the products seeded into an empty store in development
func DemoCatalog() []Product {
	return []Product{
		{
			Name:        "Ceramic Pour-Over Set",
			Price:       decimal.RequireFromString("34.00"),
			Description: "Hand-glazed dripper with matching carafe. Brews two cups.",
			ImageURL:    "https://images.pexels.com/photos/1695052/pexels-photo-1695052.jpeg",
			Stock:       40,
		},
		{
			Name:        "Linen Apron",
			Price:       decimal.RequireFromString("28.50"),
			Description: "Stonewashed linen with adjustable neck strap and two front pockets.",
			ImageURL:    "https://images.pexels.com/photos/4252137/pexels-photo-4252137.jpeg",
			Stock:       25,
		},
		{
			Name:        "Walnut Cutting Board",
			Price:       decimal.RequireFromString("59.99"),
			Description: "End-grain walnut board finished with food-safe oil.",
			ImageURL:    "https://images.pexels.com/photos/6996084/pexels-photo-6996084.jpeg",
			Stock:       12,
		},
		{
			Name:        "Cast Iron Skillet",
			Price:       decimal.RequireFromString("45.00"),
			Description: "Pre-seasoned 10 inch skillet for stovetop, oven and campfire.",
			ImageURL:    "https://images.pexels.com/photos/6107787/pexels-photo-6107787.jpeg",
			Stock:       30,
		},
		{
			Name:        "Stoneware Mug",
			Price:       decimal.RequireFromString("16.00"),
			Description: "12 oz speckled mug, dishwasher and microwave safe.",
			ImageURL:    "https://images.pexels.com/photos/1566308/pexels-photo-1566308.jpeg",
			Stock:       100,
		},
		{
			Name:        "Beeswax Candle",
			Price:       decimal.RequireFromString("12.75"),
			Description: "Pure beeswax pillar candle with cotton wick. Burns for 40 hours.",
			ImageURL:    "https://images.pexels.com/photos/278549/pexels-photo-278549.jpeg",
			Stock:       60,
		},
	}
}
