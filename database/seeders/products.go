package seeders

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/productd/app/models"
)

func init() {
	Register("products", SeedProducts)
}

func sample(title string, price, rating float64, phone, description string) models.ProductInput {
	return models.ProductInput{
		Title:       &title,
		Price:       &price,
		Phone:       &phone,
		Rating:      &rating,
		Description: &description,
	}
}

// SampleProducts is the catalogue inserted by `productd seed`.
func SampleProducts() []models.ProductInput {
	return []models.ProductInput{
		sample("Oppo A9", 210, 4.2, "555-201-0009", "RAM: 8GB, ROM: 128"),
		sample("Oppo A9 2020", 215, 4.4, "555-201-2020", "RAM: 4GB, ROM: 128"),
		sample("Oppo A6", 240, 3.9, "555-201-0006", "RAM: 8GB, ROM: 128"),
		sample("Oppo A50", 220, 4.0, "555-201-0050", "RAM: 6GB, ROM: 64"),
	}
}

func SeedProducts(ctx context.Context, c Creator) error {
	for _, in := range SampleProducts() {
		if _, err := c.Create(ctx, in); err != nil {
			return fmt.Errorf("create %q: %w", *in.Title, err)
		}
	}
	return nil
}
