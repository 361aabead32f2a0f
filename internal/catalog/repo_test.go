package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  brand_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  sku TEXT NOT NULL,
  category TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  discount_price_cents INTEGER,
  loyalty_points_earn INTEGER NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  is_duty_free INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, sku, category string, priceCents, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		BrandID:    uuid.New(),
		Name:       name,
		SKU:        sku,
		Category:   category,
		PriceCents: priceCents,
		Stock:      stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestFindByIDReturnsProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedProduct(t, db, "Travel Pillow", "SKU-001", "comfort", 2499, 10)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, 2499, found.PriceCents)
}

func TestFindByIDMissingReturnsError(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindByIDsReturnsOnlyRequested(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	a := seedProduct(t, db, "Perfume", "SKU-010", "beauty", 8900, 5)
	b := seedProduct(t, db, "Chocolate Box", "SKU-011", "food", 1500, 20)
	seedProduct(t, db, "Headphones", "SKU-012", "electronics", 19900, 3)

	products, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestFindByIDsEmptyInput(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	products, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListFiltersByCategoryAndStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProduct(t, db, "Perfume", "SKU-020", "beauty", 8900, 5)
	seedProduct(t, db, "Lipstick", "SKU-021", "beauty", 2100, 0)
	seedProduct(t, db, "Chocolate Box", "SKU-022", "food", 1500, 20)

	products, err := repo.List(ctx, Filters{Category: "beauty", InStock: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Perfume", products[0].Name)
}

func TestListQueryMatchesName(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProduct(t, db, "Noise Cancelling Headphones", "SKU-030", "electronics", 19900, 3)
	seedProduct(t, db, "Travel Adapter", "SKU-031", "electronics", 1200, 7)

	products, err := repo.List(ctx, Filters{Query: "Headphones"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-030", products[0].SKU)
}
