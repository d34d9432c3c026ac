package store

import (
	"context"
	"fmt"

	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, price, category, owner_id, stock, image_url, is_active, tags_json, history_json, created_at, updated_at`

// ProductStore persists products together with their embedded update history.
type ProductStore struct {
	db *sqlx.DB
}

// NewProductStore creates a new ProductStore.
func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

// Create adds a new product to the database.
func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	product.PrepareForSave()
	const query = `
		INSERT INTO products (id, name, description, price, category, owner_id, stock, image_url, is_active,
		                      tags_json, history_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Category,
		product.OwnerID, product.Stock, product.ImageURL, product.IsActive,
		product.TagsJSON, product.HistoryJSON, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID.
func (s *ProductStore) GetByID(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return models.Product{}, fmt.Errorf("product with id %s: %w", id, apperr.ErrNotFound)
		}
		return models.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	product.PrepareForAPI()
	return product, nil
}

// List retrieves all products, newest first.
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	for i := range products {
		products[i].PrepareForAPI()
	}
	return products, nil
}

// Update overwrites the mutable columns of a product. The owner column is never written.
// Concurrent updates of the same row are last-write-wins.
func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	product.PrepareForSave()
	const query = `
		UPDATE products SET name = ?, description = ?, price = ?, category = ?, stock = ?,
		                    image_url = ?, is_active = ?, tags_json = ?, history_json = ?, updated_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Category, product.Stock,
		product.ImageURL, product.IsActive, product.TagsJSON, product.HistoryJSON, product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product with id %s: %w", product.ID, apperr.ErrNotFound)
	}
	return nil
}

// Delete removes a product from the database. There is no tombstone.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product with id %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
