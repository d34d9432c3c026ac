package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
)

// ProductServiceProvider defines the interface for product services.
type ProductServiceProvider interface {
	Create(ctx context.Context, owner models.User, in ProductInput) (models.Product, error)
	List(ctx context.Context, viewer models.User) ([]models.Product, error)
	Update(ctx context.Context, editor models.User, id string, patch ProductPatch) (models.Product, error)
	Delete(ctx context.Context, editor models.User, id string) error
}

// OwnerLookup batch-loads the users shown as product creators.
type OwnerLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// ProductInput is the create payload. It is also used to validate a merged update.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"max=1000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"max=50"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=30"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool    `json:"isActive"`
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	Stock       *int      `json:"stock"`
	Tags        *[]string `json:"tags"`
	ImageURL    *string   `json:"imageUrl"`
	IsActive    *bool     `json:"isActive"`
}

// ProductService provides business logic for owner-scoped product management.
type ProductService struct {
	products ProductRepository
	owners   OwnerLookup
	activity Recorder
	now      func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(products ProductRepository, owners OwnerLookup, activity Recorder) *ProductService {
	return &ProductService{
		products: products,
		owners:   owners,
		activity: activity,
		now:      time.Now,
	}
}

// Create stores a new product owned by owner. The owner always comes from the
// authenticated identity, never from the payload.
func (s *ProductService) Create(ctx context.Context, owner models.User, in ProductInput) (models.Product, error) {
	normalizeProductInput(&in)
	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	now := s.now().UTC()
	product := models.Product{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Description:   in.Description,
		Price:         *in.Price,
		Category:      in.Category,
		OwnerID:       owner.ID,
		ImageURL:      in.ImageURL,
		IsActive:      true,
		Tags:          in.Tags,
		UpdateHistory: []models.HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}

	if err := s.products.Create(ctx, &product); err != nil {
		return models.Product{}, err
	}
	summary := owner.Summary()
	product.CreatedBy = &summary

	s.activity.Record(ctx, ActivityInput{
		UserID:       owner.ID,
		Action:       models.ActionCreateProduct,
		ResourceType: models.ResourceProduct,
		ResourceID:   product.ID,
		Meta:         map[string]any{"name": product.Name, "price": product.Price},
	})
	return product, nil
}

// List returns every product, newest first, with its creator filled in. Products whose
// creator no longer exists are returned without one.
func (s *ProductService) List(ctx context.Context, viewer models.User) ([]models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(products))
	for _, p := range products {
		if !seen[p.OwnerID] {
			seen[p.OwnerID] = true
			ids = append(ids, p.OwnerID)
		}
	}
	if len(ids) > 0 {
		owners, err := s.owners.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.OwnerSummary, len(owners))
		for _, o := range owners {
			byID[o.ID] = o.Summary()
		}
		for i := range products {
			if summary, ok := byID[products[i].OwnerID]; ok {
				products[i].CreatedBy = &summary
			}
		}
	}

	s.activity.Record(ctx, ActivityInput{
		UserID:       viewer.ID,
		Action:       models.ActionGetProducts,
		ResourceType: models.ResourceProduct,
		Meta:         map[string]any{"count": len(products)},
	})
	return products, nil
}

// Update applies patch to a product owned by editor. The patch is merged onto the stored
// record and the result is validated as a whole. A history entry is appended only when at
// least one field actually changed.
func (s *ProductService) Update(ctx context.Context, editor models.User, id string, patch ProductPatch) (models.Product, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if current.OwnerID != editor.ID {
		return models.Product{}, apperr.New(apperr.ErrForbidden, "Forbidden: not the product owner")
	}

	merged := mergeProduct(current, patch)
	normalizeProductInput(&merged)
	if err := validateInput(merged); err != nil {
		return models.Product{}, err
	}

	next := current
	next.Name = merged.Name
	next.Description = merged.Description
	next.Price = *merged.Price
	next.Category = merged.Category
	next.Stock = *merged.Stock
	next.Tags = merged.Tags
	next.ImageURL = merged.ImageURL
	next.IsActive = *merged.IsActive

	changes := diffProduct(current, next)
	if len(changes) == 0 {
		next = current
	} else {
		now := s.now().UTC()
		next.UpdatedAt = now
		next.UpdateHistory = append(slices.Clone(current.UpdateHistory), models.HistoryEntry{
			EditorID:  editor.ID,
			Changes:   changes,
			UpdatedAt: now,
		})
		if err := s.products.Update(ctx, &next); err != nil {
			return models.Product{}, err
		}
	}
	summary := editor.Summary()
	next.CreatedBy = &summary

	if changes == nil {
		changes = map[string]models.FieldChange{}
	}
	s.activity.Record(ctx, ActivityInput{
		UserID:       editor.ID,
		Action:       models.ActionUpdateProduct,
		ResourceType: models.ResourceProduct,
		ResourceID:   next.ID,
		Meta:         map[string]any{"changes": changes},
	})
	return next, nil
}

// Delete removes a product owned by editor.
func (s *ProductService) Delete(ctx context.Context, editor models.User, id string) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.OwnerID != editor.ID {
		return apperr.New(apperr.ErrForbidden, "Forbidden: not the product owner")
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityInput{
		UserID:       editor.ID,
		Action:       models.ActionDeleteProduct,
		ResourceType: models.ResourceProduct,
		ResourceID:   id,
		Meta:         map[string]any{"name": current.Name},
	})
	return nil
}

func (s *ProductService) load(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Product{}, apperr.New(apperr.ErrNotFound, "Product not found")
	}
	return product, err
}

func normalizeProductInput(in *ProductInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
}

func mergeProduct(p models.Product, patch ProductPatch) ProductInput {
	merged := ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       &p.Price,
		Category:    p.Category,
		Stock:       &p.Stock,
		Tags:        slices.Clone(p.Tags),
		ImageURL:    p.ImageURL,
		IsActive:    &p.IsActive,
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Price != nil {
		merged.Price = patch.Price
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.Stock != nil {
		merged.Stock = patch.Stock
	}
	if patch.Tags != nil {
		merged.Tags = *patch.Tags
	}
	if patch.ImageURL != nil {
		merged.ImageURL = *patch.ImageURL
	}
	if patch.IsActive != nil {
		merged.IsActive = patch.IsActive
	}
	return merged
}

// diffProduct reports every mutable field whose value differs, keyed by its JSON name.
func diffProduct(before, after models.Product) map[string]models.FieldChange {
	changes := make(map[string]models.FieldChange)
	add := func(field string, from, to any) {
		changes[field] = models.FieldChange{Old: from, New: to}
	}
	if before.Name != after.Name {
		add("name", before.Name, after.Name)
	}
	if before.Description != after.Description {
		add("description", before.Description, after.Description)
	}
	if before.Price != after.Price {
		add("price", before.Price, after.Price)
	}
	if before.Category != after.Category {
		add("category", before.Category, after.Category)
	}
	if before.Stock != after.Stock {
		add("stock", before.Stock, after.Stock)
	}
	if !slices.Equal(before.Tags, after.Tags) {
		add("tags", before.Tags, after.Tags)
	}
	if before.ImageURL != after.ImageURL {
		add("imageUrl", before.ImageURL, after.ImageURL)
	}
	if before.IsActive != after.IsActive {
		add("isActive", before.IsActive, after.IsActive)
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}
