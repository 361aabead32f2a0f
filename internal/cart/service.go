package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/internal/catalog"
	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

const maxItemQuantity = 99

// ItemView is one cart line joined with its current catalog snapshot.
type ItemView struct {
	ItemID         uuid.UUID      `json:"item_id"`
	ProductID      uuid.UUID      `json:"product_id"`
	Name           string         `json:"name"`
	SKU            string         `json:"sku"`
	UnitPriceCents int            `json:"unit_price_cents"`
	Quantity       int            `json:"quantity"`
	LineTotalCents int            `json:"line_total_cents"`
	ImageURL       *string        `json:"image_url,omitempty"`
	Variant        *types.JSONMap `json:"variant,omitempty"`
}

// View is the user's current cart with a running subtotal.
type View struct {
	CartID        uuid.UUID  `json:"cart_id"`
	Items         []ItemView `json:"items"`
	SubtotalCents int        `json:"subtotal_cents"`
}

// AddItemInput carries the fields accepted when adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Variant   *types.JSONMap
}

// Service exposes cart operations scoped to the authenticated user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products catalog.Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	record, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Items: []ItemView{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return s.buildView(ctx, record)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error) {
	if input.Quantity <= 0 || input.Quantity > maxItemQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 99")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product.Stock < input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
	}

	record, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}

	existing, err := s.repo.FindItem(ctx, record.ID, input.ProductID)
	switch {
	case err == nil:
		next := existing.Quantity + input.Quantity
		if next > maxItemQuantity {
			next = maxItemQuantity
		}
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, next); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: input.ProductID,
			Quantity:  input.Quantity,
			Variant:   input.Variant,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
		}

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 || quantity > maxItemQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 99")
	}

	record, err := s.ownedCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cartHasItem(record, itemID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	record, err := s.ownedCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cartHasItem(record, itemID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) ownedCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return record, nil
}

func cartHasItem(record *models.CartRecord, itemID uuid.UUID) bool {
	for _, item := range record.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func (s *service) buildView(ctx context.Context, record *models.CartRecord) (*View, error) {
	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &View{CartID: record.ID, Items: make([]ItemView, 0, len(record.Items))}
	for _, item := range record.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			// product removed from catalog after it was carted
			continue
		}
		unit := product.UnitPriceCents()
		lineTotal := unit * item.Quantity
		view.Items = append(view.Items, ItemView{
			ItemID:         item.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			SKU:            product.SKU,
			UnitPriceCents: unit,
			Quantity:       item.Quantity,
			LineTotalCents: lineTotal,
			ImageURL:       product.ImageURL,
			Variant:        item.Variant,
		})
		view.SubtotalCents += lineTotal
	}
	return view, nil
}
