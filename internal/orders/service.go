package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
)

// TrackingStatusCancelled is appended to the tracking log when a buyer
// cancels an unpaid order.
const TrackingStatusCancelled = "Order Cancelled"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines buyer-facing order operations. All lookups are scoped to
// the requesting user; an order belonging to someone else reads as missing.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, filters Filters) ([]models.Order, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Tracking(ctx context.Context, userID, orderID uuid.UUID) ([]models.TrackingEvent, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filters Filters) ([]models.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return orders, nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// Cancel aborts an order whose payment never completed. Orders that are
// paid, already cancelled, or mid-fulfillment cannot be cancelled here.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Detail(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders cannot be cancelled")
	}
	if order.OrderStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		return repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  TrackingStatusCancelled,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}

	return s.Detail(ctx, userID, orderID)
}

func (s *service) Tracking(ctx context.Context, userID, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	// ownership check first
	if _, err := s.Detail(ctx, userID, orderID); err != nil {
		return nil, err
	}

	events, err := s.repo.ListTrackingEvents(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tracking events")
	}
	return events, nil
}
