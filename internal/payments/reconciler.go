package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/internal/cart"
	"github.com/skybazaar/skybazaar-backend/internal/orders"
	"github.com/skybazaar/skybazaar-backend/internal/users"
	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
)

// TrackingStatusConfirmed is appended to the tracking log exactly once, when
// an order's payment is first confirmed.
const TrackingStatusConfirmed = "Order Confirmed"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result reports what a reconciliation attempt did.
type Result struct {
	OrderID       uuid.UUID           `json:"order_id"`
	SessionID     string              `json:"session_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	// Applied is false when the confirmation had already been processed and
	// this attempt changed nothing.
	Applied bool `json:"applied"`
}

// Reconciler applies gateway-reported payment outcomes to local state. Both
// the webhook handler and the status poll funnel through ApplyStatus, so a
// confirmation arriving on both paths still commits its effects once.
type Reconciler interface {
	ApplyStatus(ctx context.Context, sessionID string, status enums.PaymentStatus) (*Result, error)
}

type reconciler struct {
	tx         txRunner
	repo       Repository
	ordersRepo orders.Repository
	usersRepo  users.Repository
	cartRepo   cart.Repository
	logg       *logger.Logger
}

// NewReconciler builds the payment reconciler.
func NewReconciler(
	tx txRunner,
	repo Repository,
	ordersRepo orders.Repository,
	usersRepo users.Repository,
	cartRepo cart.Repository,
	logg *logger.Logger,
) (Reconciler, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &reconciler{
		tx:         tx,
		repo:       repo,
		ordersRepo: ordersRepo,
		usersRepo:  usersRepo,
		cartRepo:   cartRepo,
		logg:       logg,
	}, nil
}

func (r *reconciler) ApplyStatus(ctx context.Context, sessionID string, status enums.PaymentStatus) (*Result, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	txn, err := r.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment transaction")
	}

	ctx = r.logg.WithOrderID(ctx, txn.OrderID.String())
	ctx = r.logg.WithSessionID(ctx, sessionID)

	switch status {
	case enums.PaymentStatusPaid:
		return r.applyPaid(ctx, txn)
	case enums.PaymentStatusFailed:
		return r.applyFailed(ctx, txn)
	default:
		// still in flight, nothing to commit
		return &Result{
			OrderID:       txn.OrderID,
			SessionID:     sessionID,
			PaymentStatus: txn.PaymentStatus,
			Applied:       false,
		}, nil
	}
}

// applyPaid commits the full confirmation effect set in one transaction:
// transaction row, order flip, balance deltas, tracking event, cart delete.
// The order flip is the idempotence gate; when it reports no change the
// whole effect set is skipped.
func (r *reconciler) applyPaid(ctx context.Context, txn *models.PaymentTransaction) (*Result, error) {
	applied := false

	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := r.repo.WithTx(tx)
		ordersRepo := r.ordersRepo.WithTx(tx)
		usersRepo := r.usersRepo.WithTx(tx)
		cartRepo := r.cartRepo.WithTx(tx)

		changed, err := ordersRepo.MarkPaidIfNotAlready(ctx, txn.OrderID)
		if err != nil {
			return fmt.Errorf("marking order paid: %w", err)
		}
		if !changed {
			return nil
		}
		applied = true

		if err := paymentsRepo.UpdateStatus(ctx, txn.ID, enums.PaymentStatusPaid); err != nil {
			return fmt.Errorf("updating transaction status: %w", err)
		}

		order, err := ordersRepo.FindByID(ctx, txn.OrderID)
		if err != nil {
			return fmt.Errorf("loading order: %w", err)
		}

		adj := users.BalanceAdjustment{
			LoyaltyPointsDelta: order.LoyaltyPointsEarned - order.LoyaltyPointsUsed,
			WalletCentsDelta:   -order.WalletAmountUsedCents,
		}
		if err := usersRepo.AdjustBalances(ctx, order.UserID, adj); err != nil {
			return fmt.Errorf("adjusting balances: %w", err)
		}

		if err := ordersRepo.AppendTrackingEvent(ctx, &models.TrackingEvent{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  TrackingStatusConfirmed,
		}); err != nil {
			return fmt.Errorf("appending tracking event: %w", err)
		}

		if err := cartRepo.DeleteByUserID(ctx, order.UserID); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying payment confirmation")
	}

	if applied {
		r.logg.Info(ctx, "payment confirmed, order effects applied")
	} else {
		r.logg.Info(ctx, "payment confirmation already applied, skipping")
	}

	return &Result{
		OrderID:       txn.OrderID,
		SessionID:     txn.SessionID,
		PaymentStatus: enums.PaymentStatusPaid,
		Applied:       applied,
	}, nil
}

// applyFailed records the failure on the transaction and order rows. No
// balances move and the cart is retained so checkout can be retried.
func (r *reconciler) applyFailed(ctx context.Context, txn *models.PaymentTransaction) (*Result, error) {
	applied := false

	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := r.repo.WithTx(tx)
		ordersRepo := r.ordersRepo.WithTx(tx)

		changed, err := ordersRepo.MarkFailedIfNotPaid(ctx, txn.OrderID)
		if err != nil {
			return fmt.Errorf("marking order failed: %w", err)
		}
		if !changed {
			return nil
		}
		applied = true

		if err := paymentsRepo.UpdateStatus(ctx, txn.ID, enums.PaymentStatusFailed); err != nil {
			return fmt.Errorf("updating transaction status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying payment failure")
	}

	if applied {
		r.logg.Warn(ctx, "payment failed, order marked failed")
	}

	return &Result{
		OrderID:       txn.OrderID,
		SessionID:     txn.SessionID,
		PaymentStatus: enums.PaymentStatusFailed,
		Applied:       applied,
	}, nil
}
