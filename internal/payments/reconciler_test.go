package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/internal/cart"
	"github.com/skybazaar/skybazaar-backend/internal/orders"
	"github.com/skybazaar/skybazaar-backend/internal/users"
	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  wallet_balance_cents INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  shipping_fee_cents INTEGER NOT NULL DEFAULT 0,
  loyalty_points_used INTEGER NOT NULL DEFAULT 0,
  wallet_amount_used_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  loyalty_points_earned INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'usd',
  delivery_type TEXT NOT NULL,
  delivery_details TEXT,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  order_status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  loyalty_points_earn INTEGER NOT NULL DEFAULT 0,
  variant TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS tracking_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS payment_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  session_id TEXT NOT NULL UNIQUE,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  payment_status TEXT NOT NULL DEFAULT 'initiated',
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  variant TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type reconcilerFixture struct {
	db         *gorm.DB
	reconciler Reconciler
	user       *models.User
	order      *models.Order
	txn        *models.PaymentTransaction
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	db := setupPaymentsTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "payments-test"})

	rec, err := NewReconciler(
		gormTxRunner{db: db},
		NewRepository(db),
		orders.NewRepository(db),
		users.NewRepository(db),
		cart.NewRepository(db),
		logg,
	)
	require.NoError(t, err)

	user := &models.User{
		ID:                 uuid.New(),
		Email:              uuid.NewString() + "@example.com",
		PasswordHash:       "hashed",
		FullName:           "Test Traveler",
		IsActive:           true,
		LoyaltyPoints:      3000,
		WalletBalanceCents: 5000,
	}
	require.NoError(t, db.Create(user).Error)

	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                user.ID,
		SubtotalCents:         10000,
		ShippingFeeCents:      500,
		LoyaltyPointsUsed:     2000,
		WalletAmountUsedCents: 1000,
		TotalCents:            7500,
		LoyaltyPointsEarned:   150,
		Currency:              "usd",
		DeliveryType:          enums.DeliveryTypeHome,
		PaymentStatus:         enums.PaymentStatusInitiated,
		OrderStatus:           enums.OrderStatusPending,
	}
	require.NoError(t, db.Omit("Items", "TrackingEvents").Create(order).Error)

	txn := &models.PaymentTransaction{
		ID:            uuid.New(),
		UserID:        user.ID,
		OrderID:       order.ID,
		SessionID:     "cs_test_" + uuid.NewString()[:8],
		AmountCents:   7500,
		Currency:      "usd",
		PaymentStatus: enums.PaymentStatusInitiated,
	}
	require.NoError(t, db.Create(txn).Error)

	cartRecord := &models.CartRecord{ID: uuid.New(), UserID: user.ID}
	require.NoError(t, db.Omit("Items").Create(cartRecord).Error)
	require.NoError(t, db.Create(&models.CartItem{
		ID:        uuid.New(),
		CartID:    cartRecord.ID,
		ProductID: uuid.New(),
		Quantity:  1,
	}).Error)

	return &reconcilerFixture{db: db, reconciler: rec, user: user, order: order, txn: txn}
}

func TestApplyPaidCommitsFullEffectSet(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	result, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)

	var order models.Order
	require.NoError(t, f.db.Where("id = ?", f.order.ID).First(&order).Error)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, order.OrderStatus)

	var txn models.PaymentTransaction
	require.NoError(t, f.db.Where("id = ?", f.txn.ID).First(&txn).Error)
	assert.Equal(t, enums.PaymentStatusPaid, txn.PaymentStatus)

	// 3000 - 2000 used + 150 earned; 5000 - 1000 used
	var user models.User
	require.NoError(t, f.db.Where("id = ?", f.user.ID).First(&user).Error)
	assert.Equal(t, 1150, user.LoyaltyPoints)
	assert.Equal(t, 4000, user.WalletBalanceCents)

	var events []models.TrackingEvent
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, TrackingStatusConfirmed, events[0].Status)

	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartRecord{}).Where("user_id = ?", f.user.ID).Count(&cartCount).Error)
	assert.Zero(t, cartCount)
}

func TestApplyPaidTwiceMutatesOnce(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	first, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	assert.False(t, second.Applied)

	var user models.User
	require.NoError(t, f.db.Where("id = ?", f.user.ID).First(&user).Error)
	assert.Equal(t, 1150, user.LoyaltyPoints)
	assert.Equal(t, 4000, user.WalletBalanceCents)

	var events []models.TrackingEvent
	require.NoError(t, f.db.Where("order_id = ?", f.order.ID).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestApplyFailedMutatesNoBalances(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	result, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusFailed)
	require.NoError(t, err)
	assert.True(t, result.Applied)

	var order models.Order
	require.NoError(t, f.db.Where("id = ?", f.order.ID).First(&order).Error)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, order.OrderStatus)

	var user models.User
	require.NoError(t, f.db.Where("id = ?", f.user.ID).First(&user).Error)
	assert.Equal(t, 3000, user.LoyaltyPoints)
	assert.Equal(t, 5000, user.WalletBalanceCents)

	// cart retained so checkout can retry
	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartRecord{}).Where("user_id = ?", f.user.ID).Count(&cartCount).Error)
	assert.EqualValues(t, 1, cartCount)
}

func TestFailureAfterPaidDoesNotDowngrade(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusPaid)
	require.NoError(t, err)

	result, err := f.reconciler.ApplyStatus(ctx, f.txn.SessionID, enums.PaymentStatusFailed)
	require.NoError(t, err)
	assert.False(t, result.Applied)

	var order models.Order
	require.NoError(t, f.db.Where("id = ?", f.order.ID).First(&order).Error)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
}

func TestApplyInFlightStatusIsNoop(t *testing.T) {
	f := newReconcilerFixture(t)

	result, err := f.reconciler.ApplyStatus(context.Background(), f.txn.SessionID, enums.PaymentStatusInitiated)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, enums.PaymentStatusInitiated, result.PaymentStatus)
}

func TestApplyUnknownSessionReturnsNotFound(t *testing.T) {
	f := newReconcilerFixture(t)

	_, err := f.reconciler.ApplyStatus(context.Background(), "cs_test_missing", enums.PaymentStatusPaid)
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}
