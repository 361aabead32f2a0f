package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/internal/cart"
	"github.com/skybazaar/skybazaar-backend/internal/catalog"
	"github.com/skybazaar/skybazaar-backend/internal/orders"
	"github.com/skybazaar/skybazaar-backend/internal/payments"
	"github.com/skybazaar/skybazaar-backend/internal/users"
	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
	"github.com/skybazaar/skybazaar-backend/pkg/stripe"
	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutSessionInput) (*stripe.CheckoutSession, error)
	GetCheckoutStatus(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// CalculateInput carries the client-selected checkout options.
type CalculateInput struct {
	DeliveryType           enums.DeliveryType
	LoyaltyPointsRequested int
	WalletCentsRequested   int
}

// CreatePaymentInput extends CalculateInput with the delivery destination
// snapshotted onto the order.
type CreatePaymentInput struct {
	CalculateInput
	DeliveryDetails *types.DeliveryDetails
}

// PaymentRedirect is returned to the client so it can hand the shopper to
// the gateway's hosted page.
type PaymentRedirect struct {
	OrderID     uuid.UUID `json:"order_id"`
	SessionID   string    `json:"session_id"`
	RedirectURL string    `json:"redirect_url"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

// Options carries the static wiring the checkout service needs.
type Options struct {
	FrontendURL string
	Currency    string
	ProductName string
}

// Service orchestrates the checkout flow: pricing, order creation, and the
// handoff to the payment gateway.
type Service interface {
	Calculate(ctx context.Context, userID uuid.UUID, input CalculateInput) (*Quote, error)
	CreatePayment(ctx context.Context, userID uuid.UUID, input CreatePaymentInput) (*PaymentRedirect, error)
	Status(ctx context.Context, userID uuid.UUID, sessionID string) (*payments.Result, error)
}

type service struct {
	tx           txRunner
	cartRepo     cart.Repository
	productRepo  catalog.Repository
	usersRepo    users.Repository
	ordersRepo   orders.Repository
	paymentsRepo payments.Repository
	reconciler   payments.Reconciler
	gateway      gateway
	opts         Options
	logg         *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	productRepo catalog.Repository,
	usersRepo users.Repository,
	ordersRepo orders.Repository,
	paymentsRepo payments.Repository,
	reconciler payments.Reconciler,
	gw gateway,
	opts Options,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if paymentsRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if opts.FrontendURL == "" {
		return nil, fmt.Errorf("frontend url required")
	}
	if opts.Currency == "" {
		opts.Currency = enums.CurrencyUSD.String()
	} else {
		currency, err := enums.ParseCurrency(opts.Currency)
		if err != nil {
			return nil, err
		}
		opts.Currency = currency.String()
	}
	if opts.ProductName == "" {
		opts.ProductName = "SkyBazaar order"
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:           tx,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		usersRepo:    usersRepo,
		ordersRepo:   ordersRepo,
		paymentsRepo: paymentsRepo,
		reconciler:   reconciler,
		gateway:      gw,
		opts:         opts,
		logg:         logg,
	}, nil
}

// pricedCart pairs the computed quote with the line snapshots it was priced
// from, so order creation writes exactly what was quoted.
type pricedCart struct {
	quote Quote
	lines []models.OrderLineItem
	user  *models.User
}

func (s *service) Calculate(ctx context.Context, userID uuid.UUID, input CalculateInput) (*Quote, error) {
	priced, err := s.price(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	return &priced.quote, nil
}

func (s *service) CreatePayment(ctx context.Context, userID uuid.UUID, input CreatePaymentInput) (*PaymentRedirect, error) {
	if err := validateDeliveryDetails(input.DeliveryType, input.DeliveryDetails); err != nil {
		return nil, err
	}

	priced, err := s.price(ctx, userID, input.CalculateInput)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                userID,
		SubtotalCents:         priced.quote.SubtotalCents,
		ShippingFeeCents:      priced.quote.ShippingFeeCents,
		LoyaltyPointsUsed:     priced.quote.LoyaltyPointsUsed,
		WalletAmountUsedCents: priced.quote.WalletAmountUsedCents,
		TotalCents:            priced.quote.TotalCents,
		LoyaltyPointsEarned:   priced.quote.LoyaltyPointsToEarn,
		Currency:              s.opts.Currency,
		DeliveryType:          input.DeliveryType,
		DeliveryDetails:       input.DeliveryDetails,
		PaymentStatus:         enums.PaymentStatusPending,
		OrderStatus:           enums.OrderStatusPending,
	}

	// The cart is intentionally not cleared here; it survives until the
	// payment is confirmed so a failed attempt can be retried.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		lines := make([]models.OrderLineItem, len(priced.lines))
		copy(lines, priced.lines)
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateLineItems(ctx, lines); err != nil {
			return fmt.Errorf("creating order line items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order created, opening payment session")

	return s.openSession(ctx, order)
}

// openSession brokers the hosted payment session. The transaction row is
// written only after the gateway call succeeds, so a gateway failure leaves
// just the pending order behind and checkout can be retried.
func (s *service) openSession(ctx context.Context, order *models.Order) (*PaymentRedirect, error) {
	if order.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive").
			WithDetails(map[string]any{"order_id": order.ID, "total_cents": order.TotalCents})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionInput{
		AmountCents: int64(order.TotalCents),
		Currency:    order.Currency,
		ProductName: s.opts.ProductName,
		SuccessURL:  s.opts.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.opts.FrontendURL + "/checkout/cancel",
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		ID:            uuid.New(),
		UserID:        order.UserID,
		OrderID:       order.ID,
		SessionID:     session.SessionID,
		AmountCents:   order.TotalCents,
		Currency:      order.Currency,
		PaymentStatus: enums.PaymentStatusInitiated,
	}
	if _, err := s.paymentsRepo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment transaction")
	}

	ctx = s.logg.WithSessionID(ctx, session.SessionID)
	s.logg.Info(ctx, "payment session opened")

	return &PaymentRedirect{
		OrderID:     order.ID,
		SessionID:   session.SessionID,
		RedirectURL: session.URL,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
	}, nil
}

// Status polls the gateway for the session's outcome and reconciles it into
// local state. Polling and webhook delivery race; the reconciler makes the
// race harmless.
func (s *service) Status(ctx context.Context, userID uuid.UUID, sessionID string) (*payments.Result, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	txn, err := s.paymentsRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment transaction")
	}
	if txn.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
	}

	session, err := s.gateway.GetCheckoutStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.reconciler.ApplyStatus(ctx, sessionID, session.PaymentStatusOf())
}

// price loads the user and cart, snapshots the lines, and computes the
// quote. It writes nothing.
func (s *service) price(ctx context.Context, userID uuid.UUID, input CalculateInput) (*pricedCart, error) {
	if !input.DeliveryType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	if input.LoyaltyPointsRequested < 0 || input.WalletCentsRequested < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested discounts cannot be negative")
	}

	user, err := s.usersRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	if input.LoyaltyPointsRequested > user.LoyaltyPoints {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty points requested exceed balance").
			WithDetails(map[string]any{"requested": input.LoyaltyPointsRequested, "available": user.LoyaltyPoints})
	}

	record, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := 0
	pointsToEarn := 0
	lines := make([]models.OrderLineItem, 0, len(record.Items))
	for _, item := range record.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart references a product that no longer exists").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		unit := product.UnitPriceCents()
		subtotal += unit * item.Quantity
		pointsToEarn += product.LoyaltyPointsEarn * item.Quantity
		lines = append(lines, models.OrderLineItem{
			ID:                uuid.New(),
			ProductID:         product.ID,
			Name:              product.Name,
			SKU:               product.SKU,
			UnitPriceCents:    unit,
			Quantity:          item.Quantity,
			LoyaltyPointsEarn: product.LoyaltyPointsEarn,
			Variant:           item.Variant,
		})
	}

	quote := ComputeQuote(QuoteInput{
		SubtotalCents:          subtotal,
		DeliveryType:           input.DeliveryType,
		LoyaltyPointsRequested: input.LoyaltyPointsRequested,
		WalletCentsRequested:   input.WalletCentsRequested,
		LoyaltyPointsBalance:   user.LoyaltyPoints,
		WalletBalanceCents:     user.WalletBalanceCents,
		LoyaltyPointsToEarn:    pointsToEarn,
	})

	return &pricedCart{quote: quote, lines: lines, user: user}, nil
}

func validateDeliveryDetails(deliveryType enums.DeliveryType, details *types.DeliveryDetails) error {
	if details == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery details required")
	}

	switch deliveryType {
	case enums.DeliveryTypeAirport:
		if details.Terminal == nil || *details.Terminal == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "terminal required for airport delivery")
		}
	case enums.DeliveryTypeHome:
		if details.Address == nil || *details.Address == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "address required for home delivery")
		}
	}
	return nil
}
