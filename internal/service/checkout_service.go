package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/sneaker-checkout/internal/metrics"
	"github.com/fairyhunter13/sneaker-checkout/internal/model"
	"github.com/fairyhunter13/sneaker-checkout/internal/pricing"
	"github.com/fairyhunter13/sneaker-checkout/internal/promotion"
)

const (
	flowCheckout    = "checkout"
	flowManualOrder = "manual_order"
	flowQuote       = "quote"

	orderNumberPrefix = "SNK"
)

// CheckoutRepositories groups the stores the settlement reads and mutates.
type CheckoutRepositories struct {
	Products  ProductRepositoryInterface
	Discounts DiscountRepositoryInterface
	GiftCards GiftCardRepositoryInterface
	Orders    OrderRepositoryInterface
}

// CheckoutOptions tunes retries, shipping and promotion policy.
type CheckoutOptions struct {
	MaxAttempts       int
	RetryBackoff      time.Duration
	ShippingFlatRate  decimal.Decimal
	StrictPromotions  bool
	LookupConcurrency int
	Metrics           *metrics.CheckoutMetrics
}

// CheckoutService turns carts into persisted orders.
//
// A settlement moves through validating, pricing, reserving and committing.
// All mutations happen in one transaction using conditional updates, taken in a
// fixed order: discount usage, gift card debit, order insert, then inventory by
// product id. A lost race rolls everything back and the whole settlement is
// retried up to MaxAttempts times, unless the retry would lose a promotion the
// conflicted attempt had applied; that ends in a conflict instead.
type CheckoutService struct {
	pool      TxBeginner
	repos     CheckoutRepositories
	discounts *promotion.DiscountValidator
	giftCards *promotion.GiftCardValidator
	opts      CheckoutOptions

	now            func() time.Time
	newOrderNumber func(now time.Time) string
}

// NewCheckoutService creates a new CheckoutService with the given pool and repositories.
func NewCheckoutService(pool *pgxpool.Pool, repos CheckoutRepositories, opts CheckoutOptions) *CheckoutService {
	return NewCheckoutServiceWithTxBeginner(pool, repos, opts)
}

// NewCheckoutServiceWithTxBeginner creates a CheckoutService with a custom TxBeginner.
// Primarily used for testing.
func NewCheckoutServiceWithTxBeginner(pool TxBeginner, repos CheckoutRepositories, opts CheckoutOptions) *CheckoutService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.LookupConcurrency < 1 {
		opts.LookupConcurrency = 1
	}
	if opts.ShippingFlatRate.IsNegative() {
		opts.ShippingFlatRate = decimal.Zero
	}

	s := &CheckoutService{
		pool:           pool,
		repos:          repos,
		giftCards:      promotion.NewGiftCardValidator(repos.GiftCards),
		opts:           opts,
		now:            time.Now,
		newOrderNumber: generateOrderNumber,
	}
	s.discounts = promotion.NewDiscountValidatorWithClock(repos.Discounts, func() time.Time { return s.now() })
	return s
}

// settlementPlan is the priced, validated cart that the commit phase applies.
type settlementPlan struct {
	items      []model.OrderLineItem
	quantities map[uuid.UUID]int
	breakdown  pricing.Breakdown
	discount   *promotion.DiscountApplication
	giftCard   *promotion.GiftCardApplication
	notices    []model.PromotionNotice
}

func (p *settlementPlan) totals() model.PriceBreakdown {
	return model.PriceBreakdown{
		Subtotal:       p.breakdown.Subtotal,
		DiscountAmount: p.breakdown.Discount,
		GiftCardAmount: p.breakdown.GiftCard,
		ShippingCost:   p.breakdown.Shipping,
		Total:          p.breakdown.Total,
	}
}

// Checkout settles a customer cart into a pending order.
// Failures are returned as *CheckoutError.
func (s *CheckoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	return s.settle(ctx, flowCheckout, req, model.OrderStatusPending)
}

// CreateManualOrder settles a back-office order. It goes through the same checks and
// mutations as Checkout but starts out confirmed.
func (s *CheckoutService) CreateManualOrder(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	return s.settle(ctx, flowManualOrder, req, model.OrderStatusConfirmed)
}

// Quote prices a cart without reserving anything. Customer and address are not required.
func (s *CheckoutService) Quote(ctx context.Context, req *model.CheckoutRequest) (*model.QuoteResponse, error) {
	start := time.Now()

	resp, err := s.quote(ctx, req)
	s.observe(flowQuote, err, time.Since(start))
	return resp, err
}

func (s *CheckoutService) quote(ctx context.Context, req *model.CheckoutRequest) (*model.QuoteResponse, error) {
	cart, err := parseCart(req)
	if err != nil {
		return nil, err
	}

	plan, err := s.prepare(ctx, cart, req.DiscountCode, req.GiftCardCode)
	if err != nil {
		return nil, err
	}

	return &model.QuoteResponse{
		Items:   plan.items,
		Totals:  plan.totals(),
		Notices: plan.notices,
	}, nil
}

func (s *CheckoutService) settle(ctx context.Context, flow string, req *model.CheckoutRequest, status model.OrderStatus) (*model.CheckoutResponse, error) {
	start := time.Now()

	resp, err := s.runSettlement(ctx, flow, req, status)
	s.observe(flow, err, time.Since(start))
	return resp, err
}

func (s *CheckoutService) runSettlement(ctx context.Context, flow string, req *model.CheckoutRequest, status model.OrderStatus) (*model.CheckoutResponse, error) {
	cart, err := parseCart(req)
	if err != nil {
		return nil, err
	}
	if err := checkContact(req); err != nil {
		return nil, err
	}

	var (
		lastConflict *CheckoutError
		previous     *settlementPlan
	)
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.backoff(ctx, attempt-1); err != nil {
				return nil, serverError(StageValidating, SubStepNone, err)
			}
		}

		plan, err := s.prepare(ctx, cart, req.DiscountCode, req.GiftCardCode)
		if err != nil {
			if previous != nil {
				if rej, ok := promotion.AsRejection(err); ok {
					step := SubStepGiftCardDebit
					if rej.Kind == promotion.KindDiscount {
						step = SubStepDiscountUsage
					}
					return nil, conflictError(StageReserving, step, fmt.Errorf("%w: %w", ErrConflict, rej))
				}
			}
			return nil, err
		}
		if ce := lostPromotion(previous, plan); ce != nil {
			log.Warn().
				Str("flow", flow).
				Str("sub_step", string(ce.SubStep)).
				Int("attempt", attempt).
				Msg("promotion claimed by a concurrent order")
			return nil, ce
		}

		order := s.buildOrder(plan, req, status)
		err = s.commit(ctx, plan, order)
		if err == nil {
			log.Info().
				Str("flow", flow).
				Str("stage", string(StageDone)).
				Str("order_number", order.OrderNumber).
				Str("total", order.Total.StringFixed(2)).
				Int("attempt", attempt).
				Int("notices", len(plan.notices)).
				Msg("settlement committed")
			return &model.CheckoutResponse{Order: order, Notices: plan.notices}, nil
		}

		ce, ok := AsCheckoutError(err)
		if !ok || !ce.Retryable() {
			return nil, err
		}
		lastConflict = ce
		previous = plan
		s.opts.Metrics.IncConflictRetry(string(ce.SubStep))
		log.Warn().
			Err(ce.Err).
			Str("flow", flow).
			Str("stage", string(ce.Stage)).
			Str("sub_step", string(ce.SubStep)).
			Int("attempt", attempt).
			Int("max_attempts", s.opts.MaxAttempts).
			Msg("settlement conflicted, rolled back")
	}

	return nil, lastConflict
}

// lostPromotion compares a retry's plan with the one that conflicted. A discount that
// no longer applies, or a gift card balance below the amount already applied, means a
// concurrent order won the promotion and the retry must not settle at a higher price.
func lostPromotion(previous, plan *settlementPlan) *CheckoutError {
	if previous == nil {
		return nil
	}
	if previous.discount != nil {
		if plan.discount == nil || plan.discount.DiscountID != previous.discount.DiscountID {
			return conflictError(StageReserving, SubStepDiscountUsage,
				fmt.Errorf("%w: discount %s no longer applies", ErrConflict, previous.discount.Code))
		}
	}
	if previous.giftCard != nil {
		if plan.giftCard == nil || plan.giftCard.GiftCardID != previous.giftCard.GiftCardID ||
			plan.giftCard.Balance.LessThan(previous.breakdown.GiftCard) {
			return conflictError(StageReserving, SubStepGiftCardDebit,
				fmt.Errorf("%w: gift card %s balance changed", ErrConflict, previous.giftCard.Code))
		}
	}
	return nil
}

// parseCart turns request lines into typed cart lines. No store access.
func parseCart(req *model.CheckoutRequest) ([]model.CartLine, error) {
	if req == nil {
		return nil, validationError(KindInvalidRequest, ErrInvalidRequest, "invalid request")
	}
	if len(req.Items) == 0 {
		return nil, validationError(KindEmptyCart, ErrEmptyCart, "your cart is empty")
	}

	cart := make([]model.CartLine, 0, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, validationError(KindInvalidRequest, ErrInvalidRequest,
				fmt.Sprintf("items[%d].product_id is not a valid id", i))
		}
		if item.Quantity < 1 {
			return nil, validationError(KindInvalidRequest, ErrInvalidRequest,
				fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
		cart = append(cart, model.CartLine{
			ProductID: id,
			Size:      strings.TrimSpace(item.Size),
			Quantity:  item.Quantity,
		})
	}
	return cart, nil
}

func checkContact(req *model.CheckoutRequest) error {
	if strings.TrimSpace(req.Customer.Email) == "" {
		return validationError(KindMissingCustomer, ErrMissingCustomer, "customer email is required")
	}

	addr := req.ShippingAddress
	if addr == nil {
		return validationError(KindMissingAddress, ErrMissingAddress, "shipping address is required")
	}
	required := []struct {
		field string
		value string
	}{
		{"line1", addr.Line1},
		{"city", addr.City},
		{"postal_code", addr.PostalCode},
		{"country", addr.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return validationError(KindMissingAddress, ErrMissingAddress,
				fmt.Sprintf("shipping address %s is required", r.field))
		}
	}
	return nil
}

// prepare runs the validating and pricing stages.
func (s *CheckoutService) prepare(ctx context.Context, cart []model.CartLine, discountCode, giftCardCode string) (*settlementPlan, error) {
	quantities := make(map[uuid.UUID]int, len(cart))
	ids := make([]uuid.UUID, 0, len(cart))
	for _, line := range cart {
		if _, seen := quantities[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	products, err := s.loadProducts(ctx, ids)
	if err != nil {
		return nil, serverError(StageValidating, SubStepNone, err)
	}

	for _, id := range ids {
		p := products[id]
		if !p.IsPurchasable() {
			return nil, productNotFoundError(id)
		}
		if quantities[id] > p.Quantity {
			return nil, insufficientStockError(id, p.Name, p.Quantity)
		}
	}

	items := make([]model.OrderLineItem, 0, len(cart))
	lines := make([]pricing.Line, 0, len(cart))
	for _, line := range cart {
		p := products[line.ProductID]
		items = append(items, model.OrderLineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   p.Price,
		})
		lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: line.Quantity})
	}

	subtotal := pricing.Subtotal(lines)
	discount, giftCard, notices, err := s.resolvePromotions(ctx, subtotal, discountCode, giftCardCode)
	if err != nil {
		return nil, err
	}

	in := pricing.Input{Lines: lines, Shipping: s.opts.ShippingFlatRate}
	if discount != nil {
		in.DiscountAmount = discount.Amount
	}
	if giftCard != nil {
		in.GiftCardBalance = giftCard.Balance
	}
	breakdown := pricing.Calculate(in)

	// Only instruments that actually reduced the total are mutated at commit.
	if !breakdown.Discount.IsPositive() {
		discount = nil
	}
	if !breakdown.GiftCard.IsPositive() {
		giftCard = nil
	}

	return &settlementPlan{
		items:      items,
		quantities: quantities,
		breakdown:  breakdown,
		discount:   discount,
		giftCard:   giftCard,
		notices:    notices,
	}, nil
}

// loadProducts reads every distinct product concurrently, bounded by LookupConcurrency.
// Missing products are absent from the returned map.
func (s *CheckoutService) loadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	found := make([]*model.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.LookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.repos.Products.GetByID(gctx, id)
			if err != nil {
				return fmt.Errorf("get product %s: %w", id, err)
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]*model.Product, len(ids))
	for i, id := range ids {
		if found[i] != nil {
			products[id] = found[i]
		}
	}
	return products, nil
}

// resolvePromotions validates both codes concurrently. Rejected codes become notices,
// or a PROMOTION_REJECTED failure in strict mode.
func (s *CheckoutService) resolvePromotions(ctx context.Context, subtotal decimal.Decimal, discountCode, giftCardCode string) (*promotion.DiscountApplication, *promotion.GiftCardApplication, []model.PromotionNotice, error) {
	var (
		discount    *promotion.DiscountApplication
		giftCard    *promotion.GiftCardApplication
		discountRej *promotion.Rejection
		giftCardRej *promotion.Rejection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app, err := s.discounts.Validate(gctx, discountCode, subtotal)
		if rej, ok := promotion.AsRejection(err); ok {
			discountRej = rej
			return nil
		}
		discount = app
		return err
	})
	g.Go(func() error {
		app, err := s.giftCards.Validate(gctx, giftCardCode)
		if rej, ok := promotion.AsRejection(err); ok {
			giftCardRej = rej
			return nil
		}
		giftCard = app
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, serverError(StagePricing, SubStepNone, err)
	}

	notices := []model.PromotionNotice{}
	for _, rej := range []*promotion.Rejection{discountRej, giftCardRej} {
		if rej == nil {
			continue
		}
		if s.opts.StrictPromotions {
			return nil, nil, nil, &CheckoutError{
				Kind:    KindPromotionRejected,
				Stage:   StagePricing,
				Message: rej.Message,
				Err:     fmt.Errorf("%w: %w", ErrPromotionRejected, rej),
			}
		}
		log.Warn().
			Str("code", rej.Code).
			Str("kind", string(rej.Kind)).
			Str("reason", string(rej.Reason)).
			Msg("promotion not applied")
		notices = append(notices, model.PromotionNotice{
			Code:    rej.Code,
			Kind:    string(rej.Kind),
			Reason:  string(rej.Reason),
			Message: rej.Message,
		})
	}
	return discount, giftCard, notices, nil
}

func (s *CheckoutService) buildOrder(plan *settlementPlan, req *model.CheckoutRequest, status model.OrderStatus) *model.Order {
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentMethodCard
	}

	order := &model.Order{
		ID:              uuid.New(),
		OrderNumber:     s.newOrderNumber(s.now()),
		CustomerEmail:   strings.TrimSpace(req.Customer.Email),
		CustomerName:    strings.TrimSpace(req.Customer.Name),
		CustomerPhone:   strings.TrimSpace(req.Customer.Phone),
		ShippingAddress: *req.ShippingAddress,
		Items:           plan.items,
		Subtotal:        plan.breakdown.Subtotal,
		DiscountAmount:  plan.breakdown.Discount,
		GiftCardAmount:  plan.breakdown.GiftCard,
		ShippingCost:    plan.breakdown.Shipping,
		Total:           plan.breakdown.Total,
		Status:          status,
		PaymentMethod:   paymentMethod,
	}
	if plan.discount != nil {
		code := plan.discount.Code
		order.DiscountCode = &code
	}
	if plan.giftCard != nil {
		code := plan.giftCard.Code
		order.GiftCardCode = &code
	}
	return order
}

// commit runs the reserving and committing stages in one transaction.
func (s *CheckoutService) commit(ctx context.Context, plan *settlementPlan, order *model.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return serverError(StageReserving, SubStepNone, fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Discount usage
	if plan.discount != nil {
		if err := s.repos.Discounts.IncrementUsage(ctx, tx, plan.discount.DiscountID); err != nil {
			return commitFailure(StageReserving, SubStepDiscountUsage, err)
		}
	}

	// 2. Gift card debit
	if plan.giftCard != nil {
		if err := s.repos.GiftCards.Debit(ctx, tx, plan.giftCard.GiftCardID, plan.breakdown.GiftCard); err != nil {
			return commitFailure(StageReserving, SubStepGiftCardDebit, err)
		}
	}

	// 3. Order header and line items
	if err := s.repos.Orders.Insert(ctx, tx, order); err != nil {
		return commitFailure(StageCommitting, SubStepOrderInsert, err)
	}

	// 4. Inventory, one row per product in id order
	for _, id := range sortedProductIDs(plan.quantities) {
		if err := s.repos.Products.DecrementStock(ctx, tx, id, plan.quantities[id]); err != nil {
			ce := commitFailure(StageCommitting, SubStepInventoryDecrement, err)
			ce.ProductID = id
			return ce
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return serverError(StageCommitting, SubStepNone, fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func commitFailure(stage Stage, step SubStep, err error) *CheckoutError {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrOrderNumberTaken) {
		return conflictError(stage, step, err)
	}
	return serverError(stage, step, err)
}

func sortedProductIDs(quantities map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// backoff waits a linearly growing, jittered delay before the next attempt.
func (s *CheckoutService) backoff(ctx context.Context, retry int) error {
	base := s.opts.RetryBackoff
	if base <= 0 {
		return ctx.Err()
	}
	delay := base*time.Duration(retry) + time.Duration(rand.Int64N(int64(base)))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *CheckoutService) observe(flow string, err error, d time.Duration) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(KindServerError)
		if ce, ok := AsCheckoutError(err); ok {
			outcome = string(ce.Kind)
		}
	}
	s.opts.Metrics.ObserveOutcome(flow, outcome, d)

	if err == nil {
		return
	}
	ce, ok := AsCheckoutError(err)
	if ok && ce.Kind != KindServerError {
		log.Info().
			Str("flow", flow).
			Str("kind", string(ce.Kind)).
			Str("stage", string(ce.Stage)).
			Str("sub_step", string(ce.SubStep)).
			Msg("settlement rejected")
		return
	}
	ev := log.Error().Err(err).Str("flow", flow)
	if ok {
		ev = ev.Str("stage", string(ce.Stage)).Str("sub_step", string(ce.SubStep))
	}
	ev.Msg("settlement failed")
}

// generateOrderNumber builds SNK-<base36 unix millis>-<4 hex>. The millisecond
// prefix keeps numbers roughly sortable; uniqueness is enforced by the database.
func generateOrderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s-%s",
		orderNumberPrefix,
		strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)),
		strings.ToUpper(hex.EncodeToString(id[:2])),
	)
}
