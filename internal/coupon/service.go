package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kupon/internal/engine"
	"github.com/noah-isme/backend-kupon/internal/obs"
)

var (
	// ErrInactive is returned when applying a deactivated coupon.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when applying a coupon past its expiry.
	ErrExpired = errors.New("coupon expired")
	// ErrNotApplicable indicates the cart does not meet the coupon conditions.
	ErrNotApplicable = errors.New("coupon conditions not met for the current cart")
)

// Querier captures the storage methods required by the evaluation service.
type Querier interface {
	Get(ctx context.Context, id uuid.UUID) (Coupon, error)
	ListActive(ctx context.Context) ([]Coupon, error)
}

// Skip reasons recorded per coupon in the applicable-coupons flow.
const (
	SkipExpired        = "expired"
	SkipInvalidDetails = "invalid_details"
	SkipUnsupported    = "unsupported_kind"
	SkipNoDiscount     = "no_discount"
)

// Evaluation is the outcome of evaluating one coupon against a cart: either
// a positive discount or a skip with its reason. Malformed records are
// reported, never silently dropped.
type Evaluation struct {
	CouponID uuid.UUID
	Kind     engine.Kind
	Discount engine.Money
	Reason   string
}

// Applicable reports whether the coupon produced a usable discount.
func (e Evaluation) Applicable() bool {
	return e.Reason == ""
}

// ApplyResult is a coupon applied to a cart together with the original and
// final cart totals.
type ApplyResult struct {
	Kind          engine.Kind
	Result        engine.Result
	OriginalTotal engine.Money
	FinalTotal    engine.Money
}

// Service evaluates stored coupons against carts.
type Service struct {
	Q     Querier
	Cache *Cache
	Log   zerolog.Logger
	Now   func() time.Time
}

// Applicable evaluates every active coupon against the cart and returns one
// outcome per coupon.
func (s *Service) Applicable(ctx context.Context, items []engine.Item) ([]Evaluation, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	coupons, err := s.Q.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Evaluation, 0, len(coupons))
	for _, c := range coupons {
		ev := s.evaluate(c, items, now)
		s.observe(c.Kind, ev.Reason)
		if ev.Reason != "" && ev.Reason != SkipNoDiscount {
			s.Log.Warn().
				Str("coupon_id", c.ID.String()).
				Str("kind", string(c.Kind)).
				Str("reason", ev.Reason).
				Msg("coupon skipped")
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Service) evaluate(c Coupon, items []engine.Item, now time.Time) Evaluation {
	ev := Evaluation{CouponID: c.ID, Kind: c.Kind}
	if engine.IsExpired(c.ExpiresAt, now) {
		ev.Reason = SkipExpired
		return ev
	}
	details, err := DecodeDetails(c.Kind, c.Details)
	if err != nil {
		if errors.Is(err, engine.ErrUnsupportedKind) {
			ev.Reason = SkipUnsupported
		} else {
			ev.Reason = SkipInvalidDetails
		}
		return ev
	}
	res, err := engine.Evaluate(items, details)
	if err != nil {
		ev.Reason = SkipUnsupported
		return ev
	}
	if res.Total <= 0 {
		ev.Reason = SkipNoDiscount
		return ev
	}
	ev.Discount = res.Total
	return ev
}

// Apply evaluates the identified coupon against the cart. The coupon must
// exist, be active and unexpired; for non-bxgy kinds a zero discount means
// the conditions were not met. Bxgy results pass through even at zero value
// since unpriced free units are still granted.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, items []engine.Item) (ApplyResult, error) {
	if s == nil || s.Q == nil {
		return ApplyResult{}, errors.New("coupon service not configured")
	}
	c, err := s.getCoupon(ctx, id)
	if err != nil {
		return ApplyResult{}, err
	}
	if !c.IsActive {
		return ApplyResult{}, ErrInactive
	}
	if engine.IsExpired(c.ExpiresAt, s.now()) {
		return ApplyResult{}, ErrExpired
	}
	details, err := DecodeDetails(c.Kind, c.Details)
	if err != nil {
		s.observeApply("invalid")
		return ApplyResult{}, err
	}
	res, err := engine.Evaluate(items, details)
	if err != nil {
		s.observeApply("unsupported")
		return ApplyResult{}, err
	}
	if res.Total == 0 && c.Kind != engine.KindBxGy {
		s.observeApply("not_applicable")
		return ApplyResult{}, ErrNotApplicable
	}
	s.observeApply("applied")
	original := engine.Subtotal(items)
	return ApplyResult{
		Kind:          c.Kind,
		Result:        res,
		OriginalTotal: original,
		FinalTotal:    original - res.Total,
	}, nil
}

func (s *Service) getCoupon(ctx context.Context, id uuid.UUID) (Coupon, error) {
	if c, ok, err := s.Cache.Get(ctx, id); err == nil && ok {
		return c, nil
	} else if err != nil {
		s.Log.Warn().Err(err).Str("coupon_id", id.String()).Msg("coupon cache read")
	}
	c, err := s.Q.Get(ctx, id)
	if err != nil {
		return Coupon{}, err
	}
	if err := s.Cache.Set(ctx, c); err != nil {
		s.Log.Warn().Err(err).Str("coupon_id", id.String()).Msg("coupon cache write")
	}
	return c, nil
}

func (s *Service) observe(kind engine.Kind, reason string) {
	if obs.CouponEvaluationsTotal == nil {
		return
	}
	result := "applicable"
	if reason != "" {
		result = reason
	}
	obs.CouponEvaluationsTotal.WithLabelValues(string(kind), result).Inc()
}

func (s *Service) observeApply(result string) {
	if obs.CouponApplyTotal != nil {
		obs.CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
