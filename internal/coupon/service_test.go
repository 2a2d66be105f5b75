package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kupon/internal/engine"
)

type stubQuerier struct {
	coupons []Coupon
	getErr  error
	listErr error
}

func (s *stubQuerier) Get(ctx context.Context, id uuid.UUID) (Coupon, error) {
	if s.getErr != nil {
		return Coupon{}, s.getErr
	}
	for _, c := range s.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return Coupon{}, ErrNotFound
}

func (s *stubQuerier) ListActive(ctx context.Context) ([]Coupon, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newCoupon(kind engine.Kind, details string) Coupon {
	return Coupon{
		ID:       uuid.New(),
		Kind:     kind,
		Details:  json.RawMessage(details),
		IsActive: true,
	}
}

func sampleItems() []engine.Item {
	return []engine.Item{
		{ProductID: 1, Qty: 6, UnitPrice: 5000},
		{ProductID: 2, Qty: 3, UnitPrice: 3000},
		{ProductID: 3, Qty: 2, UnitPrice: 2500},
	}
}

func TestApplicableReportsEachOutcome(t *testing.T) {
	expired := fixedNow().Add(-time.Hour)
	valid := newCoupon(engine.KindCartWise, `{"threshold":100,"discount":10}`)
	expiredCoupon := newCoupon(engine.KindProductWise, `{"product_id":1,"discount":50}`)
	expiredCoupon.ExpiresAt = &expired
	malformed := newCoupon(engine.KindBxGy, `{"buy_products":[]}`)
	unknown := newCoupon(engine.Kind("mystery"), `{}`)
	belowThreshold := newCoupon(engine.KindCartWise, `{"threshold":9999,"discount":10}`)

	svc := &Service{
		Q:   &stubQuerier{coupons: []Coupon{valid, expiredCoupon, malformed, unknown, belowThreshold}},
		Now: fixedNow,
	}
	evals, err := svc.Applicable(context.Background(), sampleItems())
	if err != nil {
		t.Fatalf("Applicable: %v", err)
	}
	if len(evals) != 5 {
		t.Fatalf("expected 5 evaluations, got %d", len(evals))
	}
	byID := map[uuid.UUID]Evaluation{}
	for _, ev := range evals {
		byID[ev.CouponID] = ev
	}
	if ev := byID[valid.ID]; !ev.Applicable() || ev.Discount != 4400 {
		t.Fatalf("valid coupon: reason=%q discount=%d", ev.Reason, ev.Discount)
	}
	if ev := byID[expiredCoupon.ID]; ev.Reason != SkipExpired {
		t.Fatalf("expired coupon: reason=%q", ev.Reason)
	}
	if ev := byID[malformed.ID]; ev.Reason != SkipInvalidDetails {
		t.Fatalf("malformed coupon: reason=%q", ev.Reason)
	}
	if ev := byID[unknown.ID]; ev.Reason != SkipUnsupported {
		t.Fatalf("unknown kind: reason=%q", ev.Reason)
	}
	if ev := byID[belowThreshold.ID]; ev.Reason != SkipNoDiscount {
		t.Fatalf("below-threshold coupon: reason=%q", ev.Reason)
	}
}

func TestApplicableSkipsInactive(t *testing.T) {
	inactive := newCoupon(engine.KindCartWise, `{"threshold":100,"discount":10}`)
	inactive.IsActive = false
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{inactive}}, Now: fixedNow}
	evals, err := svc.Applicable(context.Background(), sampleItems())
	if err != nil {
		t.Fatalf("Applicable: %v", err)
	}
	if len(evals) != 0 {
		t.Fatalf("expected no evaluations, got %d", len(evals))
	}
}

func TestApplyCartWise(t *testing.T) {
	c := newCoupon(engine.KindCartWise, `{"threshold":100,"discount":10}`)
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	res, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Result.Total != 4400 {
		t.Fatalf("expected total 4400, got %d", res.Result.Total)
	}
	if res.OriginalTotal != 44000 || res.FinalTotal != 39600 {
		t.Fatalf("totals: original=%d final=%d", res.OriginalTotal, res.FinalTotal)
	}
}

func TestApplyNotFound(t *testing.T) {
	svc := &Service{Q: &stubQuerier{}, Now: fixedNow}
	_, err := svc.Apply(context.Background(), uuid.New(), sampleItems())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyInactive(t *testing.T) {
	c := newCoupon(engine.KindCartWise, `{"threshold":100,"discount":10}`)
	c.IsActive = false
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	_, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestApplyExpired(t *testing.T) {
	past := fixedNow().Add(-time.Minute)
	c := newCoupon(engine.KindCartWise, `{"threshold":100,"discount":10}`)
	c.ExpiresAt = &past
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	_, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestApplyBelowThresholdNotApplicable(t *testing.T) {
	c := newCoupon(engine.KindCartWise, `{"threshold":9999,"discount":10}`)
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	_, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestApplyBxGyZeroDiscountPasses(t *testing.T) {
	// Reward product absent from the cart: the free units carry price zero,
	// so the discount is zero yet the grant still goes through.
	c := newCoupon(engine.KindBxGy, `{"buy_products":[{"product_id":1,"quantity":2}],"get_products":[{"product_id":99,"quantity":1}],"repetition_limit":1}`)
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	res, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Result.Total != 0 {
		t.Fatalf("expected zero discount, got %d", res.Result.Total)
	}
	last := res.Result.Items[len(res.Result.Items)-1]
	if last.ProductID != 99 || last.Qty != 1 || last.UnitPrice != 0 {
		t.Fatalf("unexpected granted line: %+v", last)
	}
}

func TestApplyInvalidDetails(t *testing.T) {
	c := newCoupon(engine.KindCartWise, `{"threshold":0,"discount":150}`)
	svc := &Service{Q: &stubQuerier{coupons: []Coupon{c}}, Now: fixedNow}
	_, err := svc.Apply(context.Background(), c.ID, sampleItems())
	if !errors.Is(err, ErrInvalidDetails) {
		t.Fatalf("expected ErrInvalidDetails, got %v", err)
	}
}
