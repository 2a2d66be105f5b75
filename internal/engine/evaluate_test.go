package engine

import (
	"errors"
	"testing"
)

func TestEvaluateDispatch(t *testing.T) {
	items := sampleCart()

	res, err := Evaluate(items, CartWiseParams{Threshold: 10_000, PercentBps: 1_000})
	if err != nil {
		t.Fatalf("cart-wise: %v", err)
	}
	if res.Total != 4_400 {
		t.Fatalf("cart-wise: expected 4400, got %d", res.Total)
	}

	res, err = Evaluate(items, ProductWiseParams{ProductID: 1, PercentBps: 2_000})
	if err != nil {
		t.Fatalf("product-wise: %v", err)
	}
	if res.Total != 6_000 {
		t.Fatalf("product-wise: expected 6000, got %d", res.Total)
	}

	res, err = Evaluate(items, BxGyParams{
		Buy:             []BundleEntry{{ProductID: 1, Qty: 3}, {ProductID: 2, Qty: 3}},
		Get:             []BundleEntry{{ProductID: 3, Qty: 1}},
		RepetitionLimit: 2,
	})
	if err != nil {
		t.Fatalf("bxgy: %v", err)
	}
	if res.Total != 2_500 {
		t.Fatalf("bxgy: expected 2500, got %d", res.Total)
	}
}

func TestEvaluateUnknownDetails(t *testing.T) {
	_, err := Evaluate(sampleCart(), nil)
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}
