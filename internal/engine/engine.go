package engine

import "math"

// Money represents a monetary value stored in minor units.
type Money = int64

// Kind identifies a coupon policy.
type Kind string

const (
	// KindCartWise applies a percentage discount to the whole cart above a threshold.
	KindCartWise Kind = "cart-wise"
	// KindProductWise applies a percentage discount to a single product's lines.
	KindProductWise Kind = "product-wise"
	// KindBxGy grants free reward units in proportion to qualifying purchases.
	KindBxGy Kind = "bxgy"
)

// Item is one cart line: product, quantity and unit price.
type Item struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"quantity"`
	UnitPrice Money `json:"price"`
}

// Result is a discount allocation. PerItem is aligned 1:1 with Items; for
// bxgy the Items slice reflects granted free units, otherwise it is the
// input cart unchanged.
type Result struct {
	Total   Money
	PerItem []Money
	Items   []Item
}

// Details is the closed set of coupon parameter variants. Only types in this
// package implement it, so Evaluate can match exhaustively.
type Details interface {
	Kind() Kind
	sealed()
}

// CartWiseParams configures a cart-wide percentage coupon.
type CartWiseParams struct {
	Threshold  Money
	PercentBps int32
}

// Kind returns KindCartWise.
func (CartWiseParams) Kind() Kind { return KindCartWise }
func (CartWiseParams) sealed()    {}

// ProductWiseParams configures a product-targeted percentage coupon.
type ProductWiseParams struct {
	ProductID  int64
	PercentBps int32
}

// Kind returns KindProductWise.
func (ProductWiseParams) Kind() Kind { return KindProductWise }
func (ProductWiseParams) sealed()    {}

// BundleEntry pairs a product with a quantity inside a bxgy buy or get set.
type BundleEntry struct {
	ProductID int64
	Qty       int64
}

// BxGyParams configures a buy-X-get-Y coupon.
type BxGyParams struct {
	Buy             []BundleEntry
	Get             []BundleEntry
	RepetitionLimit int
}

// Kind returns KindBxGy.
func (BxGyParams) Kind() Kind { return KindBxGy }
func (BxGyParams) sealed()    {}

// Subtotal sums quantity times unit price over all lines.
func Subtotal(items []Item) Money {
	var total Money
	for _, it := range items {
		total += it.Qty * it.UnitPrice
	}
	return total
}

// ToMinorUnits converts a 2-decimal amount into minor units.
func ToMinorUnits(v float64) Money {
	return Money(math.Round(v * 100))
}

// ToDecimal converts minor units back into a 2-decimal amount.
func ToDecimal(m Money) float64 {
	return float64(m) / 100
}

// PercentToBps converts a decimal percentage into basis points.
func PercentToBps(v float64) int32 {
	return int32(math.Round(v * 100))
}

// divRound divides rounding half away from zero. Inputs are never negative
// in this package.
func divRound(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return (num + den/2) / den
}
