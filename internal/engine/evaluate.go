package engine

import "errors"

// ErrUnsupportedKind is returned when Evaluate receives details outside the
// known coupon variants.
var ErrUnsupportedKind = errors.New("unsupported coupon kind")

// Evaluate dispatches the cart and typed coupon details to the matching
// calculator and returns its result unmodified.
func Evaluate(items []Item, d Details) (Result, error) {
	switch p := d.(type) {
	case CartWiseParams:
		return ComputeCartWise(items, p), nil
	case ProductWiseParams:
		return ComputeProductWise(items, p), nil
	case BxGyParams:
		return ComputeBxGy(items, p), nil
	}
	return Result{}, ErrUnsupportedKind
}
