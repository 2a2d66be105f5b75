package coupon

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-kupon/internal/engine"
)

// ErrInvalidDetails wraps validation failures on coupon parameters.
var ErrInvalidDetails = errors.New("invalid coupon details")

var validate = validator.New()

// Coupon is a stored coupon record. Details holds the kind-specific
// parameters as raw JSON; DecodeDetails turns them into a typed variant.
type Coupon struct {
	ID        uuid.UUID       `json:"id"`
	Kind      engine.Kind     `json:"type"`
	Details   json.RawMessage `json:"details"`
	IsActive  bool            `json:"is_active"`
	ExpiresAt *time.Time      `json:"expiration_date,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type cartWiseDetails struct {
	Threshold float64 `json:"threshold" validate:"gt=0"`
	Discount  float64 `json:"discount" validate:"gt=0,lte=100"`
}

type productWiseDetails struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Discount  float64 `json:"discount" validate:"gt=0,lte=100"`
}

type bundleProduct struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int64 `json:"quantity" validate:"gt=0"`
}

type bxgyDetails struct {
	BuyProducts     []bundleProduct `json:"buy_products" validate:"min=1,dive"`
	GetProducts     []bundleProduct `json:"get_products" validate:"min=1,dive"`
	RepetitionLimit int             `json:"repetition_limit" validate:"omitempty,gt=0"`
}

// KnownKind reports whether the kind tag names a supported coupon policy.
func KnownKind(kind engine.Kind) bool {
	switch kind {
	case engine.KindCartWise, engine.KindProductWise, engine.KindBxGy:
		return true
	}
	return false
}

// DecodeDetails validates raw coupon parameters and returns the typed
// variant for the given kind. Calculators are never handed unvalidated
// input; everything rejected here never reaches the engine.
func DecodeDetails(kind engine.Kind, raw json.RawMessage) (engine.Details, error) {
	switch kind {
	case engine.KindCartWise:
		var d cartWiseDetails
		if err := unmarshalDetails(raw, &d); err != nil {
			return nil, err
		}
		return engine.CartWiseParams{
			Threshold:  engine.ToMinorUnits(d.Threshold),
			PercentBps: engine.PercentToBps(d.Discount),
		}, nil
	case engine.KindProductWise:
		var d productWiseDetails
		if err := unmarshalDetails(raw, &d); err != nil {
			return nil, err
		}
		return engine.ProductWiseParams{
			ProductID:  d.ProductID,
			PercentBps: engine.PercentToBps(d.Discount),
		}, nil
	case engine.KindBxGy:
		var d bxgyDetails
		if err := unmarshalDetails(raw, &d); err != nil {
			return nil, err
		}
		if d.RepetitionLimit == 0 {
			d.RepetitionLimit = 1
		}
		return engine.BxGyParams{
			Buy:             toBundleEntries(d.BuyProducts),
			Get:             toBundleEntries(d.GetProducts),
			RepetitionLimit: d.RepetitionLimit,
		}, nil
	}
	return nil, engine.ErrUnsupportedKind
}

func unmarshalDetails(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: details are required", ErrInvalidDetails)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}
	return nil
}

func toBundleEntries(products []bundleProduct) []engine.BundleEntry {
	out := make([]engine.BundleEntry, 0, len(products))
	for _, p := range products {
		out = append(out, engine.BundleEntry{ProductID: p.ProductID, Qty: p.Quantity})
	}
	return out
}

// CartItemPayload is one cart line as submitted by clients, with the unit
// price as a 2-decimal amount.
type CartItemPayload struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Quantity  int64   `json:"quantity" validate:"gt=0"`
	Price     float64 `json:"price" validate:"gt=0"`
}

// CartPayload is the cart shape shared by the evaluation endpoints.
type CartPayload struct {
	Items []CartItemPayload `json:"items" validate:"min=1,dive"`
}

// ToEngineItems validates the cart payload and converts it for calculation.
func (c CartPayload) ToEngineItems() ([]engine.Item, error) {
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid cart: %v", err)
	}
	out := make([]engine.Item, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, engine.Item{
			ProductID: it.ProductID,
			Qty:       it.Quantity,
			UnitPrice: engine.ToMinorUnits(it.Price),
		})
	}
	return out, nil
}
