package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-kupon/internal/common"
	"github.com/noah-isme/backend-kupon/internal/engine"
)

// Storage captures the store methods used by the CRUD handlers.
type Storage interface {
	Create(ctx context.Context, arg CreateParams) (Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (Coupon, error)
	List(ctx context.Context, limit, offset int32) ([]Coupon, int64, error)
	Update(ctx context.Context, id uuid.UUID, arg UpdateParams) (Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler exposes the coupon CRUD and evaluation endpoints.
type Handler struct {
	Store          Storage
	Svc            *Service
	Cache          *Cache
	DefaultPerPage int
}

type couponPayload struct {
	Kind      engine.Kind     `json:"type"`
	Details   json.RawMessage `json:"details"`
	ExpiresAt *time.Time      `json:"expiration_date"`
}

type couponUpdatePayload struct {
	Kind      *engine.Kind    `json:"type"`
	Details   json.RawMessage `json:"details"`
	IsActive  *bool           `json:"is_active"`
	ExpiresAt *time.Time      `json:"expiration_date"`
}

type cartRequest struct {
	Cart CartPayload `json:"cart"`
}

type applicableCoupon struct {
	CouponID uuid.UUID   `json:"coupon_id"`
	Kind     engine.Kind `json:"type"`
	Discount float64     `json:"discount"`
}

type updatedCartItem struct {
	ProductID     int64   `json:"product_id"`
	Quantity      int64   `json:"quantity"`
	Price         float64 `json:"price"`
	TotalDiscount float64 `json:"total_discount"`
}

type updatedCart struct {
	Items         []updatedCartItem `json:"items"`
	TotalPrice    float64           `json:"total_price"`
	TotalDiscount float64           `json:"total_discount"`
	FinalPrice    float64           `json:"final_price"`
}

// Create inserts a new coupon after validating its typed details.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !KnownKind(payload.Kind) {
		common.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_KIND", "unknown coupon type: "+string(payload.Kind), nil)
		return
	}
	if _, err := DecodeDetails(payload.Kind, payload.Details); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	coupon, err := h.Store.Create(r.Context(), CreateParams{
		Kind:      payload.Kind,
		Details:   payload.Details,
		ExpiresAt: payload.ExpiresAt,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": coupon})
}

// List returns a page of coupons, active and inactive alike.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.perPage())
	coupons, total, err := h.Store.List(r.Context(), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": coupons,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns a single coupon by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.couponID(w, r)
	if !ok {
		return
	}
	coupon, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to fetch coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupon})
}

// Update applies a partial update. When the kind or details change, the
// effective kind+details combination is validated before persisting.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.couponID(w, r)
	if !ok {
		return
	}
	var payload couponUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Kind != nil && !KnownKind(*payload.Kind) {
		common.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_KIND", "unknown coupon type: "+string(*payload.Kind), nil)
		return
	}
	if payload.Kind != nil || payload.Details != nil {
		existing, err := h.Store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
				return
			}
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to fetch coupon", nil)
			return
		}
		kind := existing.Kind
		if payload.Kind != nil {
			kind = *payload.Kind
		}
		details := existing.Details
		if payload.Details != nil {
			details = payload.Details
		}
		if _, err := DecodeDetails(kind, details); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	coupon, err := h.Store.Update(r.Context(), id, UpdateParams{
		Kind:      payload.Kind,
		Details:   payload.Details,
		IsActive:  payload.IsActive,
		ExpiresAt: payload.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	if err := h.Cache.Invalidate(r.Context(), id); err != nil && h.Svc != nil {
		h.Svc.Log.Warn().Err(err).Str("coupon_id", id.String()).Msg("coupon cache invalidate")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupon})
}

// Delete removes a coupon by id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.couponID(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	if err := h.Cache.Invalidate(r.Context(), id); err != nil && h.Svc != nil {
		h.Svc.Log.Warn().Err(err).Str("coupon_id", id.String()).Msg("coupon cache invalidate")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Applicable evaluates every active coupon against the submitted cart and
// reports those that yield a positive discount.
func (h *Handler) Applicable(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	items, ok := h.cartItems(w, r)
	if !ok {
		return
	}
	evaluations, err := h.Svc.Applicable(r.Context(), items)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate coupons", nil)
		return
	}
	applicable := make([]applicableCoupon, 0, len(evaluations))
	for _, ev := range evaluations {
		if !ev.Applicable() {
			continue
		}
		applicable = append(applicable, applicableCoupon{
			CouponID: ev.CouponID,
			Kind:     ev.Kind,
			Discount: engine.ToDecimal(ev.Discount),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"applicable_coupons": applicable})
}

// Apply evaluates one coupon against the cart and returns the updated cart
// with per-line discounts and totals.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	id, ok := h.couponID(w, r)
	if !ok {
		return
	}
	items, ok := h.cartItems(w, r)
	if !ok {
		return
	}
	applied, err := h.Svc.Apply(r.Context(), id, items)
	if err != nil {
		h.applyError(w, err)
		return
	}
	out := make([]updatedCartItem, 0, len(applied.Result.Items))
	for i, it := range applied.Result.Items {
		out = append(out, updatedCartItem{
			ProductID:     it.ProductID,
			Quantity:      it.Qty,
			Price:         engine.ToDecimal(it.UnitPrice),
			TotalDiscount: engine.ToDecimal(applied.Result.PerItem[i]),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"updated_cart": updatedCart{
			Items:         out,
			TotalPrice:    engine.ToDecimal(applied.OriginalTotal),
			TotalDiscount: engine.ToDecimal(applied.Result.Total),
			FinalPrice:    engine.ToDecimal(applied.FinalTotal),
		},
	})
}

func (h *Handler) applyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrInactive):
		common.JSONError(w, http.StatusBadRequest, "COUPON_INACTIVE", ErrInactive.Error(), nil)
	case errors.Is(err, ErrExpired):
		common.JSONError(w, http.StatusBadRequest, "COUPON_EXPIRED", ErrExpired.Error(), nil)
	case errors.Is(err, ErrNotApplicable):
		common.JSONError(w, http.StatusBadRequest, "NOT_APPLICABLE", ErrNotApplicable.Error(), nil)
	case errors.Is(err, engine.ErrUnsupportedKind):
		common.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_KIND", engine.ErrUnsupportedKind.Error(), nil)
	case errors.Is(err, ErrInvalidDetails):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_DETAILS", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to apply coupon", nil)
	}
}

func (h *Handler) couponID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) cartItems(w http.ResponseWriter, r *http.Request) ([]engine.Item, bool) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return nil, false
	}
	items, err := req.Cart.ToEngineItems()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return nil, false
	}
	return items, true
}

func (h *Handler) perPage() int {
	if h.DefaultPerPage > 0 {
		return h.DefaultPerPage
	}
	return 20
}
