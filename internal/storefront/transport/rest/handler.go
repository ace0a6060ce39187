// Package rest provides the storefront HTTP API: returns workflow, cart
// mutations, promotions, checkout and the agent tool surface.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dkralj/storefront/internal/cart"
	"github.com/dkralj/storefront/internal/medusa"
	"github.com/dkralj/storefront/internal/returns"
	"github.com/dkralj/storefront/internal/session"
	"github.com/dkralj/storefront/internal/webmcp"
	"github.com/dkralj/storefront/pkg/messaging"
	"github.com/dkralj/storefront/pkg/messaging/events"
	"github.com/dkralj/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// CartService is the slice of the commerce backend the cart endpoints call.
type CartService interface {
	CreateCart(ctx context.Context, regionID string) (*medusa.Cart, error)
	AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*medusa.Cart, error)
	UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) (*medusa.Cart, error)
	DeleteLineItem(ctx context.Context, cartID, lineID string) error
	ApplyPromotions(ctx context.Context, cartID string, codes []string) (*medusa.Cart, error)
	RemovePromotions(ctx context.Context, cartID string, codes []string) (*medusa.Cart, error)
	CompleteCart(ctx context.Context, cartID string) (*medusa.OrderResult, error)
}

// ReturnsService is the returns workflow consumed by the handler.
type ReturnsService interface {
	Submit(ctx context.Context, req returns.SubmitRequest) returns.SubmitResult
	VerifyGuestAccess(ctx context.Context, orderID, email string) (*medusa.Order, error)
	TrackReturn(ctx context.Context, returnID, email string) (*medusa.Return, error)
	ReturnReasons(ctx context.Context) []medusa.ReturnReason
	ShippingOptions(ctx context.Context, cartID string) []medusa.ShippingOption
	ShippingPrice(ctx context.Context, optionID, cartID string) *medusa.ShippingOptionPrice
}

type Handler struct {
	carts       CartService
	returns     ReturnsService
	coordinator *cart.Coordinator
	tools       *webmcp.Registry
	publisher   messaging.Publisher
	sessions    *session.Manager
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewHandler(carts CartService, returnsSvc ReturnsService, coordinator *cart.Coordinator,
	tools *webmcp.Registry, publisher messaging.Publisher, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		carts:       carts,
		returns:     returnsSvc,
		coordinator: coordinator,
		tools:       tools,
		publisher:   publisher,
		sessions:    sessions,
		validate:    validator.New(),
		logger:      logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the storefront HTTP routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(session.Middleware)

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", h.SubmitReturn)
			r.Get("/reasons", h.ReturnReasons)
			r.Get("/shipping-options", h.ReturnShippingOptions)
			r.Post("/shipping-options/{id}/price", h.ShippingOptionPrice)
			r.Post("/verify", h.VerifyGuestAccess)
			r.Get("/{id}", h.TrackReturn)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", h.CreateCart)
			r.Get("/", h.GetCart)
			r.Post("/line-items", h.AddLineItem)
			r.Post("/line-items/{lineID}", h.UpdateLineItem)
			r.Delete("/line-items/{lineID}", h.DeleteLineItem)
			r.Post("/promotions", h.ApplyPromotion)
			r.Delete("/promotions", h.RemovePromotion)
			r.Post("/complete", h.CompleteCart)
		})

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", h.ListTools)
			r.Post("/{name}", h.CallTool)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// SubmitReturn posts a return request. Validation and backend failures are
// carried in the result body so the form can render them inline.
func (h *Handler) SubmitReturn(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req returns.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.returns.Submit(r.Context(), req)
	if !result.Success {
		web.RespondJSON(w, mLogger, http.StatusUnprocessableEntity, result)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, result)
}

func (h *Handler) ReturnReasons(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"return_reasons": h.returns.ReturnReasons(r.Context()),
	})
}

func (h *Handler) ReturnShippingOptions(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.QueryParam(w, r, mLogger, "cart_id")
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"shipping_options": h.returns.ShippingOptions(r.Context(), cartID),
	})
}

// ShippingOptionPrice resolves the price of a calculated shipping option.
// A nil price is a valid answer; the UI falls back to "calculated at checkout".
func (h *Handler) ShippingOptionPrice(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	optionID, ok := web.ParsePathID(w, r, mLogger, "id")
	if !ok {
		return
	}
	var req struct {
		CartID string `json:"cart_id" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}
	price := h.returns.ShippingPrice(r.Context(), optionID, req.CartID)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"price": price})
}

type guestAccessRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// VerifyGuestAccess checks a guest's claim on an order and, when granted,
// responds with the order projected through the eligibility calculator.
func (h *Handler) VerifyGuestAccess(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req guestAccessRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	order, err := h.returns.VerifyGuestAccess(r.Context(), req.OrderID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, returns.ErrAccessDenied):
			mLogger.WarnContext(r.Context(), "Guest access denied", "order_id", req.OrderID)
			web.RespondError(w, mLogger, http.StatusForbidden, err.Error())
		case errors.Is(err, returns.ErrNoReturnableItems):
			mLogger.InfoContext(r.Context(), "Order has no returnable items", "order_id", req.OrderID)
			web.RespondError(w, mLogger, http.StatusConflict, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error verifying guest access", "order_id", req.OrderID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to verify order access")
		}
		return
	}

	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"order":         order,
		"items":         returns.EnhanceItemsWithReturnStatus(order.Items),
		"return_status": returns.GetOrderReturnStatus(order),
	})
}

func (h *Handler) TrackReturn(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	returnID, ok := web.ParsePathID(w, r, mLogger, "id")
	if !ok {
		return
	}
	email, ok := web.QueryParam(w, r, mLogger, "email")
	if !ok {
		return
	}

	ret, err := h.returns.TrackReturn(r.Context(), returnID, email)
	if err != nil {
		if errors.Is(err, returns.ErrAccessDenied) {
			mLogger.WarnContext(r.Context(), "Return tracking denied", "return_id", returnID)
			web.RespondError(w, mLogger, http.StatusForbidden, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error tracking return", "return_id", returnID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to track return")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"return": ret})
}

type createCartRequest struct {
	RegionID string `json:"region_id"`
}

// CreateCart creates a backend cart and binds it to the session cookie.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req createCartRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	created, err := h.carts.CreateCart(r.Context(), req.RegionID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create cart")
		return
	}
	h.sessions.SetCartID(w, created.ID)
	mLogger.InfoContext(r.Context(), "Cart created", "cart_id", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, map[string]any{"cart": created})
}

// GetCart loads the session's cart through the snapshot cache.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}

	snap, err := h.coordinator.Load(r.Context(), cartID)
	if err == nil && snap == nil {
		// A concurrent mutation superseded the refresh; the next attempt
		// reads the settled cache or refetches.
		snap, err = h.coordinator.Load(r.Context(), cartID)
	}
	if err != nil {
		if errors.Is(err, medusa.ErrNotFound) {
			h.sessions.RemoveCartID(w)
			web.RespondError(w, mLogger, http.StatusNotFound, "Cart no longer exists")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error loading cart", "cart_id", cartID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if snap == nil {
		web.RespondError(w, mLogger, http.StatusServiceUnavailable, "Cart is being updated, retry shortly")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{
		"cart":           snap.Cart,
		"total_quantity": snap.Quantity,
	})
}

type addLineItemRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}
	var req addLineItemRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	var updated *medusa.Cart
	err := h.coordinator.Mutate(r.Context(), cartID, cart.AdjustQuantity(req.Quantity), func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = h.carts.AddLineItem(ctx, cartID, req.VariantID, req.Quantity)
		return sendErr
	})
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error adding line item", "cart_id", cartID, "error", err)
		h.respondBackendError(w, mLogger, err, "Failed to add item to cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": updated})
}

type updateLineItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}
	lineID, ok := web.ParsePathID(w, r, mLogger, "lineID")
	if !ok {
		return
	}
	var req updateLineItemRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	var updated *medusa.Cart
	err := h.coordinator.Mutate(r.Context(), cartID, cart.UpdateItemQuantity(lineID, req.Quantity), func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = h.carts.UpdateLineItem(ctx, cartID, lineID, req.Quantity)
		return sendErr
	})
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error updating line item", "cart_id", cartID, "line_id", lineID, "error", err)
		h.respondBackendError(w, mLogger, err, "Failed to update item quantity")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": updated})
}

func (h *Handler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}
	lineID, ok := web.ParsePathID(w, r, mLogger, "lineID")
	if !ok {
		return
	}

	err := h.coordinator.Mutate(r.Context(), cartID, cart.RemoveItem(lineID), func(ctx context.Context) error {
		return h.carts.DeleteLineItem(ctx, cartID, lineID)
	})
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting line item", "cart_id", cartID, "line_id", lineID, "error", err)
		h.respondBackendError(w, mLogger, err, "Failed to remove item from cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type promotionRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	h.mutatePromotion(w, r, h.carts.ApplyPromotions, "Failed to apply promotion code")
}

func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	h.mutatePromotion(w, r, h.carts.RemovePromotions, "Failed to remove promotion code")
}

func (h *Handler) mutatePromotion(w http.ResponseWriter, r *http.Request,
	send func(ctx context.Context, cartID string, codes []string) (*medusa.Cart, error), failure string) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}
	var req promotionRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	var updated *medusa.Cart
	err := h.coordinator.Mutate(r.Context(), cartID, nil, func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = send(ctx, cartID, []string{req.Code})
		return sendErr
	})
	if err != nil {
		mLogger.WarnContext(r.Context(), "Promotion mutation failed", "cart_id", cartID, "code", req.Code, "error", err)
		h.respondBackendError(w, mLogger, err, failure)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"cart": updated})
}

// CompleteCart attempts checkout. On a placed order the cart cookie is
// cleared and an order placement event is published for the notification
// service; a publish failure does not fail the checkout.
func (h *Handler) CompleteCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := h.sessionCartID(w, r, mLogger)
	if !ok {
		return
	}

	result, err := h.carts.CompleteCart(r.Context(), cartID)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error completing cart", "cart_id", cartID, "error", err)
		h.respondBackendError(w, mLogger, err, "Failed to complete cart")
		return
	}

	if result.Type != "order" || result.Order == nil {
		mLogger.InfoContext(r.Context(), "Cart completion refused", "cart_id", cartID, "reason", result.Error)
		web.RespondJSON(w, mLogger, http.StatusUnprocessableEntity, result)
		return
	}

	h.sessions.RemoveCartID(w)
	if err := h.coordinator.Invalidate(r.Context(), cartID); err != nil {
		mLogger.WarnContext(r.Context(), "Failed to drop cart snapshot after checkout", "cart_id", cartID, "error", err)
	}

	event := events.OrderPlacedEvent{
		OrderID:  result.Order.ID,
		Email:    result.Order.Email,
		PlacedAt: time.Now().UTC(),
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		mLogger.ErrorContext(r.Context(), "Failed to publish order placement event", "order_id", result.Order.ID, "error", err)
	} else {
		mLogger.InfoContext(r.Context(), "Order placed", "order_id", result.Order.ID)
	}

	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"tools": h.tools.Names()})
}

// CallTool invokes a registered agent tool by name. Tool failures are
// expressed in the result body, not as HTTP errors.
func (h *Handler) CallTool(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	name, ok := web.ParsePathID(w, r, mLogger, "name")
	if !ok {
		return
	}
	params := webmcp.Params{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			mLogger.ErrorContext(r.Context(), "Error decoding tool parameters", "tool", name, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid tool parameters")
			return
		}
	}

	result, found := h.tools.Call(r.Context(), name, params)
	if !found {
		web.RespondError(w, mLogger, http.StatusNotFound, "Unknown tool: "+name)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// sessionCartID reads the cart cookie; its absence is a client error.
func (h *Handler) sessionCartID(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (string, bool) {
	cartID := session.CartID(r)
	if cartID == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "No active cart")
		return "", false
	}
	return cartID, true
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, writing field-level errors on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondBackendError maps backend failures to HTTP statuses.
func (h *Handler) respondBackendError(w http.ResponseWriter, mLogger *slog.Logger, err error, fallback string) {
	if errors.Is(err, medusa.ErrNotFound) {
		web.RespondError(w, mLogger, http.StatusNotFound, "Resource not found")
		return
	}
	var apiErr *medusa.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		web.RespondError(w, mLogger, apiErr.Status, apiErr.Message)
		return
	}
	web.RespondError(w, mLogger, http.StatusInternalServerError, fallback)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
