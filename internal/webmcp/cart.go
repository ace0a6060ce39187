package webmcp

import (
	"context"
	"log/slog"

	"github.com/dkralj/storefront/internal/cart"
	"github.com/dkralj/storefront/internal/medusa"
)

// Tool error codes surfaced to the agent.
const (
	CodeCartMissing    = "CART_MISSING"
	CodeMissingVariant = "MISSING_VARIANT"
	CodeMissingLineID  = "MISSING_LINE_ID"
	CodeMissingCode    = "MISSING_CODE"
	CodeUnknownAction  = "UNKNOWN_ACTION"
	CodeAddFailed      = "ADD_FAILED"
	CodeUpdateFailed   = "UPDATE_FAILED"
	CodeDeleteFailed   = "DELETE_FAILED"
	CodeViewFailed     = "VIEW_FAILED"
	CodeApplyFailed    = "APPLY_FAILED"
	CodeRemoveFailed   = "REMOVE_FAILED"
)

// CartBackend is the slice of the commerce backend the cart tools call.
type CartBackend interface {
	AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*medusa.Cart, error)
	UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) (*medusa.Cart, error)
	DeleteLineItem(ctx context.Context, cartID, lineID string) error
	ApplyPromotions(ctx context.Context, cartID string, codes []string) (*medusa.Cart, error)
	RemovePromotions(ctx context.Context, cartID string, codes []string) (*medusa.Cart, error)
}

// CartIDResolver yields the caller's active cart ID, typically from the
// session cookie. An empty string means no cart exists yet.
type CartIDResolver func(ctx context.Context) string

// CartTools implements the agent-facing cart actions on top of the
// optimistic mutation coordinator.
type CartTools struct {
	backend     CartBackend
	coordinator *cart.Coordinator
	resolveCart CartIDResolver
	logger      *slog.Logger
}

func NewCartTools(backend CartBackend, coordinator *cart.Coordinator, resolver CartIDResolver, logger *slog.Logger) *CartTools {
	return &CartTools{
		backend:     backend,
		coordinator: coordinator,
		resolveCart: resolver,
		logger:      logger.With("component", "webmcp"),
	}
}

// Tools returns the cart tool set for registration.
func (t *CartTools) Tools() []Tool {
	return []Tool{
		{
			Name:        "cart.manage",
			Description: "Add, remove, update or view cart line items",
			Handler:     t.manage,
		},
		{
			Name:        "cart.applyPromotion",
			Description: "Apply a promotion code to the cart",
			Handler:     t.applyPromotion,
		},
		{
			Name:        "cart.removePromotion",
			Description: "Remove a promotion code from the cart",
			Handler:     t.removePromotion,
		},
	}
}

// cartID resolves the target cart: an explicit parameter wins over the
// session's cart.
func (t *CartTools) cartID(ctx context.Context, params Params) string {
	return resolveCartID(ctx, params, t.resolveCart)
}

func resolveCartID(ctx context.Context, params Params, resolver CartIDResolver) string {
	if id := params.String("cart_id"); id != "" {
		return id
	}
	if resolver != nil {
		return resolver(ctx)
	}
	return ""
}

func (t *CartTools) manage(ctx context.Context, params Params) Result {
	cartID := t.cartID(ctx, params)
	if cartID == "" {
		return Fail(CodeCartMissing, "No active cart found")
	}

	action := params.String("action")
	switch action {
	case "add":
		return t.addItem(ctx, cartID, params)
	case "update":
		return t.updateItem(ctx, cartID, params)
	case "remove":
		return t.removeItem(ctx, cartID, params)
	case "view":
		return t.viewCart(ctx, cartID)
	default:
		return Fail(CodeUnknownAction, "Unknown action: "+action)
	}
}

func (t *CartTools) addItem(ctx context.Context, cartID string, params Params) Result {
	variantID := params.String("variant_id")
	if variantID == "" {
		return Fail(CodeMissingVariant, "variant_id is required to add an item")
	}
	quantity, ok := params.Int("quantity")
	if !ok || quantity < 1 {
		quantity = 1
	}

	var updated *medusa.Cart
	err := t.coordinator.Mutate(ctx, cartID, cart.AdjustQuantity(quantity), func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = t.backend.AddLineItem(ctx, cartID, variantID, quantity)
		return sendErr
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.manage", "action", "add", "error", err)
		return Fail(CodeAddFailed, "Failed to add item to cart")
	}
	return OkMeta(updated, map[string]any{"action": "add", "variant_id": variantID, "quantity": quantity})
}

func (t *CartTools) updateItem(ctx context.Context, cartID string, params Params) Result {
	lineID := params.String("line_item_id")
	if lineID == "" {
		return Fail(CodeMissingLineID, "line_item_id is required to update an item")
	}
	quantity, ok := params.Int("quantity")
	if !ok || quantity < 1 {
		return Fail(CodeUpdateFailed, "quantity must be a positive number")
	}

	var updated *medusa.Cart
	err := t.coordinator.Mutate(ctx, cartID, cart.UpdateItemQuantity(lineID, quantity), func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = t.backend.UpdateLineItem(ctx, cartID, lineID, quantity)
		return sendErr
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.manage", "action", "update", "error", err)
		return Fail(CodeUpdateFailed, "Failed to update item quantity")
	}
	return OkMeta(updated, map[string]any{"action": "update", "line_item_id": lineID, "quantity": quantity})
}

func (t *CartTools) removeItem(ctx context.Context, cartID string, params Params) Result {
	lineID := params.String("line_item_id")
	if lineID == "" {
		return Fail(CodeMissingLineID, "line_item_id is required to remove an item")
	}

	err := t.coordinator.Mutate(ctx, cartID, cart.RemoveItem(lineID), func(ctx context.Context) error {
		return t.backend.DeleteLineItem(ctx, cartID, lineID)
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.manage", "action", "remove", "error", err)
		return Fail(CodeDeleteFailed, "Failed to remove item from cart")
	}
	return OkMeta(map[string]any{"removed": lineID}, map[string]any{"action": "remove"})
}

func (t *CartTools) viewCart(ctx context.Context, cartID string) Result {
	snap, err := t.coordinator.Load(ctx, cartID)
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.manage", "action", "view", "error", err)
		return Fail(CodeViewFailed, "Failed to load cart")
	}
	if snap == nil {
		return Fail(CodeCartMissing, "No active cart found")
	}
	return OkMeta(snap.Cart, map[string]any{"action": "view", "total_quantity": snap.Quantity})
}

func (t *CartTools) applyPromotion(ctx context.Context, params Params) Result {
	cartID := t.cartID(ctx, params)
	if cartID == "" {
		return Fail(CodeCartMissing, "No active cart found")
	}
	code := params.String("code")
	if code == "" {
		return Fail(CodeMissingCode, "code is required to apply a promotion")
	}

	var updated *medusa.Cart
	err := t.coordinator.Mutate(ctx, cartID, nil, func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = t.backend.ApplyPromotions(ctx, cartID, []string{code})
		return sendErr
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.applyPromotion", "code", code, "error", err)
		return Fail(CodeApplyFailed, "Failed to apply promotion code")
	}
	return OkMeta(updated, map[string]any{"code": code})
}

func (t *CartTools) removePromotion(ctx context.Context, params Params) Result {
	cartID := t.cartID(ctx, params)
	if cartID == "" {
		return Fail(CodeCartMissing, "No active cart found")
	}
	code := params.String("code")
	if code == "" {
		return Fail(CodeMissingCode, "code is required to remove a promotion")
	}

	var updated *medusa.Cart
	err := t.coordinator.Mutate(ctx, cartID, nil, func(ctx context.Context) error {
		var sendErr error
		updated, sendErr = t.backend.RemovePromotions(ctx, cartID, []string{code})
		return sendErr
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "cart.removePromotion", "code", code, "error", err)
		return Fail(CodeRemoveFailed, "Failed to remove promotion code")
	}
	return OkMeta(updated, map[string]any{"code": code})
}
