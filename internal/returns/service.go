package returns

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dkralj/storefront/internal/medusa"
	"github.com/go-playground/validator/v10"
)

// requiredFieldsMessage is surfaced verbatim to the form when a submission
// is missing its order ID, items or shipping option.
const requiredFieldsMessage = "Order ID, items, and return shipping option are required"

// BackendClient is the slice of the commerce backend API the returns
// workflow depends on.
type BackendClient interface {
	GetOrder(ctx context.Context, orderID string) (*medusa.Order, error)
	ListReturnReasons(ctx context.Context) ([]medusa.ReturnReason, error)
	ListReturnShippingOptions(ctx context.Context, cartID string) ([]medusa.ShippingOption, error)
	CalculateShippingOptionPrice(ctx context.Context, optionID, cartID string) (*medusa.ShippingOptionPrice, error)
	CreateReturn(ctx context.Context, req medusa.CreateReturnRequest) (*medusa.Return, error)
	GetReturn(ctx context.Context, returnID string) (*medusa.Return, error)
}

// Service orchestrates the returns workflow against the commerce backend.
type Service struct {
	backend  BackendClient
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(backend BackendClient, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		validate: validator.New(),
		logger:   logger.With("component", "returns"),
	}
}

// SubmitRequest carries the user's return selections. Items are ephemeral
// UI state; they are consumed by submission and never persisted locally.
type SubmitRequest struct {
	OrderID          string              `json:"order_id" validate:"required"`
	Items            []medusa.ReturnItem `json:"items" validate:"required,gt=0,dive"`
	ShippingOptionID string              `json:"return_shipping_option_id" validate:"required"`
	LocationID       string              `json:"location_id"`
}

// SubmitResult is the discriminated outcome of a return submission: when
// Success is true Return is set and Error is empty, otherwise the inverse.
type SubmitResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Return  *medusa.Return `json:"return"`
}

// Submit validates the selections and posts the return request.
// Validation and backend failures are reported in the result, not as an
// error return, so the caller can render them inline and resubmit.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) SubmitResult {
	if err := s.validate.Struct(req); err != nil {
		s.logger.WarnContext(ctx, "Return submission rejected", "order_id", req.OrderID, "error", err)
		return SubmitResult{Success: false, Error: requiredFieldsMessage}
	}

	created, err := s.backend.CreateReturn(ctx, medusa.CreateReturnRequest{
		OrderID:        req.OrderID,
		Items:          req.Items,
		ReturnShipping: medusa.ReturnShipping{OptionID: req.ShippingOptionID},
		LocationID:     req.LocationID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create return", "order_id", req.OrderID, "error", err)
		return SubmitResult{Success: false, Error: errorMessage(err)}
	}

	s.logger.InfoContext(ctx, "Return created", "order_id", req.OrderID, "return_id", created.ID)
	return SubmitResult{Success: true, Return: created}
}

// VerifyGuestAccess checks that a guest may act on an order: the supplied
// email must match the order's stored email (case-insensitive) and at
// least one item must still be returnable.
func (s *Service) VerifyGuestAccess(ctx context.Context, orderID, email string) (*medusa.Order, error) {
	order, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, medusa.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if !strings.EqualFold(order.Email, email) {
		return nil, ErrAccessDenied
	}
	if !HasReturnableItems(order) {
		return nil, ErrNoReturnableItems
	}
	return order, nil
}

// TrackReturn retrieves a return for a guest, applying the same email
// check against the owning order.
func (s *Service) TrackReturn(ctx context.Context, returnID, email string) (*medusa.Return, error) {
	ret, err := s.backend.GetReturn(ctx, returnID)
	if err != nil {
		if errors.Is(err, medusa.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	order, err := s.backend.GetOrder(ctx, ret.OrderID)
	if err != nil {
		if errors.Is(err, medusa.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if !strings.EqualFold(order.Email, email) {
		return nil, ErrAccessDenied
	}
	return ret, nil
}

// ReturnReasons lists the configured return reasons. A fetch failure
// degrades to an empty list so the page stays renderable.
func (s *Service) ReturnReasons(ctx context.Context) []medusa.ReturnReason {
	reasons, err := s.backend.ListReturnReasons(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list return reasons", "error", err)
		return []medusa.ReturnReason{}
	}
	return reasons
}

// ShippingOptions lists return shipping options for a cart. A fetch
// failure degrades to an empty list.
func (s *Service) ShippingOptions(ctx context.Context, cartID string) []medusa.ShippingOption {
	options, err := s.backend.ListReturnShippingOptions(ctx, cartID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list return shipping options", "cart_id", cartID, "error", err)
		return []medusa.ShippingOption{}
	}
	return options
}

// ShippingPrice resolves the price of a calculated shipping option,
// returning nil on failure rather than an error.
func (s *Service) ShippingPrice(ctx context.Context, optionID, cartID string) *medusa.ShippingOptionPrice {
	price, err := s.backend.CalculateShippingOptionPrice(ctx, optionID, cartID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to calculate shipping option price", "option_id", optionID, "error", err)
		return nil
	}
	return price
}

// errorMessage unwraps the backend's message for inline display.
func errorMessage(err error) string {
	var apiErr *medusa.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
