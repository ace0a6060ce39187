package medusa

import (
	"context"
	"net/http"
	"net/url"
)

// ListReturnReasons fetches the configured return reasons.
func (c *Client) ListReturnReasons(ctx context.Context) ([]ReturnReason, error) {
	var resp struct {
		ReturnReasons []ReturnReason `json:"return_reasons"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/return-reasons", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ReturnReasons, nil
}

// ListReturnShippingOptions fetches the shipping options available for
// returning items from the given cart.
func (c *Client) ListReturnShippingOptions(ctx context.Context, cartID string) ([]ShippingOption, error) {
	query := url.Values{}
	query.Set("cart_id", cartID)
	query.Set("is_return", "true")

	var resp struct {
		ShippingOptions []ShippingOption `json:"shipping_options"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/shipping-options", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ShippingOptions, nil
}

// CalculateShippingOptionPrice resolves the price of a calculated-type
// shipping option for the given cart.
func (c *Client) CalculateShippingOptionPrice(ctx context.Context, optionID, cartID string) (*ShippingOptionPrice, error) {
	body := map[string]string{"cart_id": cartID}
	var resp struct {
		Price struct {
			Amount float64 `json:"amount"`
		} `json:"price"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/shipping-options/"+optionID+"/calculate", nil, body, &resp); err != nil {
		return nil, err
	}
	return &ShippingOptionPrice{ID: optionID, Amount: resp.Price.Amount}, nil
}

// CreateReturn submits a return request for an order.
func (c *Client) CreateReturn(ctx context.Context, req CreateReturnRequest) (*Return, error) {
	var resp struct {
		Return *Return `json:"return"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/returns", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Return, nil
}

// GetReturn retrieves a single return for tracking.
// Returns ErrNotFound if the backend does not know the ID.
func (c *Client) GetReturn(ctx context.Context, returnID string) (*Return, error) {
	var resp struct {
		Return *Return `json:"return"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/returns/"+returnID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Return, nil
}
