package medusa

import (
	"context"
	"net/http"
	"net/url"
)

// GetOrder retrieves a single order with its fulfillment counters.
// Returns ErrNotFound if the backend does not know the ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	query := url.Values{}
	query.Set("fields", "+email,*items.detail,*items.variant.options.option,*shipping_address,*billing_address")

	var resp struct {
		Order *Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/orders/"+orderID, query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}
