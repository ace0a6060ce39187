package medusa

import (
	"context"
	"net/http"
)

// CreateCart creates a fresh cart on the backend.
func (c *Client) CreateCart(ctx context.Context, regionID string) (*Cart, error) {
	body := map[string]string{}
	if regionID != "" {
		body["region_id"] = regionID
	}
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// RetrieveCart fetches the authoritative cart state.
// Returns ErrNotFound when the cart no longer exists.
func (c *Client) RetrieveCart(ctx context.Context, cartID string) (*Cart, error) {
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/carts/"+cartID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// AddLineItem adds a product variant to the cart.
func (c *Client) AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*Cart, error) {
	body := map[string]any{"variant_id": variantID, "quantity": quantity}
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// UpdateLineItem sets the quantity of an existing line item.
func (c *Client) UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) (*Cart, error) {
	body := map[string]any{"quantity": quantity}
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items/"+lineID, nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// DeleteLineItem removes a line item from the cart.
func (c *Client) DeleteLineItem(ctx context.Context, cartID, lineID string) error {
	return c.do(ctx, http.MethodDelete, "/store/carts/"+cartID+"/line-items/"+lineID, nil, nil, nil)
}

// ApplyPromotions applies promotion codes to the cart.
func (c *Client) ApplyPromotions(ctx context.Context, cartID string, codes []string) (*Cart, error) {
	body := map[string]any{"promo_codes": codes}
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/promotions", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// RemovePromotions removes previously applied promotion codes.
func (c *Client) RemovePromotions(ctx context.Context, cartID string, codes []string) (*Cart, error) {
	body := map[string]any{"promo_codes": codes}
	var resp struct {
		Cart *Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodDelete, "/store/carts/"+cartID+"/promotions", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Cart, nil
}

// CompleteCart attempts to place an order from the cart. The backend answers
// with a discriminated result: the placed order, or the cart handed back
// together with the reason completion failed.
func (c *Client) CompleteCart(ctx context.Context, cartID string) (*OrderResult, error) {
	var resp struct {
		Type  string `json:"type"`
		Order *Order `json:"order"`
		Cart  *Cart  `json:"cart"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/complete", nil, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	result := &OrderResult{Type: resp.Type, Order: resp.Order, Cart: resp.Cart}
	if resp.Error != nil {
		result.Error = resp.Error.Message
	}
	return result, nil
}
