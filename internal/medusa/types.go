package medusa

// LineItemDetail carries the fulfillment counters for an order line item.
// The counters are owned by the backend order-fulfillment system and are
// monotonically non-decreasing; this code never mutates them.
type LineItemDetail struct {
	DeliveredQuantity       int `json:"delivered_quantity"`
	ReturnRequestedQuantity int `json:"return_requested_quantity"`
	ReturnReceivedQuantity  int `json:"return_received_quantity"`
	WrittenOffQuantity      int `json:"written_off_quantity"`
}

// OrderLineItem is a purchased line item as reported by the backend.
type OrderLineItem struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	ProductTitle string            `json:"product_title,omitempty"`
	VariantTitle string            `json:"variant_title,omitempty"`
	VariantID    string            `json:"variant_id,omitempty"`
	Thumbnail    string            `json:"thumbnail,omitempty"`
	Quantity     int               `json:"quantity"`
	Total        float64           `json:"total"`
	Detail       *LineItemDetail   `json:"detail,omitempty"`
	Variant      *ProductVariant   `json:"variant,omitempty"`
	OptionValues map[string]string `json:"variant_option_values,omitempty"`
}

// ProductVariant holds the option values of the purchased variant.
type ProductVariant struct {
	Options []VariantOption `json:"options,omitempty"`
}

type VariantOption struct {
	Value  string            `json:"value"`
	Option VariantOptionInfo `json:"option"`
}

type VariantOptionInfo struct {
	Title string `json:"title"`
}

// Address is a shipping or billing address attached to an order.
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address1    string `json:"address_1,omitempty"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Province    string `json:"province,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Order is the storefront-facing projection of a backend order.
type Order struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	CurrencyCode    string          `json:"currency_code"`
	Subtotal        float64         `json:"subtotal"`
	ShippingTotal   float64         `json:"shipping_total"`
	TaxTotal        float64         `json:"tax_total"`
	Total           float64         `json:"total"`
	Items           []OrderLineItem `json:"items"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
}

// Cart mirrors the subset of the remote cart the storefront works with.
type Cart struct {
	ID            string         `json:"id"`
	CurrencyCode  string         `json:"currency_code"`
	Subtotal      float64        `json:"subtotal"`
	Total         float64        `json:"total"`
	DiscountTotal float64        `json:"discount_total"`
	Items         []CartLineItem `json:"items"`
	Promotions    []Promotion    `json:"promotions,omitempty"`
}

type CartLineItem struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	VariantID string  `json:"variant_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type Promotion struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ShippingOption is a return or outbound shipping option. PriceType is
// either "flat" or "calculated"; calculated options require a separate
// price calculation call.
type ShippingOption struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	PriceType string  `json:"price_type"`
	Amount    float64 `json:"amount"`
}

// ShippingOptionPrice is the calculated price of a shipping option.
type ShippingOptionPrice struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
}

type ReturnReason struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ReturnItem is one line of a return request.
type ReturnItem struct {
	ID             string `json:"id"`
	Quantity       int    `json:"quantity"`
	ReturnReasonID string `json:"return_reason_id,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Return is a created return as reported by the backend.
type Return struct {
	ID      string       `json:"id"`
	OrderID string       `json:"order_id"`
	Status  string       `json:"status"`
	Items   []ReturnItem `json:"items,omitempty"`
}

// CreateReturnRequest is the payload for POST /store/returns.
type CreateReturnRequest struct {
	OrderID        string         `json:"order_id"`
	Items          []ReturnItem   `json:"items"`
	ReturnShipping ReturnShipping `json:"return_shipping"`
	LocationID     string         `json:"location_id,omitempty"`
}

type ReturnShipping struct {
	OptionID string `json:"option_id"`
}

// OrderResult is the discriminated outcome of completing a cart: either the
// placed order, or the cart handed back with the backend's error message.
type OrderResult struct {
	Type  string `json:"type"`
	Order *Order `json:"order,omitempty"`
	Cart  *Cart  `json:"cart,omitempty"`
	Error string `json:"error,omitempty"`
}
