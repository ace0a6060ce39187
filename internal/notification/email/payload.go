// Package email builds and dispatches the order confirmation email.
package email

import (
	"fmt"
	"strings"

	"github.com/dkralj/storefront/internal/medusa"
)

// TemplateOrderPlaced is the provider-side template key for the order
// confirmation email.
const TemplateOrderPlaced = "order-placed"

// countryNames maps the ISO codes the storefront ships to onto display
// names. Unknown codes fall back to the upper-cased code itself.
var countryNames = map[string]string{
	"at": "Austria",
	"au": "Australia",
	"be": "Belgium",
	"ca": "Canada",
	"ch": "Switzerland",
	"de": "Germany",
	"dk": "Denmark",
	"es": "Spain",
	"fr": "France",
	"gb": "United Kingdom",
	"hr": "Croatia",
	"it": "Italy",
	"nl": "Netherlands",
	"pl": "Poland",
	"pt": "Portugal",
	"se": "Sweden",
	"us": "United States",
}

// CountryDisplayName resolves an ISO 3166-1 alpha-2 code to a display name.
func CountryDisplayName(code string) string {
	if code == "" {
		return ""
	}
	if name, ok := countryNames[strings.ToLower(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// AddressPayload is an address rendered for the email template.
type AddressPayload struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// ItemPayload is one order line rendered for the email template.
type ItemPayload struct {
	Title     string            `json:"title"`
	Options   map[string]string `json:"options,omitempty"`
	Quantity  int               `json:"quantity"`
	Total     float64           `json:"total"`
	Thumbnail string            `json:"thumbnail,omitempty"`
}

// OrderPayload is the template data of the order confirmation email.
type OrderPayload struct {
	OrderID         string          `json:"order_id"`
	Email           string          `json:"email"`
	CurrencyCode    string          `json:"currency_code"`
	Subtotal        float64         `json:"subtotal"`
	ShippingTotal   float64         `json:"shipping_total"`
	TaxTotal        float64         `json:"tax_total"`
	Total           float64         `json:"total"`
	Items           []ItemPayload   `json:"items"`
	ShippingAddress *AddressPayload `json:"shipping_address,omitempty"`
	BillingAddress  *AddressPayload `json:"billing_address,omitempty"`
}

// BuildOrderPayload projects a backend order onto the email template data,
// resolving country display names and variant option labels.
func BuildOrderPayload(order *medusa.Order) OrderPayload {
	payload := OrderPayload{
		OrderID:         order.ID,
		Email:           order.Email,
		CurrencyCode:    order.CurrencyCode,
		Subtotal:        order.Subtotal,
		ShippingTotal:   order.ShippingTotal,
		TaxTotal:        order.TaxTotal,
		Total:           order.Total,
		Items:           make([]ItemPayload, 0, len(order.Items)),
		ShippingAddress: buildAddress(order.ShippingAddress),
		BillingAddress:  buildAddress(order.BillingAddress),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, ItemPayload{
			Title:     itemTitle(item),
			Options:   optionLabels(item),
			Quantity:  item.Quantity,
			Total:     item.Total,
			Thumbnail: item.Thumbnail,
		})
	}
	return payload
}

func buildAddress(a *medusa.Address) *AddressPayload {
	if a == nil {
		return nil
	}
	return &AddressPayload{
		Name:       strings.TrimSpace(fmt.Sprintf("%s %s", a.FirstName, a.LastName)),
		Line1:      a.Address1,
		Line2:      a.Address2,
		City:       a.City,
		PostalCode: a.PostalCode,
		Province:   a.Province,
		Country:    CountryDisplayName(a.CountryCode),
		Phone:      a.Phone,
	}
}

func itemTitle(item medusa.OrderLineItem) string {
	if item.ProductTitle != "" {
		return item.ProductTitle
	}
	return item.Title
}

// optionLabels maps option titles to the purchased values. The backend
// reports these either as a precomputed map or as the variant's option
// records; the precomputed map wins when both are present.
func optionLabels(item medusa.OrderLineItem) map[string]string {
	if len(item.OptionValues) > 0 {
		return item.OptionValues
	}
	if item.Variant == nil || len(item.Variant.Options) == 0 {
		return nil
	}
	labels := make(map[string]string, len(item.Variant.Options))
	for _, opt := range item.Variant.Options {
		title := opt.Option.Title
		if title == "" {
			continue
		}
		labels[title] = opt.Value
	}
	return labels
}
