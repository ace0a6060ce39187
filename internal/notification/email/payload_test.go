package email

import (
	"testing"

	"github.com/dkralj/storefront/internal/medusa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CountryDisplayName(t *testing.T) {
	testCases := []struct {
		name     string
		code     string
		expected string
	}{
		{name: "Known code lowercase", code: "hr", expected: "Croatia"},
		{name: "Known code uppercase", code: "DE", expected: "Germany"},
		{name: "Unknown code falls back to upper-cased ISO", code: "xx", expected: "XX"},
		{name: "Empty code", code: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CountryDisplayName(tc.code))
		})
	}
}

func Test_BuildOrderPayload(t *testing.T) {
	// given
	order := &medusa.Order{
		ID:            "order_01",
		Email:         "jane@example.com",
		CurrencyCode:  "eur",
		Subtotal:      80,
		ShippingTotal: 5,
		TaxTotal:      15,
		Total:         100,
		ShippingAddress: &medusa.Address{
			FirstName:   "Jane",
			LastName:    "Doe",
			Address1:    "Ilica 1",
			City:        "Zagreb",
			PostalCode:  "10000",
			CountryCode: "hr",
		},
		Items: []medusa.OrderLineItem{
			{
				ID:           "item_a",
				Title:        "M / Black",
				ProductTitle: "Sweatshirt",
				Quantity:     2,
				Total:        80,
				Thumbnail:    "https://cdn.example.com/sweatshirt.png",
				OptionValues: map[string]string{"Size": "M", "Color": "Black"},
			},
			{
				ID:       "item_b",
				Title:    "Socks",
				Quantity: 1,
				Total:    20,
				Variant: &medusa.ProductVariant{Options: []medusa.VariantOption{
					{Value: "L", Option: medusa.VariantOptionInfo{Title: "Size"}},
				}},
			},
		},
	}
	// when
	payload := BuildOrderPayload(order)
	// then
	assert.Equal(t, "order_01", payload.OrderID)
	assert.Equal(t, 100.0, payload.Total)

	require.NotNil(t, payload.ShippingAddress)
	assert.Equal(t, "Jane Doe", payload.ShippingAddress.Name)
	assert.Equal(t, "Croatia", payload.ShippingAddress.Country)
	assert.Nil(t, payload.BillingAddress)

	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Sweatshirt", payload.Items[0].Title)
	assert.Equal(t, map[string]string{"Size": "M", "Color": "Black"}, payload.Items[0].Options)
	assert.Equal(t, "https://cdn.example.com/sweatshirt.png", payload.Items[0].Thumbnail)

	// the second item resolves its labels from the variant's option records
	assert.Equal(t, "Socks", payload.Items[1].Title)
	assert.Equal(t, map[string]string{"Size": "L"}, payload.Items[1].Options)
}
