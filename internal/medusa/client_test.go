package medusa

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkralj/storefront/internal/session"
	"github.com/dkralj/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.MedusaConfig{
		BaseURL:        server.URL,
		PublishableKey: "pk_test",
		Timeout:        5 * time.Second,
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func Test_Client_Headers(t *testing.T) {
	// given
	var gotKey, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-publishable-api-key")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"order": Order{ID: "order_01"}})
	})
	ctx := session.WithToken(context.Background(), "jwt_abc")
	// when
	_, err := client.GetOrder(ctx, "order_01")
	// then
	require.NoError(t, err)
	assert.Equal(t, "pk_test", gotKey)
	assert.Equal(t, "Bearer jwt_abc", gotAuth)
}

func Test_Client_GuestOmitsAuthorization(t *testing.T) {
	// given
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"order": Order{ID: "order_01"}})
	})
	// when
	_, err := client.GetOrder(context.Background(), "order_01")
	// then
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func Test_Client_GetOrder(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expectError error
		expectAPI   bool
		expectedMsg string
	}{
		{
			name:   "Success - order decoded",
			status: http.StatusOK,
			body:   `{"order":{"id":"order_01","email":"jane@example.com","items":[{"id":"item_a","quantity":2,"detail":{"delivered_quantity":2}}]}}`,
		},
		{
			name:        "Error - 404 maps to ErrNotFound",
			status:      http.StatusNotFound,
			body:        `{"message":"Order with id: order_01 was not found"}`,
			expectError: ErrNotFound,
		},
		{
			name:        "Error - backend message decoded",
			status:      http.StatusBadRequest,
			body:        `{"message":"Invalid order id"}`,
			expectAPI:   true,
			expectedMsg: "Invalid order id",
		},
		{
			name:        "Error - non-JSON body carried verbatim",
			status:      http.StatusInternalServerError,
			body:        `upstream exploded`,
			expectAPI:   true,
			expectedMsg: "upstream exploded",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			// when
			order, err := client.GetOrder(context.Background(), "order_01")
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, order)
				return
			}
			if tc.expectAPI {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tc.status, apiErr.Status)
				assert.Equal(t, tc.expectedMsg, apiErr.Message)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, order)
			assert.Equal(t, "order_01", order.ID)
			require.Len(t, order.Items, 1)
			require.NotNil(t, order.Items[0].Detail)
			assert.Equal(t, 2, order.Items[0].Detail.DeliveredQuantity)
		})
	}
}

func Test_Client_CartLifecycle(t *testing.T) {
	// given: a backend echoing each cart mutation
	mux := http.NewServeMux()
	mux.HandleFunc("POST /store/carts", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"cart": Cart{ID: "cart_01"}})
	})
	mux.HandleFunc("POST /store/carts/cart_01/line-items", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "variant_01", body["variant_id"])
		_ = json.NewEncoder(w).Encode(map[string]any{"cart": Cart{
			ID:    "cart_01",
			Items: []CartLineItem{{ID: "item_a", VariantID: "variant_01", Quantity: 2}},
		}})
	})
	mux.HandleFunc("POST /store/carts/cart_01/line-items/item_a", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["quantity"])
		_ = json.NewEncoder(w).Encode(map[string]any{"cart": Cart{
			ID:    "cart_01",
			Items: []CartLineItem{{ID: "item_a", Quantity: 5}},
		}})
	})
	mux.HandleFunc("DELETE /store/carts/cart_01/line-items/item_a", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, mux.ServeHTTP)
	ctx := context.Background()

	// when / then
	cart, err := client.CreateCart(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "cart_01", cart.ID)

	cart, err = client.AddLineItem(ctx, "cart_01", "variant_01", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart, err = client.UpdateLineItem(ctx, "cart_01", "item_a", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	require.NoError(t, client.DeleteLineItem(ctx, "cart_01", "item_a"))
}

func Test_Client_Promotions(t *testing.T) {
	// given
	var gotMethod string
	var gotCodes []any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotCodes, _ = body["promo_codes"].([]any)
		_ = json.NewEncoder(w).Encode(map[string]any{"cart": Cart{
			ID:         "cart_01",
			Promotions: []Promotion{{ID: "promo_01", Code: "SUMMER10"}},
		}})
	})
	ctx := context.Background()

	// when / then: apply
	cart, err := client.ApplyPromotions(ctx, "cart_01", []string{"SUMMER10"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, []any{"SUMMER10"}, gotCodes)
	require.Len(t, cart.Promotions, 1)

	// when / then: remove rides the same endpoint with DELETE
	_, err = client.RemovePromotions(ctx, "cart_01", []string{"SUMMER10"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func Test_Client_CompleteCart(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		expected OrderResult
	}{
		{
			name:     "Order placed",
			response: `{"type":"order","order":{"id":"order_01","email":"jane@example.com"}}`,
			expected: OrderResult{Type: "order", Order: &Order{ID: "order_01", Email: "jane@example.com"}},
		},
		{
			name:     "Completion refused - cart handed back with reason",
			response: `{"type":"cart","cart":{"id":"cart_01"},"error":{"message":"Payment authorization failed"}}`,
			expected: OrderResult{Type: "cart", Cart: &Cart{ID: "cart_01"}, Error: "Payment authorization failed"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.response))
			})
			// when
			result, err := client.CompleteCart(context.Background(), "cart_01")
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expected, *result)
		})
	}
}

func Test_Client_ReturnShippingOptionsQuery(t *testing.T) {
	// given
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"shipping_options": []ShippingOption{{ID: "so_01", Name: "Return by mail", PriceType: "flat"}},
		})
	})
	// when
	options, err := client.ListReturnShippingOptions(context.Background(), "cart_01")
	// then
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, []string{"cart_01"}, gotQuery["cart_id"])
	assert.Equal(t, []string{"true"}, gotQuery["is_return"])
}
