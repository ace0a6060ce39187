package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkralj/storefront/internal/cart"
	"github.com/dkralj/storefront/internal/medusa"
	"github.com/dkralj/storefront/internal/returns"
	"github.com/dkralj/storefront/internal/session"
	"github.com/dkralj/storefront/internal/webmcp"
	"github.com/dkralj/storefront/pkg/messaging"
	"github.com/dkralj/storefront/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend unavailable")

// mockCartService is a mock implementation of the CartService interface
type mockCartService struct {
	cart      *medusa.Cart
	result    *medusa.OrderResult
	error     error
	deleteErr error
}

func (m *mockCartService) CreateCart(_ context.Context, _ string) (*medusa.Cart, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.cart, nil
}

func (m *mockCartService) AddLineItem(_ context.Context, _, _ string, _ int) (*medusa.Cart, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.cart, nil
}

func (m *mockCartService) UpdateLineItem(_ context.Context, _, _ string, _ int) (*medusa.Cart, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.cart, nil
}

func (m *mockCartService) DeleteLineItem(_ context.Context, _, _ string) error {
	return m.deleteErr
}

func (m *mockCartService) ApplyPromotions(_ context.Context, _ string, _ []string) (*medusa.Cart, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.cart, nil
}

func (m *mockCartService) RemovePromotions(_ context.Context, _ string, _ []string) (*medusa.Cart, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.cart, nil
}

func (m *mockCartService) CompleteCart(_ context.Context, _ string) (*medusa.OrderResult, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.result, nil
}

// mockReturnsService is a mock implementation of the ReturnsService interface
type mockReturnsService struct {
	submitResult returns.SubmitResult
	order        *medusa.Order
	verifyErr    error
	ret          *medusa.Return
	trackErr     error
	reasons      []medusa.ReturnReason
	options      []medusa.ShippingOption
	price        *medusa.ShippingOptionPrice
}

func (m *mockReturnsService) Submit(_ context.Context, _ returns.SubmitRequest) returns.SubmitResult {
	return m.submitResult
}

func (m *mockReturnsService) VerifyGuestAccess(_ context.Context, _, _ string) (*medusa.Order, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.order, nil
}

func (m *mockReturnsService) TrackReturn(_ context.Context, _, _ string) (*medusa.Return, error) {
	if m.trackErr != nil {
		return nil, m.trackErr
	}
	return m.ret, nil
}

func (m *mockReturnsService) ReturnReasons(_ context.Context) []medusa.ReturnReason {
	return m.reasons
}

func (m *mockReturnsService) ShippingOptions(_ context.Context, _ string) []medusa.ShippingOption {
	return m.options
}

func (m *mockReturnsService) ShippingPrice(_ context.Context, _, _ string) *medusa.ShippingOptionPrice {
	return m.price
}

// mockPublisher records published events.
type mockPublisher struct {
	events []messaging.Event
	error  error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	if m.error != nil {
		return m.error
	}
	m.events = append(m.events, event)
	return nil
}

type fixedFetcher struct{ cart *medusa.Cart }

func (f *fixedFetcher) RetrieveCart(_ context.Context, _ string) (*medusa.Cart, error) {
	return f.cart, nil
}

// supersededFetcher cancels its own refresh before answering, the way a
// concurrent mutation of the same cart would.
type supersededFetcher struct {
	coordinator *cart.Coordinator
	cart        *medusa.Cart
	cancels     int
}

func (f *supersededFetcher) RetrieveCart(ctx context.Context, cartID string) (*medusa.Cart, error) {
	if f.cancels > 0 {
		f.cancels--
		_ = f.coordinator.Invalidate(context.Background(), cartID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.cart, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(carts *mockCartService, returnsSvc *mockReturnsService, publisher *mockPublisher) http.Handler {
	logger := testLogger()
	coordinator := cart.NewCoordinator(cart.NewMemoryCache(), &fixedFetcher{cart: carts.cart}, logger)
	registry := webmcp.NewRegistry(logger)
	registry.Add(webmcp.Tool{
		Name: "cart.manage",
		Handler: func(_ context.Context, params webmcp.Params) webmcp.Result {
			if params.String("action") == "" {
				return webmcp.Fail(webmcp.CodeUnknownAction, "Unknown action: ")
			}
			return webmcp.Ok(nil)
		},
	})
	handler := NewHandler(carts, returnsSvc, coordinator, registry, publisher, session.NewManager(false), logger)

	mux := server.NewChiRouter(logger)
	handler.RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, router http.Handler, method, target, body string, withCart bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
		r.ContentLength = int64(len(body))
	}
	if withCart {
		r.AddCookie(&http.Cookie{Name: session.CartCookie, Value: "cart_01"})
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, r)
	return recorder
}

func Test_Handler_SubmitReturn(t *testing.T) {
	testCases := []struct {
		name           string
		result         returns.SubmitResult
		expectedStatus int
	}{
		{
			name:           "Success - return created",
			result:         returns.SubmitResult{Success: true, Return: &medusa.Return{ID: "ret_01"}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Failure - inline error carried in the result",
			result:         returns.SubmitResult{Success: false, Error: "Order ID, items, and return shipping option are required"},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(&mockCartService{}, &mockReturnsService{submitResult: tc.result}, &mockPublisher{})
			// when
			recorder := doRequest(t, router, http.MethodPost, "/api/v1/returns",
				`{"order_id":"order_01","items":[{"id":"item_a","quantity":1}],"return_shipping_option_id":"so_01"}`, false)
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
			assert.Contains(t, recorder.Body.String(), `"success"`)
		})
	}
}

func Test_Handler_VerifyGuestAccess(t *testing.T) {
	order := &medusa.Order{
		ID:    "order_01",
		Email: "jane@example.com",
		Items: []medusa.OrderLineItem{{
			ID:       "item_a",
			Quantity: 2,
			Detail:   &medusa.LineItemDetail{DeliveredQuantity: 2},
		}},
	}

	testCases := []struct {
		name           string
		service        *mockReturnsService
		body           string
		expectedStatus int
	}{
		{
			name:           "Success - order with return status payload",
			service:        &mockReturnsService{order: order},
			body:           `{"order_id":"order_01","email":"jane@example.com"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Forbidden - access denied",
			service:        &mockReturnsService{verifyErr: returns.ErrAccessDenied},
			body:           `{"order_id":"order_01","email":"mallory@example.com"}`,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Conflict - nothing returnable",
			service:        &mockReturnsService{verifyErr: returns.ErrNoReturnableItems},
			body:           `{"order_id":"order_01","email":"jane@example.com"}`,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Bad request - invalid email",
			service:        &mockReturnsService{order: order},
			body:           `{"order_id":"order_01","email":"not-an-email"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Internal error - backend failure",
			service:        &mockReturnsService{verifyErr: errBackendDown},
			body:           `{"order_id":"order_01","email":"jane@example.com"}`,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(&mockCartService{}, tc.service, &mockPublisher{})
			// when
			recorder := doRequest(t, router, http.MethodPost, "/api/v1/returns/verify", tc.body, false)
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
			if tc.expectedStatus == http.StatusOK {
				assert.Contains(t, recorder.Body.String(), `"returnableQuantity":2`)
				assert.Contains(t, recorder.Body.String(), `"return_status"`)
			}
		})
	}
}

func Test_Handler_TrackReturn(t *testing.T) {
	testCases := []struct {
		name           string
		service        *mockReturnsService
		target         string
		expectedStatus int
	}{
		{
			name:           "Success",
			service:        &mockReturnsService{ret: &medusa.Return{ID: "ret_01", Status: "received"}},
			target:         "/api/v1/returns/ret_01?email=jane@example.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing email parameter",
			service:        &mockReturnsService{},
			target:         "/api/v1/returns/ret_01",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Access denied",
			service:        &mockReturnsService{trackErr: returns.ErrAccessDenied},
			target:         "/api/v1/returns/ret_01?email=mallory@example.com",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(&mockCartService{}, tc.service, &mockPublisher{})
			// when
			recorder := doRequest(t, router, http.MethodGet, tc.target, "", false)
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
		})
	}
}

func Test_Handler_ReturnLookups(t *testing.T) {
	// given
	service := &mockReturnsService{
		reasons: []medusa.ReturnReason{{ID: "rr_01", Label: "Damaged"}},
		options: []medusa.ShippingOption{{ID: "so_01", Name: "Return by mail", PriceType: "flat", Amount: 5}},
		price:   &medusa.ShippingOptionPrice{ID: "so_02", Amount: 12.5},
	}
	router := newTestRouter(&mockCartService{}, service, &mockPublisher{})

	// when / then: reasons
	recorder := doRequest(t, router, http.MethodGet, "/api/v1/returns/reasons", "", false)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Damaged")

	// when / then: shipping options require a cart id
	recorder = doRequest(t, router, http.MethodGet, "/api/v1/returns/shipping-options", "", false)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/returns/shipping-options?cart_id=cart_01", "", false)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Return by mail")

	// when / then: price calculation
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/returns/shipping-options/so_02/price", `{"cart_id":"cart_01"}`, false)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "12.5")
}

func Test_Handler_CreateCart(t *testing.T) {
	// given
	carts := &mockCartService{cart: &medusa.Cart{ID: "cart_01"}}
	router := newTestRouter(carts, &mockReturnsService{}, &mockPublisher{})
	// when
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/cart", "", false)
	// then
	assert.Equal(t, http.StatusCreated, recorder.Code)
	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CartCookie, cookies[0].Name)
	assert.Equal(t, "cart_01", cookies[0].Value)
}

func Test_Handler_CartMutations(t *testing.T) {
	backendCart := &medusa.Cart{
		ID:    "cart_01",
		Items: []medusa.CartLineItem{{ID: "item_a", VariantID: "variant_01", Quantity: 2}},
	}

	testCases := []struct {
		name           string
		carts          *mockCartService
		method         string
		target         string
		body           string
		withCart       bool
		expectedStatus int
	}{
		{
			name:           "Add line item - success",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/line-items",
			body:           `{"variant_id":"variant_01","quantity":2}`,
			withCart:       true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Add line item - no cart cookie",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/line-items",
			body:           `{"variant_id":"variant_01","quantity":2}`,
			withCart:       false,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Add line item - missing variant",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/line-items",
			body:           `{"quantity":2}`,
			withCart:       true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Update line item - success",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/line-items/item_a",
			body:           `{"quantity":5}`,
			withCart:       true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Update line item - backend failure",
			carts:          &mockCartService{error: errBackendDown},
			method:         http.MethodPost,
			target:         "/api/v1/cart/line-items/item_a",
			body:           `{"quantity":5}`,
			withCart:       true,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Delete line item - success",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodDelete,
			target:         "/api/v1/cart/line-items/item_a",
			withCart:       true,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Apply promotion - success",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/promotions",
			body:           `{"code":"SUMMER10"}`,
			withCart:       true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Apply promotion - missing code",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodPost,
			target:         "/api/v1/cart/promotions",
			body:           `{}`,
			withCart:       true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Remove promotion - success",
			carts:          &mockCartService{cart: backendCart},
			method:         http.MethodDelete,
			target:         "/api/v1/cart/promotions",
			body:           `{"code":"SUMMER10"}`,
			withCart:       true,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.carts, &mockReturnsService{}, &mockPublisher{})
			// when
			recorder := doRequest(t, router, tc.method, tc.target, tc.body, tc.withCart)
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
		})
	}
}

func Test_Handler_GetCart_SupersededRefresh(t *testing.T) {
	testCases := []struct {
		name           string
		cancels        int
		expectedStatus int
	}{
		{
			name:           "Retry succeeds after one superseded refresh",
			cancels:        1,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Persistently superseded cart reported busy",
			cancels:        2,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			logger := testLogger()
			fetcher := &supersededFetcher{
				cart:    &medusa.Cart{ID: "cart_01", Items: []medusa.CartLineItem{{ID: "item_a", Quantity: 2}}},
				cancels: tc.cancels,
			}
			coordinator := cart.NewCoordinator(cart.NewMemoryCache(), fetcher, logger)
			fetcher.coordinator = coordinator
			handler := NewHandler(&mockCartService{}, &mockReturnsService{}, coordinator,
				webmcp.NewRegistry(logger), &mockPublisher{}, session.NewManager(false), logger)
			mux := server.NewChiRouter(logger)
			handler.RegisterRoutes(mux)

			// when
			var recorder *httptest.ResponseRecorder
			require.NotPanics(t, func() {
				recorder = doRequest(t, mux, http.MethodGet, "/api/v1/cart", "", true)
			})
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
			if tc.expectedStatus == http.StatusOK {
				assert.Contains(t, recorder.Body.String(), `"total_quantity":2`)
			}
		})
	}
}

func Test_Handler_CompleteCart(t *testing.T) {
	testCases := []struct {
		name           string
		carts          *mockCartService
		publisher      *mockPublisher
		expectedStatus int
		expectEvent    bool
	}{
		{
			name: "Order placed - event published and cookie cleared",
			carts: &mockCartService{result: &medusa.OrderResult{
				Type:  "order",
				Order: &medusa.Order{ID: "order_01", Email: "jane@example.com"},
			}},
			publisher:      &mockPublisher{},
			expectedStatus: http.StatusOK,
			expectEvent:    true,
		},
		{
			name: "Completion refused - cart handed back",
			carts: &mockCartService{result: &medusa.OrderResult{
				Type:  "cart",
				Cart:  &medusa.Cart{ID: "cart_01"},
				Error: "Payment authorization failed",
			}},
			publisher:      &mockPublisher{},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Publish failure does not fail the checkout",
			carts: &mockCartService{result: &medusa.OrderResult{
				Type:  "order",
				Order: &medusa.Order{ID: "order_01", Email: "jane@example.com"},
			}},
			publisher:      &mockPublisher{error: errors.New("stream unavailable")},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newTestRouter(tc.carts, &mockReturnsService{}, tc.publisher)
			// when
			recorder := doRequest(t, router, http.MethodPost, "/api/v1/cart/complete", "", true)
			// then
			assert.Equal(t, tc.expectedStatus, recorder.Code)
			if tc.expectEvent {
				require.Len(t, tc.publisher.events, 1)
				assert.Equal(t, "orders.placed", tc.publisher.events[0].Subject())
			} else {
				assert.Empty(t, tc.publisher.events)
			}
		})
	}
}

func Test_Handler_Tools(t *testing.T) {
	// given
	router := newTestRouter(&mockCartService{}, &mockReturnsService{}, &mockPublisher{})

	// when / then: listing
	recorder := doRequest(t, router, http.MethodGet, "/api/v1/tools", "", false)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "cart.manage")

	// when / then: calling a registered tool
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tools/cart.manage", `{"action":"view"}`, true)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"ok":true`)

	// when / then: unknown tool
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tools/unknown.tool", `{}`, false)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func Test_Handler_HealthCheck(t *testing.T) {
	router := newTestRouter(&mockCartService{}, &mockReturnsService{}, &mockPublisher{})
	recorder := doRequest(t, router, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
