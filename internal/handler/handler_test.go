package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/addressbook"
	"github.com/mmeshcher/agroshop-session/internal/cart"
	"github.com/mmeshcher/agroshop-session/internal/checkout"
	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/session"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

type stubService struct {
	snapshot session.Snapshot
	events   []session.Event

	loginUser *model.User
	loginErr  error

	registerUser *model.User
	registerErr  error

	refreshErr error

	cartView  session.CartView
	addErr    error
	lastQtyID string
	lastQty   int
	removedID string
	addedProd model.Product

	view       addressbook.View
	addressErr error

	loyalty    *model.LoyaltyState
	loyaltyErr error
	rewards    []model.Reward
	redeemed   *model.AppliedReward
	redeemErr  error
	cleared    bool

	placement  session.Placement
	placeErr   error
	lastInput  session.CheckoutInput
	confirmErr error
	cancelErr  error

	orders []model.Order

	viewModeErr error
}

func (s *stubService) Snapshot() session.Snapshot { return s.snapshot }
func (s *stubService) Events() []session.Event    { return s.events }

func (s *stubService) Login(ctx context.Context, email, password string) (*model.User, error) {
	return s.loginUser, s.loginErr
}

func (s *stubService) Register(ctx context.Context, in gateway.RegisterInput) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) Logout(ctx context.Context) error  { return nil }
func (s *stubService) Refresh(ctx context.Context) error { return s.refreshErr }

func (s *stubService) Cart() session.CartView { return s.cartView }

func (s *stubService) AddToCart(ctx context.Context, p model.Product) error {
	s.addedProd = p
	return s.addErr
}

func (s *stubService) SetQuantity(ctx context.Context, productID string, qty int) {
	s.lastQtyID, s.lastQty = productID, qty
}

func (s *stubService) RemoveFromCart(ctx context.Context, productID string) {
	s.removedID = productID
}

func (s *stubService) Addresses() addressbook.View { return s.view }

func (s *stubService) AddAddress(ctx context.Context, text string) (string, error) {
	return text, s.addressErr
}

func (s *stubService) RemoveAddress(ctx context.Context, text string) error { return s.addressErr }

func (s *stubService) SetDefaultAddress(ctx context.Context, text string) (string, error) {
	return text, s.addressErr
}

func (s *stubService) SelectDeliveryAddress(text string) string { return text }

func (s *stubService) Loyalty() *model.LoyaltyState { return s.loyalty }

func (s *stubService) RefreshLoyalty(ctx context.Context) (*model.LoyaltyState, error) {
	return s.loyalty, s.loyaltyErr
}

func (s *stubService) IssueLoyaltyCard(ctx context.Context) (*model.LoyaltyState, error) {
	return s.loyalty, s.loyaltyErr
}

func (s *stubService) Rewards(ctx context.Context) ([]model.Reward, error) {
	return s.rewards, s.loyaltyErr
}

func (s *stubService) RedeemReward(ctx context.Context, name string) (*model.AppliedReward, error) {
	return s.redeemed, s.redeemErr
}

func (s *stubService) Redemptions(ctx context.Context) ([]model.Redemption, error) {
	return nil, s.loyaltyErr
}

func (s *stubService) ClearReward() { s.cleared = true }

func (s *stubService) PlaceOrder(ctx context.Context, in session.CheckoutInput) (session.Placement, error) {
	s.lastInput = in
	return s.placement, s.placeErr
}

func (s *stubService) ConfirmExternalPayment(ctx context.Context) error { return s.confirmErr }
func (s *stubService) CancelExternalPayment() error                     { return s.cancelErr }
func (s *stubService) Orders() []model.Order                            { return s.orders }

func (s *stubService) SetViewMode(ctx context.Context, mode model.ViewMode) error {
	return s.viewModeErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger)
}

func serve(t *testing.T, h *Handler, method, target string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func decodeBody(t *testing.T, res *http.Response, dst any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := &stubService{loginUser: &model.User{ID: "u1", Name: "Ama"}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/session/login", credentialsRequest{Email: "ama@farm.gh", Password: "pass"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var user model.User
	decodeBody(t, res, &user)
	if user.ID != "u1" {
		t.Fatalf("user id = %q, want u1", user.ID)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := serve(t, h, http.MethodPost, "/api/session/login", "{not json")
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestLogin_ValidationError(t *testing.T) {
	svc := &stubService{loginErr: validation.ErrCredentialsRequired}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/session/login", credentialsRequest{})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestLogin_GatewayMessagePassedThrough(t *testing.T) {
	svc := &stubService{loginErr: &gateway.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/session/login", credentialsRequest{Email: "a@b.c", Password: "x"})
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadGateway)
	}

	var body errorResponse
	decodeBody(t, res, &body)
	if body.Error != "Invalid credentials" {
		t.Fatalf("error = %q, want Invalid credentials", body.Error)
	}
}

func TestRegister_Created(t *testing.T) {
	svc := &stubService{registerUser: &model.User{ID: "u2"}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/session/register", gateway.RegisterInput{Name: "Kofi", Email: "k@farm.gh", Password: "secret"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
}

func TestRefresh_RequiresAuth(t *testing.T) {
	svc := &stubService{refreshErr: session.ErrNotAuthenticated}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/refresh", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestAddCartItem_StockConflict(t *testing.T) {
	svc := &stubService{addErr: fmt.Errorf("%w: %s (available %d)", cart.ErrStockExceeded, "p1", 2)}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/cart/items", model.Product{ID: "p1", Name: "Maize", Stock: 2})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	var body errorResponse
	decodeBody(t, res, &body)
	if !strings.Contains(body.Error, "not enough stock") {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestAddCartItem_NegativePrice(t *testing.T) {
	svc := &stubService{addErr: fmt.Errorf("%w: %s", cart.ErrInvalidPrice, "Maize")}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/cart/items", model.Product{ID: "p1", Name: "Maize", Price: decimal.NewFromInt(-100), Stock: 5})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestNewHandler_NilLogger(t *testing.T) {
	h := NewHandler(&stubService{placeErr: errors.New("boom")}, nil)

	res := serve(t, h, http.MethodPost, "/api/checkout", session.CheckoutInput{})
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestAddCartItem_MissingID(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/cart/items", model.Product{Name: "Maize"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if svc.addedProd.Name != "" {
		t.Fatalf("service must not be called without product id")
	}
}

func TestUpdateCartItem_PassesPathParam(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPut, "/api/cart/items/p7", map[string]int{"quantity": 4})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if svc.lastQtyID != "p7" || svc.lastQty != 4 {
		t.Fatalf("SetQuantity got (%q, %d), want (p7, 4)", svc.lastQtyID, svc.lastQty)
	}
}

func TestDeleteCartItem(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodDelete, "/api/cart/items/p3", nil)
	defer res.Body.Close()
	if svc.removedID != "p3" {
		t.Fatalf("removed = %q, want p3", svc.removedID)
	}
}

func TestAddAddress_NamespaceChanged(t *testing.T) {
	svc := &stubService{addressErr: addressbook.ErrNamespaceChanged}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/addresses", addressRequest{Address: "12 Farm Road"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestAddAddress_Empty(t *testing.T) {
	svc := &stubService{addressErr: validation.ErrAddressRequired}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/addresses", addressRequest{Address: "   "})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestPlaceOrder_Completed(t *testing.T) {
	svc := &stubService{placement: session.Placement{
		State: checkout.StateCompleted,
		Order: &model.Order{ID: "o1"},
	}}
	h := newTestHandler(t, svc)

	fee := decimal.NewFromInt(0)
	res := serve(t, h, http.MethodPost, "/api/checkout", session.CheckoutInput{
		DeliveryType:  model.DeliveryPickup,
		PaymentMethod: model.PaymentCOD,
		FeeOverride:   &fee,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var placement session.Placement
	decodeBody(t, res, &placement)
	if placement.Order == nil || placement.Order.ID != "o1" {
		t.Fatalf("unexpected placement: %+v", placement)
	}
	if svc.lastInput.FeeOverride == nil || !svc.lastInput.FeeOverride.IsZero() {
		t.Fatalf("fee override not passed: %+v", svc.lastInput)
	}
}

func TestPlaceOrder_ExternalAccepted(t *testing.T) {
	svc := &stubService{placement: session.Placement{
		State:       checkout.StatePendingExternalPayment,
		CheckoutURL: "https://pay.example/s/1",
		RequestID:   "req-1",
	}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/checkout", session.CheckoutInput{
		DeliveryType:  model.DeliveryInHouse,
		PaymentMethod: model.PaymentOnline,
	})
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}

	var placement session.Placement
	decodeBody(t, res, &placement)
	if placement.CheckoutURL != "https://pay.example/s/1" {
		t.Fatalf("checkout url = %q", placement.CheckoutURL)
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "empty cart", err: checkout.ErrEmptyCart, want: http.StatusUnprocessableEntity},
		{name: "invalid delivery type", err: validation.ErrInvalidDeliveryType, want: http.StatusUnprocessableEntity},
		{name: "in flight", err: session.ErrPlacementInFlight, want: http.StatusConflict},
		{name: "guest", err: session.ErrNotAuthenticated, want: http.StatusUnauthorized},
		{name: "gateway", err: &gateway.Error{StatusCode: 422, Message: "Product Rice is out of stock"}, want: http.StatusBadGateway},
		{name: "transport", err: errors.New("dial tcp: connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{placeErr: tt.err})

			res := serve(t, h, http.MethodPost, "/api/checkout", session.CheckoutInput{})
			defer res.Body.Close()
			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestConfirmPayment_NoPending(t *testing.T) {
	h := newTestHandler(t, &stubService{confirmErr: session.ErrNoPendingPayment})

	res := serve(t, h, http.MethodPost, "/api/checkout/confirm", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestCancelPayment_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := serve(t, h, http.MethodPost, "/api/checkout/cancel", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestGetOrders_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{orders: []model.Order{}})

	res := serve(t, h, http.MethodGet, "/api/orders", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestGetOrders_JSONResponse(t *testing.T) {
	h := newTestHandler(t, &stubService{orders: []model.Order{{ID: "o1"}}})

	res := serve(t, h, http.MethodGet, "/api/orders", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
}

func TestRedeemReward_InvalidReward(t *testing.T) {
	h := newTestHandler(t, &stubService{redeemErr: validation.ErrInvalidReward})

	res := serve(t, h, http.MethodPost, "/api/loyalty/rewards/redeem", map[string]string{"name": "Harvest50"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestClearReward(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodDelete, "/api/loyalty/reward", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK || !svc.cleared {
		t.Fatalf("status = %d cleared = %v", res.StatusCode, svc.cleared)
	}
}

func TestSetViewMode_Invalid(t *testing.T) {
	h := newTestHandler(t, &stubService{viewModeErr: validation.ErrInvalidViewMode})

	res := serve(t, h, http.MethodPut, "/api/preferences/view-mode", map[string]string{"mode": "carousel"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := serve(t, h, http.MethodGet, "/api/user/balance", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := serve(t, h, http.MethodPatch, "/api/orders", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusMethodNotAllowed)
	}
}
