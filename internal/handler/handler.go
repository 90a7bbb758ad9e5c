// Package handler содержит HTTP-обработчики локального API движка сессии.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/addressbook"
	"github.com/mmeshcher/agroshop-session/internal/cart"
	"github.com/mmeshcher/agroshop-session/internal/checkout"
	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/session"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

// Service определяет контракт движка сессии, используемый HTTP-обработчиками.
type Service interface {
	Snapshot() session.Snapshot
	Events() []session.Event
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, in gateway.RegisterInput) (*model.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error

	Cart() session.CartView
	AddToCart(ctx context.Context, p model.Product) error
	SetQuantity(ctx context.Context, productID string, qty int)
	RemoveFromCart(ctx context.Context, productID string)

	Addresses() addressbook.View
	AddAddress(ctx context.Context, text string) (string, error)
	RemoveAddress(ctx context.Context, text string) error
	SetDefaultAddress(ctx context.Context, text string) (string, error)
	SelectDeliveryAddress(text string) string

	Loyalty() *model.LoyaltyState
	RefreshLoyalty(ctx context.Context) (*model.LoyaltyState, error)
	IssueLoyaltyCard(ctx context.Context) (*model.LoyaltyState, error)
	Rewards(ctx context.Context) ([]model.Reward, error)
	RedeemReward(ctx context.Context, name string) (*model.AppliedReward, error)
	Redemptions(ctx context.Context) ([]model.Redemption, error)
	ClearReward()

	PlaceOrder(ctx context.Context, in session.CheckoutInput) (session.Placement, error)
	ConfirmExternalPayment(ctx context.Context) error
	CancelExternalPayment() error
	Orders() []model.Order

	SetViewMode(ctx context.Context, mode model.ViewMode) error
}

// Handler реализует HTTP-обработчики локального API.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: http.StatusText(http.StatusBadRequest)})
		return false
	}
	return true
}

// statusFor сопоставляет ошибку движка с HTTP-статусом.
func statusFor(err error) int {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, validation.ErrAddressRequired),
		errors.Is(err, validation.ErrInvalidReward),
		errors.Is(err, validation.ErrInvalidDeliveryType),
		errors.Is(err, validation.ErrInvalidPaymentMethod),
		errors.Is(err, validation.ErrCredentialsRequired),
		errors.Is(err, validation.ErrInvalidViewMode),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNegativeFee):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, session.ErrPlacementInFlight),
		errors.Is(err, session.ErrSessionChanged),
		errors.Is(err, addressbook.ErrNamespaceChanged):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNoPendingPayment):
		return http.StatusNotFound
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("uri", r.RequestURI), zap.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// GetSession возвращает снимок состояния сессии.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// GetEvents выдаёт накопленные одноразовые события.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Events())
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет вход.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Register регистрирует пользователя и выполняет вход.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req gateway.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Logout завершает сессию пользователя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh обновляет данные авторизованного пользователя.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// SetViewMode сохраняет режим отображения каталога.
func (h *Handler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode model.ViewMode `json:"mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SetViewMode(r.Context(), req.Mode); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
