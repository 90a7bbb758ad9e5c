// Package gateway предоставляет клиент удалённого коммерческого шлюза: каталог, корзина, заказы,
// доставки, лояльность и платёжные намерения.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

const requestIDHeader = "X-Request-Id"

// Client инкапсулирует HTTP-взаимодействие со шлюзом.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient создаёт клиент шлюза по указанному адресу. Адрес без схемы дополняется http://.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken задаёт bearer-токен для последующих запросов. Пустая строка отключает авторизацию.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path, requestID string, body, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("gateway client not configured")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedResponse, method, path, err)
	}
	return nil
}

// Login аутентифицирует пользователя по email и паролю.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return resp.result("/api/auth/login")
}

// Register регистрирует нового пользователя и сразу возвращает токен сессии.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &resp); err != nil {
		return nil, err
	}
	return resp.result("/api/auth/register")
}

// Cart возвращает серверную корзину пользователя. Отсутствие корзины возвращается как ErrNotFound.
func (c *Client) Cart(ctx context.Context, userID string) ([]model.CartLine, error) {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(userID), "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return nil, envelopeError("/api/cart", "items")
	}
	return *resp.Items, nil
}

// SaveCart целиком заменяет серверную корзину пользователя.
func (c *Client) SaveCart(ctx context.Context, userID string, lines []model.CartLine) error {
	req := saveCartRequest{UserID: userID, Items: model.CloneLines(lines)}
	return c.do(ctx, http.MethodPut, "/api/cart", "", req, nil)
}

// Orders возвращает историю заказов пользователя.
func (c *Client) Orders(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/user/"+url.PathEscape(userID), "", nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// CreateOrder создаёт заказ с оплатой при получении.
func (c *Client) CreateOrder(ctx context.Context, requestID string, p OrderPayload) (*model.Order, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", requestID, p, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return nil, envelopeError("/api/orders", "order")
	}
	return resp.Order, nil
}

// CreatePaymentIntent создаёт платёжное намерение и возвращает адрес внешней страницы оплаты.
func (c *Client) CreatePaymentIntent(ctx context.Context, requestID string, p OrderPayload) (string, error) {
	var resp paymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payments/checkout", requestID, p, &resp); err != nil {
		return "", err
	}
	if resp.Payment == nil || resp.Payment.CheckoutURL == "" {
		return "", envelopeError("/api/payments/checkout", "payment.checkoutUrl")
	}
	return resp.Payment.CheckoutURL, nil
}

// Deliveries возвращает доставки текущего пользователя.
func (c *Client) Deliveries(ctx context.Context) ([]model.Delivery, error) {
	var resp deliveriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/deliveries/mine", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Deliveries == nil {
		return nil, envelopeError("/api/deliveries/mine", "deliveries")
	}

	out := make([]model.Delivery, 0, len(*resp.Deliveries))
	for _, d := range *resp.Deliveries {
		out = append(out, d.toModel())
	}
	return out, nil
}

// LoyaltyStatus возвращает состояние программы лояльности.
func (c *Client) LoyaltyStatus(ctx context.Context) (*model.LoyaltyState, error) {
	var resp loyaltyResponse
	if err := c.do(ctx, http.MethodGet, "/api/loyalty/status", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Loyalty == nil {
		return nil, envelopeError("/api/loyalty/status", "loyalty")
	}
	return resp.Loyalty, nil
}

// IssueLoyaltyCard выпускает карту лояльности и возвращает обновлённое состояние.
func (c *Client) IssueLoyaltyCard(ctx context.Context) (*model.LoyaltyState, error) {
	var resp loyaltyResponse
	if err := c.do(ctx, http.MethodPost, "/api/loyalty/card", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Loyalty == nil {
		return nil, envelopeError("/api/loyalty/card", "loyalty")
	}
	return resp.Loyalty, nil
}

// Rewards возвращает награды, доступные для обмена.
func (c *Client) Rewards(ctx context.Context) ([]model.Reward, error) {
	var resp rewardsResponse
	if err := c.do(ctx, http.MethodGet, "/api/loyalty/rewards", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Rewards == nil {
		return nil, envelopeError("/api/loyalty/rewards", "rewards")
	}
	return *resp.Rewards, nil
}

// RedeemReward обменивает баллы на награду с указанным именем.
func (c *Client) RedeemReward(ctx context.Context, name string) (*Redeemed, error) {
	req := struct {
		Name string `json:"name"`
	}{Name: name}

	var resp redeemResponse
	if err := c.do(ctx, http.MethodPost, "/api/loyalty/rewards/redeem", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.Reward == nil {
		return nil, envelopeError("/api/loyalty/rewards/redeem", "reward")
	}
	return &Redeemed{Reward: *resp.Reward, Points: resp.Points}, nil
}

// Redemptions возвращает историю обменов баллов.
func (c *Client) Redemptions(ctx context.Context) ([]model.Redemption, error) {
	var resp redemptionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/loyalty/redemptions", "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Redemptions == nil {
		return nil, envelopeError("/api/loyalty/redemptions", "redemptions")
	}
	return *resp.Redemptions, nil
}
