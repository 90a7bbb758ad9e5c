package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
)

// fakeGateway хранит данные шлюза в памяти. Хуки позволяют вмешаться в середину сетевого вызова.
type fakeGateway struct {
	mu sync.Mutex

	token    string
	accounts map[string]fakeAccount
	carts    map[string][]model.CartLine
	orders   map[string][]model.Order

	deliveries []model.Delivery
	loyalty    *model.LoyaltyState
	rewards    map[string]model.Reward

	cartErr     error
	ordersErr   error
	orderErr    error
	intentErr   error
	saveCartErr error
	checkoutURL string

	beforeAuth    func()
	beforeRefresh func()
	orderGate     chan struct{}

	saveCalls   int
	orderCalls  int
	intentCalls int
	lastPayload gateway.OrderPayload
	nextOrder   int
}

type fakeAccount struct {
	password string
	user     model.User
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		accounts:    map[string]fakeAccount{},
		carts:       map[string][]model.CartLine{},
		orders:      map[string][]model.Order{},
		rewards:     map[string]model.Reward{},
		checkoutURL: "https://pay.example/session/1",
	}
}

func (f *fakeGateway) addAccount(id, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = fakeAccount{password: password, user: model.User{ID: id, Email: email, Name: "Farmer " + id}}
}

func (f *fakeGateway) serverCart(userID string) []model.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneLines(f.carts[userID])
}

func (f *fakeGateway) setServerCart(userID string, lines []model.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = model.CloneLines(lines)
}

func (f *fakeGateway) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeGateway) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeGateway) Login(_ context.Context, email, password string) (*gateway.AuthResult, error) {
	if f.beforeAuth != nil {
		f.beforeAuth()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, &gateway.Error{StatusCode: 401, Message: "Invalid email or password"}
	}
	return &gateway.AuthResult{Token: "token-" + acc.user.ID, User: acc.user}, nil
}

func (f *fakeGateway) Register(_ context.Context, in gateway.RegisterInput) (*gateway.AuthResult, error) {
	if f.beforeAuth != nil {
		f.beforeAuth()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[in.Email]; exists {
		return nil, &gateway.Error{StatusCode: 409, Message: "User already exists"}
	}
	u := model.User{ID: fmt.Sprintf("u%d", len(f.accounts)+1), Email: in.Email, Name: in.Name, Phone: in.Phone}
	f.accounts[in.Email] = fakeAccount{password: in.Password, user: u}
	return &gateway.AuthResult{Token: "token-" + u.ID, User: u}, nil
}

func (f *fakeGateway) Cart(_ context.Context, userID string) ([]model.CartLine, error) {
	if f.beforeRefresh != nil {
		f.beforeRefresh()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	lines, ok := f.carts[userID]
	if !ok {
		return nil, &gateway.Error{StatusCode: 404, Message: "Cart not found"}
	}
	return model.CloneLines(lines), nil
}

func (f *fakeGateway) SaveCart(_ context.Context, userID string, lines []model.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveCartErr != nil {
		return f.saveCartErr
	}
	f.carts[userID] = model.CloneLines(lines)
	return nil
}

func (f *fakeGateway) Orders(_ context.Context, userID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	out := make([]model.Order, len(f.orders[userID]))
	copy(out, f.orders[userID])
	return out, nil
}

func (f *fakeGateway) Deliveries(context.Context) ([]model.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out, nil
}

func (f *fakeGateway) userByToken() (string, bool) {
	for _, acc := range f.accounts {
		if "token-"+acc.user.ID == f.token {
			return acc.user.ID, true
		}
	}
	return "", false
}

func (f *fakeGateway) CreateOrder(_ context.Context, _ string, p gateway.OrderPayload) (*model.Order, error) {
	if f.orderGate != nil {
		<-f.orderGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	f.lastPayload = p
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	userID, ok := f.userByToken()
	if !ok {
		return nil, &gateway.Error{StatusCode: 401, Message: "Unauthorized"}
	}
	f.nextOrder++
	order := model.Order{
		ID:            fmt.Sprintf("o%d", f.nextOrder),
		Items:         p.Items,
		Total:         p.Total,
		DeliveryFee:   p.DeliveryFee,
		Address:       p.Address,
		DeliveryType:  p.DeliveryType,
		PaymentMethod: p.PaymentMethod,
		Status:        "pending",
	}
	f.orders[userID] = append([]model.Order{order}, f.orders[userID]...)
	f.carts[userID] = []model.CartLine{}
	return &order, nil
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, _ string, p gateway.OrderPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentCalls++
	f.lastPayload = p
	if f.intentErr != nil {
		return "", f.intentErr
	}
	return f.checkoutURL, nil
}

func (f *fakeGateway) LoyaltyStatus(context.Context) (*model.LoyaltyState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loyalty == nil {
		return nil, &gateway.Error{StatusCode: 404, Message: "No loyalty account"}
	}
	l := *f.loyalty
	return &l, nil
}

func (f *fakeGateway) IssueLoyaltyCard(context.Context) (*model.LoyaltyState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loyalty == nil {
		f.loyalty = &model.LoyaltyState{TierName: "Bronze", DiscountPercentage: decimal.Zero}
	}
	f.loyalty.CardIssued = true
	f.loyalty.CardNumber = "AGRO-0001"
	l := *f.loyalty
	return &l, nil
}

func (f *fakeGateway) Rewards(context.Context) ([]model.Reward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Reward, 0, len(f.rewards))
	for _, r := range f.rewards {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeGateway) RedeemReward(_ context.Context, name string) (*gateway.Redeemed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rewards[name]
	if !ok {
		return nil, &gateway.Error{StatusCode: 404, Message: "Reward not found"}
	}
	points := 0
	if f.loyalty != nil {
		if f.loyalty.Points < r.PointsCost {
			return nil, &gateway.Error{StatusCode: 400, Message: "Not enough points"}
		}
		f.loyalty.Points -= r.PointsCost
		points = f.loyalty.Points
	}
	return &gateway.Redeemed{
		Reward: model.AppliedReward{Name: r.Name, DiscountAmount: r.DiscountAmount},
		Points: points,
	}, nil
}

func (f *fakeGateway) Redemptions(context.Context) ([]model.Redemption, error) {
	return []model.Redemption{}, nil
}

var _ Gateway = (*fakeGateway)(nil)
