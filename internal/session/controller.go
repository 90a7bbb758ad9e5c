// Package session владеет всем состоянием клиентской сессии магазина: идентичностью, корзиной,
// адресами, скидками, заказами и оформлением. Результаты сетевых вызовов применяются только
// если за время вызова сессия не сменилась.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/addressbook"
	"github.com/mmeshcher/agroshop-session/internal/cart"
	"github.com/mmeshcher/agroshop-session/internal/checkout"
	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/pricing"
	"github.com/mmeshcher/agroshop-session/internal/refresh"
	"github.com/mmeshcher/agroshop-session/internal/store"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

// Gateway описывает все эндпоинты шлюза, которыми пользуется сессия.
type Gateway interface {
	SetToken(token string)
	Login(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	Register(ctx context.Context, in gateway.RegisterInput) (*gateway.AuthResult, error)

	Cart(ctx context.Context, userID string) ([]model.CartLine, error)
	SaveCart(ctx context.Context, userID string, lines []model.CartLine) error
	Orders(ctx context.Context, userID string) ([]model.Order, error)
	Deliveries(ctx context.Context) ([]model.Delivery, error)

	CreateOrder(ctx context.Context, requestID string, p gateway.OrderPayload) (*model.Order, error)
	CreatePaymentIntent(ctx context.Context, requestID string, p gateway.OrderPayload) (string, error)

	LoyaltyStatus(ctx context.Context) (*model.LoyaltyState, error)
	IssueLoyaltyCard(ctx context.Context) (*model.LoyaltyState, error)
	Rewards(ctx context.Context) ([]model.Reward, error)
	RedeemReward(ctx context.Context, name string) (*gateway.Redeemed, error)
	Redemptions(ctx context.Context) ([]model.Redemption, error)
}

// Controller единственный владелец состояния сессии.
type Controller struct {
	gw     Gateway
	local  *store.LocalState
	rooms  RoomTransport
	logger *zap.Logger
	now    func() time.Time

	cart      *cart.Reconciler
	merger    *cart.Merger
	book      *addressbook.Book
	placer    *checkout.Placer
	refresher *refresh.Orchestrator

	mu         sync.Mutex
	generation uint64
	identity   model.Identity
	user       *model.User
	pricing    pricing.Stack
	loyalty    *model.LoyaltyState
	orders     []model.Order
	pending    *PendingPayment
	placing    bool
	loading    int
	events     []Event
	viewMode   model.ViewMode
}

// NewController создаёт контроллер гостевой сессии. Перед использованием нужно вызвать Start.
// Если rooms равен nil, используется транспорт без подписок.
func NewController(gw Gateway, local *store.LocalState, rooms RoomTransport, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rooms == nil {
		rooms = nopTransport{}
	}

	return &Controller{
		gw:        gw,
		local:     local,
		rooms:     rooms,
		logger:    logger,
		now:       time.Now,
		cart:      cart.NewReconciler(gw, local, logger.Named("cart")),
		merger:    cart.NewMerger(gw, local, logger.Named("merge")),
		book:      addressbook.New(local, logger.Named("addresses")),
		placer:    checkout.NewPlacer(gw, logger.Named("checkout")),
		refresher: refresh.New(gw, logger.Named("refresh")),
		identity:  model.Guest(),
		orders:    []model.Order{},
		viewMode:  model.ViewGrid,
	}
}

// Start восстанавливает сессию из локального хранилища: токен и профиль, гостевую корзину,
// адресную книгу и настройку отображения. Для авторизованной сессии выполняется обновление данных.
func (c *Controller) Start(ctx context.Context) error {
	token, err := c.local.Token(ctx)
	if err != nil {
		return err
	}
	user, err := c.local.User(ctx)
	if err != nil {
		return err
	}
	mode, err := c.local.ViewMode(ctx)
	if err != nil {
		return err
	}

	id := model.Guest()
	if token != "" && user != nil && user.ID != "" {
		id = model.Authenticated(user.ID)
		c.gw.SetToken(token)
	} else {
		user = nil
	}

	if id.IsGuest() {
		lines, err := c.local.GuestCart(ctx)
		if err != nil {
			return err
		}
		c.cart.Replace(lines)
	}
	if err := c.book.Load(ctx, id.Namespace()); err != nil {
		return err
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.identity = id
	c.user = user
	c.viewMode = mode
	c.mu.Unlock()

	c.logger.Info("session started", zap.String("identity", id.String()))

	if !id.IsGuest() {
		c.joinRoom(ctx, id)
		c.refreshFor(ctx, gen, id)
	}
	return nil
}

// Identity возвращает текущую идентичность.
func (c *Controller) Identity() model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Snapshot состояние сессии для отображения.
type Snapshot struct {
	Authenticated bool                 `json:"authenticated"`
	User          *model.User          `json:"user,omitempty"`
	Cart          CartView             `json:"cart"`
	Addresses     addressbook.View     `json:"addresses"`
	Loyalty       *model.LoyaltyState  `json:"loyalty,omitempty"`
	Reward        *model.AppliedReward `json:"reward,omitempty"`
	OrderCount    int                  `json:"orderCount"`
	Checkout      checkout.State       `json:"checkout"`
	Pending       *PendingPayment      `json:"pendingPayment,omitempty"`
	Loading       bool                 `json:"loading"`
	ViewMode      model.ViewMode       `json:"viewMode"`
}

// Snapshot возвращает копию текущего состояния.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		Authenticated: !c.identity.IsGuest(),
		OrderCount:    len(c.orders),
		Loading:       c.loading > 0,
		ViewMode:      c.viewMode,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if c.loyalty != nil {
		l := *c.loyalty
		s.Loyalty = &l
	}
	if c.pricing.Reward != nil {
		r := *c.pricing.Reward
		s.Reward = &r
	}
	if c.pending != nil {
		p := *c.pending
		s.Pending = &p
	}
	stack := c.pricing
	c.mu.Unlock()

	s.Cart = c.cartView(stack)
	s.Addresses = c.book.View()
	s.Checkout = c.placer.State()
	return s
}

// Orders возвращает историю заказов, новые первыми.
func (c *Controller) Orders() []model.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// Refresh обновляет корзину, заказы и лояльность авторизованного пользователя.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id, gen := c.identity, c.generation
	c.mu.Unlock()

	if id.IsGuest() {
		return ErrNotAuthenticated
	}
	c.refreshFor(ctx, gen, id)
	return nil
}

// refreshFor загружает данные и применяет их, только если поколение сессии не изменилось.
func (c *Controller) refreshFor(ctx context.Context, gen uint64, id model.Identity) {
	c.beginLoading()
	defer c.endLoading()

	res := c.refresher.Refresh(ctx, id.UserID())

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("dropping stale refresh",
			zap.String("identity", id.String()),
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.generation),
		)
		return
	}

	c.orders = res.Orders
	if res.Loyalty != nil {
		c.applyLoyaltyLocked(res.Loyalty)
	}
	c.cart.Replace(res.Cart)
}

func (c *Controller) applyLoyaltyLocked(st *model.LoyaltyState) {
	l := *st
	c.loyalty = &l
	c.pricing.SetLoyaltyPercentage(l.DiscountPercentage)
}

// SetViewMode сохраняет режим отображения каталога.
func (c *Controller) SetViewMode(ctx context.Context, mode model.ViewMode) error {
	if err := validation.ViewMode(mode); err != nil {
		return err
	}
	if err := c.local.SaveViewMode(ctx, mode); err != nil {
		return err
	}

	c.mu.Lock()
	c.viewMode = mode
	c.mu.Unlock()
	return nil
}

// ViewMode возвращает режим отображения каталога.
func (c *Controller) ViewMode() model.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMode
}

func (c *Controller) beginLoading() {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
}

func (c *Controller) endLoading() {
	c.mu.Lock()
	c.loading--
	c.mu.Unlock()
}

func (c *Controller) joinRoom(ctx context.Context, id model.Identity) {
	if err := c.rooms.Join(ctx, id.Namespace()); err != nil {
		c.logger.Warn("join room failed", zap.String("room", id.Namespace()), zap.Error(err))
	}
}

func (c *Controller) leaveRoom(ctx context.Context, id model.Identity) {
	if err := c.rooms.Leave(ctx, id.Namespace()); err != nil {
		c.logger.Warn("leave room failed", zap.String("room", id.Namespace()), zap.Error(err))
	}
}

func (c *Controller) requireAuth() (model.Identity, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsGuest() {
		return c.identity, c.generation, ErrNotAuthenticated
	}
	return c.identity, c.generation, nil
}
