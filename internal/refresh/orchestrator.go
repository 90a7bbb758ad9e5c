// Package refresh параллельно загружает данные авторизованного пользователя: корзину, историю
// заказов, доставки и состояние лояльности. Ошибки отдельных запросов не прерывают обновление.
package refresh

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

// Gateway описывает эндпоинты шлюза, опрашиваемые при обновлении.
type Gateway interface {
	Cart(ctx context.Context, userID string) ([]model.CartLine, error)
	Orders(ctx context.Context, userID string) ([]model.Order, error)
	Deliveries(ctx context.Context) ([]model.Delivery, error)
	LoyaltyStatus(ctx context.Context) (*model.LoyaltyState, error)
}

// Result объединённый результат обновления. Loyalty равен nil, если статус получить не удалось.
type Result struct {
	Cart    []model.CartLine
	Orders  []model.Order
	Loyalty *model.LoyaltyState
}

// Orchestrator выполняет обновление.
type Orchestrator struct {
	gw     Gateway
	logger *zap.Logger
}

// New создаёт Orchestrator.
func New(gw Gateway, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{gw: gw, logger: logger}
}

// Refresh загружает данные пользователя. Упавший запрос корзины или заказов даёт пустой список,
// упавший запрос доставок оставляет заказы без обогащения.
func (o *Orchestrator) Refresh(ctx context.Context, userID string) Result {
	log := o.logger.With(zap.String("user_id", userID))

	var (
		g          errgroup.Group
		cart       []model.CartLine
		orders     []model.Order
		deliveries []model.Delivery
		loyalty    *model.LoyaltyState
		deliveryOK bool
	)

	g.Go(func() error {
		lines, err := o.gw.Cart(ctx, userID)
		if err != nil {
			log.Warn("refresh: cart fetch failed", zap.Error(err))
			return nil
		}
		cart = lines
		return nil
	})
	g.Go(func() error {
		list, err := o.gw.Orders(ctx, userID)
		if err != nil {
			log.Warn("refresh: orders fetch failed", zap.Error(err))
			return nil
		}
		orders = list
		return nil
	})
	g.Go(func() error {
		list, err := o.gw.Deliveries(ctx)
		if err != nil {
			log.Warn("refresh: deliveries fetch failed", zap.Error(err))
			return nil
		}
		deliveries = list
		deliveryOK = true
		return nil
	})
	g.Go(func() error {
		st, err := o.gw.LoyaltyStatus(ctx)
		if err != nil {
			log.Warn("refresh: loyalty fetch failed", zap.Error(err))
			return nil
		}
		loyalty = st
		return nil
	})
	_ = g.Wait()

	if cart == nil {
		cart = []model.CartLine{}
	}
	if orders == nil {
		orders = []model.Order{}
	}
	if deliveryOK {
		orders = AttachDeliveries(orders, deliveries)
	}

	log.Debug("refresh done",
		zap.Int("cart_lines", len(cart)),
		zap.Int("orders", len(orders)),
		zap.Bool("deliveries", deliveryOK),
		zap.Bool("loyalty", loyalty != nil),
	)
	return Result{Cart: cart, Orders: orders, Loyalty: loyalty}
}

// AttachDeliveries присоединяет к заказам записи доставки по идентификатору заказа.
// Заказы без доставки не изменяются.
func AttachDeliveries(orders []model.Order, deliveries []model.Delivery) []model.Order {
	byOrder := make(map[string]model.Delivery, len(deliveries))
	for _, d := range deliveries {
		if d.OrderID == "" {
			continue
		}
		byOrder[d.OrderID] = d
	}

	out := make([]model.Order, len(orders))
	for i, ord := range orders {
		if d, ok := byOrder[ord.ID]; ok {
			ord.Delivery = &d
		}
		out[i] = ord
	}
	return out
}
