package session

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/checkout"
	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/pricing"
)

// CheckoutInput параметры оформления. Пустой Address заменяется текущим адресом доставки.
type CheckoutInput struct {
	DeliveryType  model.DeliveryType  `json:"deliveryType"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	Address       string              `json:"address,omitempty"`
	FeeOverride   *decimal.Decimal    `json:"deliveryFee,omitempty"`
	TotalOverride *decimal.Decimal    `json:"total,omitempty"`
}

// PendingPayment ожидающая внешняя оплата. Корзина и скидки не очищаются до подтверждения.
type PendingPayment struct {
	RequestID   string               `json:"requestId"`
	CheckoutURL string               `json:"checkoutUrl"`
	Payload     gateway.OrderPayload `json:"payload"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// Placement результат оформления.
type Placement struct {
	State       checkout.State `json:"state"`
	Order       *model.Order   `json:"order,omitempty"`
	CheckoutURL string         `json:"checkoutUrl,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
}

// PlaceOrder оформляет заказ из текущей корзины. При оплате при получении заказ сразу завершается:
// он добавляется в историю, корзина, адрес доставки и скидки очищаются, данные обновляются.
// При внешней оплате сессия переходит в ожидание без изменения корзины. При ошибке состояние
// не меняется.
func (c *Controller) PlaceOrder(ctx context.Context, in CheckoutInput) (Placement, error) {
	c.mu.Lock()
	if c.identity.IsGuest() {
		c.mu.Unlock()
		return Placement{}, ErrNotAuthenticated
	}
	if c.placing {
		c.mu.Unlock()
		return Placement{}, ErrPlacementInFlight
	}
	c.placing = true
	c.loading++
	id, gen, stack := c.identity, c.generation, c.pricing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.placing = false
		c.loading--
		c.mu.Unlock()
	}()

	addr := in.Address
	if addr == "" {
		addr = c.book.Current()
	}

	res, err := c.placer.Place(ctx, checkout.Input{
		Lines:         c.cart.Lines(),
		Pricing:       stack,
		Address:       addr,
		DeliveryType:  in.DeliveryType,
		PaymentMethod: in.PaymentMethod,
		FeeOverride:   in.FeeOverride,
		TotalOverride: in.TotalOverride,
	})
	placement := Placement{State: res.State, RequestID: res.RequestID}
	if err != nil {
		c.mu.Lock()
		if gen == c.generation {
			c.emitLocked(Event{Kind: EventOrderFailed, Message: err.Error()})
		}
		c.mu.Unlock()
		return placement, err
	}

	switch res.State {
	case checkout.StateCompleted:
		placement.Order = res.Order
		if !c.complete(ctx, gen, id, res.Order) {
			c.logger.Warn("order created after session change, local cleanup skipped",
				zap.String("identity", id.String()),
				zap.String("order_id", res.Order.ID),
			)
		}
	case checkout.StatePendingExternalPayment:
		placement.CheckoutURL = res.CheckoutURL
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return placement, ErrSessionChanged
		}
		c.pending = &PendingPayment{
			RequestID:   res.RequestID,
			CheckoutURL: res.CheckoutURL,
			Payload:     res.Payload,
			CreatedAt:   c.now(),
		}
		c.emitLocked(Event{Kind: EventPaymentPending})
		c.mu.Unlock()
	}
	return placement, nil
}

// ConfirmExternalPayment подтверждает завершение внешней оплаты и применяет те же очистки,
// что и завершённый заказ с оплатой при получении.
func (c *Controller) ConfirmExternalPayment(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPendingPayment
	}
	c.pending = nil
	id, gen := c.identity, c.generation
	c.mu.Unlock()

	c.placer.Complete()
	if !c.complete(ctx, gen, id, nil) {
		return nil
	}

	c.mu.Lock()
	if gen == c.generation {
		c.emitLocked(Event{Kind: EventPaymentConfirmed})
	}
	c.mu.Unlock()
	return nil
}

// CancelExternalPayment отменяет ожидание внешней оплаты. Корзина, скидки и адрес не меняются.
func (c *Controller) CancelExternalPayment() error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPendingPayment
	}
	c.pending = nil
	c.emitLocked(Event{Kind: EventPaymentCancelled})
	c.mu.Unlock()

	c.placer.Reset()
	return nil
}

// complete применяет последствия подтверждённого заказа. order может быть nil, если заказ
// создан вне движка: тогда он появится в истории после обновления. Возвращает false, если
// сессия сменилась и очистка не выполнялась.
func (c *Controller) complete(ctx context.Context, gen uint64, id model.Identity, order *model.Order) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Info("dropping stale order completion", zap.String("identity", id.String()))
		return false
	}
	if order != nil {
		c.orders = append([]model.Order{*order}, c.orders...)
		c.emitLocked(Event{Kind: EventOrderPlaced, OrderID: order.ID})
	}
	c.pricing = pricing.Stack{}
	c.mu.Unlock()

	c.cart.Clear(ctx, id)
	c.book.ClearCurrent()
	c.refreshFor(ctx, gen, id)
	return true
}
