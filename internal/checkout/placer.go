// Package checkout реализует конечный автомат оформления заказа: проверку ввода, расчёт
// стоимости доставки и два пути завершения (оплата при получении и внешняя оплата).
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/pricing"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

var (
	// ErrEmptyCart возвращается при попытке оформить пустую корзину.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNegativeFee возвращается для отрицательной стоимости доставки, переданной вызывающим.
	ErrNegativeFee = errors.New("delivery fee must not be negative")
)

// Gateway описывает эндпоинты шлюза, используемые при оформлении.
type Gateway interface {
	CreateOrder(ctx context.Context, requestID string, p gateway.OrderPayload) (*model.Order, error)
	CreatePaymentIntent(ctx context.Context, requestID string, p gateway.OrderPayload) (string, error)
}

// Input данные одной попытки оформления.
type Input struct {
	Lines         []model.CartLine
	Pricing       pricing.Stack
	Address       string
	DeliveryType  model.DeliveryType
	PaymentMethod model.PaymentMethod
	// FeeOverride заменяет тариф доставки, если задан.
	FeeOverride *decimal.Decimal
	// TotalOverride заменяет итоговую сумму, если задан и положителен.
	TotalOverride *decimal.Decimal
}

// Result итог попытки оформления.
type Result struct {
	State       State
	RequestID   string
	Payload     gateway.OrderPayload
	Order       *model.Order
	CheckoutURL string
}

// Placer проводит попытку оформления через состояния и запоминает переходы.
// Одновременные попытки не отсекаются: это делает владелец сессии.
type Placer struct {
	gw     Gateway
	logger *zap.Logger
	newID  func() string

	mu          sync.Mutex
	state       State
	transitions []State
}

// NewPlacer создаёт автомат в состоянии Idle.
func NewPlacer(gw Gateway, logger *zap.Logger) *Placer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Placer{
		gw:     gw,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
		state:  StateIdle,
	}
}

// State возвращает текущее состояние.
func (p *Placer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transitions возвращает переходы последней попытки, начиная с Validating.
func (p *Placer) Transitions() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]State, len(p.transitions))
	copy(out, p.transitions)
	return out
}

// Reset возвращает автомат в Idle.
func (p *Placer) Reset() {
	p.mu.Lock()
	p.state = StateIdle
	p.transitions = nil
	p.mu.Unlock()
}

// Complete переводит ожидающую внешнюю оплату в Completed. В остальных состояниях ничего не делает
// и возвращает false.
func (p *Placer) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePendingExternalPayment {
		return false
	}
	p.state = StateCompleted
	p.transitions = append(p.transitions, StateCompleted)
	return true
}

func (p *Placer) transition(s State) {
	p.mu.Lock()
	p.state = s
	p.transitions = append(p.transitions, s)
	p.mu.Unlock()
}

// Place выполняет одну попытку оформления. Ошибки проверки возвращаются до сетевого вызова.
// Ошибка шлюза возвращается без изменений вместе с результатом в состоянии Failed.
func (p *Placer) Place(ctx context.Context, in Input) (Result, error) {
	p.mu.Lock()
	p.transitions = nil
	p.mu.Unlock()
	p.transition(StateValidating)

	payload, err := BuildPayload(in)
	if err != nil {
		p.transition(StateFailed)
		return Result{State: StateFailed}, err
	}

	res := Result{RequestID: p.newID(), Payload: payload}
	log := p.logger.With(
		zap.String("request_id", res.RequestID),
		zap.String("payment_method", string(payload.PaymentMethod)),
		zap.String("total", payload.Total.StringFixed(2)),
	)

	switch payload.PaymentMethod {
	case model.PaymentCOD:
		p.transition(StateCODSubmitting)
		order, err := p.gw.CreateOrder(ctx, res.RequestID, payload)
		if err != nil {
			log.Warn("order submission failed", zap.Error(err))
			p.transition(StateFailed)
			res.State = StateFailed
			return res, err
		}
		log.Info("order created", zap.String("order_id", order.ID))
		p.transition(StateCompleted)
		res.State = StateCompleted
		res.Order = order
		return res, nil

	default:
		p.transition(StatePaymentRedirecting)
		checkoutURL, err := p.gw.CreatePaymentIntent(ctx, res.RequestID, payload)
		if err != nil {
			log.Warn("payment intent failed", zap.Error(err))
			p.transition(StateFailed)
			res.State = StateFailed
			return res, err
		}
		log.Info("payment intent created")
		p.transition(StatePendingExternalPayment)
		res.State = StatePendingExternalPayment
		res.CheckoutURL = checkoutURL
		return res, nil
	}
}

// BuildPayload проверяет ввод и рассчитывает тело запроса: стоимость доставки и итог.
func BuildPayload(in Input) (gateway.OrderPayload, error) {
	if err := validation.DeliveryType(in.DeliveryType); err != nil {
		return gateway.OrderPayload{}, err
	}
	if err := validation.PaymentMethod(in.PaymentMethod); err != nil {
		return gateway.OrderPayload{}, err
	}
	addr, err := validation.DeliveryAddress(in.DeliveryType, in.Address)
	if err != nil {
		return gateway.OrderPayload{}, err
	}
	if len(in.Lines) == 0 {
		return gateway.OrderPayload{}, ErrEmptyCart
	}

	fee := DeliveryFee(in.DeliveryType)
	if in.FeeOverride != nil {
		if in.FeeOverride.IsNegative() {
			return gateway.OrderPayload{}, fmt.Errorf("%w: %s", ErrNegativeFee, in.FeeOverride)
		}
		fee = *in.FeeOverride
	}

	total := in.Pricing.Total(model.Subtotal(in.Lines)).Add(fee)
	if in.TotalOverride != nil && in.TotalOverride.IsPositive() {
		total = *in.TotalOverride
	}

	return gateway.OrderPayload{
		Items:         model.CloneLines(in.Lines),
		Total:         total.Round(2),
		DeliveryFee:   fee.Round(2),
		Address:       addr,
		DeliveryType:  in.DeliveryType,
		PaymentMethod: in.PaymentMethod,
	}, nil
}
