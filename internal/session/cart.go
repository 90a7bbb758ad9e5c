package session

import (
	"context"

	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/pricing"
)

// CartView содержимое корзины с разложением суммы.
type CartView struct {
	Lines     []model.CartLine  `json:"lines"`
	Count     int               `json:"count"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// AddToCart добавляет единицу товара, проверяя остаток по переданным данным товара.
func (c *Controller) AddToCart(ctx context.Context, p model.Product) error {
	return c.cart.Add(ctx, c.Identity(), p)
}

// SetQuantity задаёт количество позиции. Ноль удаляет позицию.
func (c *Controller) SetQuantity(ctx context.Context, productID string, qty int) {
	c.cart.SetQuantity(ctx, c.Identity(), productID, qty)
}

// RemoveFromCart удаляет позицию.
func (c *Controller) RemoveFromCart(ctx context.Context, productID string) {
	c.cart.Remove(ctx, c.Identity(), productID)
}

// Cart возвращает корзину и итоговую сумму с учётом скидок.
func (c *Controller) Cart() CartView {
	c.mu.Lock()
	stack := c.pricing
	c.mu.Unlock()
	return c.cartView(stack)
}

func (c *Controller) cartView(stack pricing.Stack) CartView {
	lines := c.cart.Lines()
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return CartView{
		Lines:     lines,
		Count:     count,
		Breakdown: stack.Breakdown(model.Subtotal(lines)),
	}
}
