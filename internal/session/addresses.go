package session

import (
	"context"

	"github.com/mmeshcher/agroshop-session/internal/addressbook"
)

// AddAddress сохраняет адрес в книге текущей идентичности и делает его адресом доставки.
func (c *Controller) AddAddress(ctx context.Context, text string) (string, error) {
	return c.book.Add(ctx, c.Identity().Namespace(), text)
}

// RemoveAddress удаляет адрес из книги текущей идентичности.
func (c *Controller) RemoveAddress(ctx context.Context, text string) error {
	return c.book.Remove(ctx, c.Identity().Namespace(), text)
}

// SetDefaultAddress назначает адрес по умолчанию.
func (c *Controller) SetDefaultAddress(ctx context.Context, text string) (string, error) {
	return c.book.SetDefault(ctx, c.Identity().Namespace(), text)
}

// SelectDeliveryAddress задаёт адрес доставки для оформления, не сохраняя его.
func (c *Controller) SelectDeliveryAddress(text string) string {
	return c.book.Select(text)
}

// Addresses возвращает адресную книгу.
func (c *Controller) Addresses() addressbook.View {
	return c.book.View()
}
