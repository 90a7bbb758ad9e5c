package cart

import "errors"

var (
	// ErrOutOfStock возвращается при добавлении товара с нулевым остатком.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrStockExceeded возвращается, если после добавления количество превысит остаток.
	ErrStockExceeded = errors.New("not enough stock")
	// ErrInvalidPrice возвращается для товара с отрицательной ценой.
	ErrInvalidPrice = errors.New("product price must not be negative")
)
