// Package store реализует локальное постоянное хранилище устройства.
//
// Хранилище работает как key-value с семантикой «последняя запись побеждает»: каждая логическая
// сущность (корзина, список адресов, адрес по умолчанию) записывается одним атомарным значением.
package store

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, если ключ отсутствует в хранилище.
var ErrNotFound = errors.New("key not found")

// Store описывает контракт key-value хранилища, используемый движком.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
