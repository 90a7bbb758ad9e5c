package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

const (
	keyToken     = "session/token"
	keyUser      = "session/user"
	keyGuestCart = "cart/guest"
	keyViewMode  = "prefs/view_mode"
)

func addressesKey(namespace string) string {
	return "addresses/" + namespace
}

func defaultAddressKey(namespace string) string {
	return "addresses/" + namespace + "/default"
}

// LocalState предоставляет типизированный доступ к ключам локального хранилища.
// Отсутствующие ключи читаются как нулевые значения.
type LocalState struct {
	store Store
}

// NewLocalState создаёт обёртку над хранилищем.
func NewLocalState(s Store) *LocalState {
	return &LocalState{store: s}
}

func (l *LocalState) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (l *LocalState) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.store.Put(ctx, key, raw)
}

// Token возвращает сохранённый токен сессии.
func (l *LocalState) Token(ctx context.Context) (string, error) {
	var token string
	_, err := l.getJSON(ctx, keyToken, &token)
	return token, err
}

// SaveToken сохраняет токен сессии.
func (l *LocalState) SaveToken(ctx context.Context, token string) error {
	return l.putJSON(ctx, keyToken, token)
}

// User возвращает закешированный профиль или nil.
func (l *LocalState) User(ctx context.Context) (*model.User, error) {
	var u model.User
	ok, err := l.getJSON(ctx, keyUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SaveUser кеширует профиль пользователя.
func (l *LocalState) SaveUser(ctx context.Context, u model.User) error {
	return l.putJSON(ctx, keyUser, u)
}

// ClearAuth удаляет токен и профиль. Адреса и гостевая корзина сохраняются.
func (l *LocalState) ClearAuth(ctx context.Context) error {
	if err := l.store.Delete(ctx, keyToken); err != nil {
		return err
	}
	return l.store.Delete(ctx, keyUser)
}

// GuestCart возвращает гостевую корзину.
func (l *LocalState) GuestCart(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine
	if _, err := l.getJSON(ctx, keyGuestCart, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SaveGuestCart целиком перезаписывает гостевую корзину.
func (l *LocalState) SaveGuestCart(ctx context.Context, lines []model.CartLine) error {
	return l.putJSON(ctx, keyGuestCart, model.CloneLines(lines))
}

// ClearGuestCart удаляет гостевую корзину.
func (l *LocalState) ClearGuestCart(ctx context.Context) error {
	return l.store.Delete(ctx, keyGuestCart)
}

// Addresses возвращает сохранённые адреса пространства имён.
func (l *LocalState) Addresses(ctx context.Context, namespace string) ([]string, error) {
	var list []string
	if _, err := l.getJSON(ctx, addressesKey(namespace), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveAddresses перезаписывает список адресов пространства имён.
func (l *LocalState) SaveAddresses(ctx context.Context, namespace string, list []string) error {
	if list == nil {
		list = []string{}
	}
	return l.putJSON(ctx, addressesKey(namespace), list)
}

// DefaultAddress возвращает адрес по умолчанию или пустую строку.
func (l *LocalState) DefaultAddress(ctx context.Context, namespace string) (string, error) {
	var addr string
	_, err := l.getJSON(ctx, defaultAddressKey(namespace), &addr)
	return addr, err
}

// SaveDefaultAddress сохраняет адрес по умолчанию. Пустая строка удаляет указатель.
func (l *LocalState) SaveDefaultAddress(ctx context.Context, namespace, addr string) error {
	if addr == "" {
		return l.store.Delete(ctx, defaultAddressKey(namespace))
	}
	return l.putJSON(ctx, defaultAddressKey(namespace), addr)
}

// ViewMode возвращает режим отображения каталога, по умолчанию сетка.
func (l *LocalState) ViewMode(ctx context.Context) (model.ViewMode, error) {
	var mode model.ViewMode
	ok, err := l.getJSON(ctx, keyViewMode, &mode)
	if err != nil || !ok {
		return model.ViewGrid, err
	}
	return mode, nil
}

// SaveViewMode сохраняет режим отображения каталога.
func (l *LocalState) SaveViewMode(ctx context.Context, mode model.ViewMode) error {
	return l.putJSON(ctx, keyViewMode, mode)
}
