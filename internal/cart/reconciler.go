// Package cart владеет корзиной в памяти: проверяет остатки, применяет изменения и сохраняет
// корзину в локальное хранилище (гость) или в шлюз (авторизованный пользователь).
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

// Pusher сохраняет корзину авторизованного пользователя на сервере.
type Pusher interface {
	SaveCart(ctx context.Context, userID string, lines []model.CartLine) error
}

// GuestStore сохраняет гостевую корзину локально.
type GuestStore interface {
	SaveGuestCart(ctx context.Context, lines []model.CartLine) error
}

// Reconciler единственный писатель корзины. Читатели получают копии.
type Reconciler struct {
	remote Pusher
	local  GuestStore
	logger *zap.Logger

	mu      sync.Mutex
	lines   []model.CartLine
	version uint64

	persistMu sync.Mutex
	persisted uint64
}

// NewReconciler создаёт пустую корзину.
func NewReconciler(remote Pusher, local GuestStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		remote: remote,
		local:  local,
		logger: logger,
		lines:  []model.CartLine{},
	}
}

// Add увеличивает количество товара на единицу или добавляет новую позицию.
// Остаток проверяется по последним известным данным товара.
func (r *Reconciler) Add(ctx context.Context, id model.Identity, p model.Product) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, p.Name)
	}

	r.mu.Lock()
	if p.Stock <= 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}

	idx := r.indexOf(p.ID)
	current := 0
	if idx >= 0 {
		current = r.lines[idx].Quantity
	}
	if current+1 > p.Stock {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s (available %d)", ErrStockExceeded, p.Name, p.Stock)
	}

	if idx >= 0 {
		r.lines[idx].Quantity++
	} else {
		r.lines = append(r.lines, model.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageRef:  p.ImageRef,
			Quantity:  1,
		})
	}
	v, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.persist(ctx, id, v, snapshot)
	return nil
}

// SetQuantity заменяет количество позиции. Отрицательные значения приводятся к нулю, ноль удаляет
// позицию. Остаток здесь не проверяется. Неизвестный товар игнорируется.
func (r *Reconciler) SetQuantity(ctx context.Context, id model.Identity, productID string, qty int) {
	if qty < 0 {
		qty = 0
	}

	r.mu.Lock()
	idx := r.indexOf(productID)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	if qty == 0 {
		r.lines = append(r.lines[:idx], r.lines[idx+1:]...)
	} else {
		r.lines[idx].Quantity = qty
	}
	v, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.persist(ctx, id, v, snapshot)
}

// Remove удаляет позицию из корзины.
func (r *Reconciler) Remove(ctx context.Context, id model.Identity, productID string) {
	r.mu.Lock()
	idx := r.indexOf(productID)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.lines = append(r.lines[:idx], r.lines[idx+1:]...)
	v, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.persist(ctx, id, v, snapshot)
}

// Clear очищает корзину и сохраняет пустой список.
func (r *Reconciler) Clear(ctx context.Context, id model.Identity) {
	r.mu.Lock()
	r.lines = []model.CartLine{}
	v, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.persist(ctx, id, v, snapshot)
}

// Replace подменяет корзину целиком без сохранения. Используется для применения свежих данных
// с сервера и при смене пользователя.
func (r *Reconciler) Replace(lines []model.CartLine) {
	normalized := make([]model.CartLine, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := seen[l.ProductID]; ok {
			normalized[i].Quantity += l.Quantity
			continue
		}
		seen[l.ProductID] = len(normalized)
		normalized = append(normalized, l)
	}

	r.mu.Lock()
	r.lines = normalized
	r.version++
	r.mu.Unlock()
}

// Lines возвращает копию позиций корзины.
func (r *Reconciler) Lines() []model.CartLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.CloneLines(r.lines)
}

// Subtotal возвращает сумму корзины без скидок.
func (r *Reconciler) Subtotal() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Subtotal(r.lines)
}

// Count возвращает суммарное количество единиц товара.
func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		n += l.Quantity
	}
	return n
}

func (r *Reconciler) indexOf(productID string) int {
	for i, l := range r.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (r *Reconciler) commitLocked() (uint64, []model.CartLine) {
	r.version++
	return r.version, model.CloneLines(r.lines)
}

// persist отправляет снимок версии v. Снимок, устаревший относительно уже отправленного, пропускается.
func (r *Reconciler) persist(ctx context.Context, id model.Identity, v uint64, lines []model.CartLine) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	if v <= r.persisted {
		r.logger.Debug("skip stale cart snapshot", zap.Uint64("version", v), zap.Uint64("persisted", r.persisted))
		return
	}

	var err error
	if id.IsGuest() {
		if r.local != nil {
			err = r.local.SaveGuestCart(ctx, lines)
		}
	} else if r.remote != nil {
		err = r.remote.SaveCart(ctx, id.UserID(), lines)
	}
	r.persisted = v

	if err != nil {
		r.logger.Warn("cart persist failed",
			zap.String("identity", id.String()),
			zap.Uint64("version", v),
			zap.Error(err),
		)
	}
}
