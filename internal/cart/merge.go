package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
)

const (
	minMergedQuantity = 1
	maxMergedQuantity = 99
)

// RemoteCart описывает операции шлюза, необходимые для слияния.
type RemoteCart interface {
	Cart(ctx context.Context, userID string) ([]model.CartLine, error)
	SaveCart(ctx context.Context, userID string, lines []model.CartLine) error
}

// GuestCartStore описывает доступ к гостевой корзине.
type GuestCartStore interface {
	GuestCart(ctx context.Context) ([]model.CartLine, error)
	ClearGuestCart(ctx context.Context) error
}

// MergeLines складывает серверную и гостевую корзины по ProductID. Серверные позиции
// учитываются первыми, поэтому порядок и метаданные берутся из серверной копии. Количество
// ограничивается диапазоном [1, 99].
func MergeLines(server, guest []model.CartLine) []model.CartLine {
	merged := make([]model.CartLine, 0, len(server)+len(guest))
	index := make(map[string]int, len(server)+len(guest))

	fold := func(lines []model.CartLine) {
		for _, l := range lines {
			if i, ok := index[l.ProductID]; ok {
				merged[i].Quantity += l.Quantity
				continue
			}
			index[l.ProductID] = len(merged)
			merged = append(merged, l)
		}
	}
	fold(server)
	fold(guest)

	for i := range merged {
		merged[i].Quantity = clampQuantity(merged[i].Quantity)
	}
	return merged
}

func clampQuantity(q int) int {
	if q < minMergedQuantity {
		return minMergedQuantity
	}
	if q > maxMergedQuantity {
		return maxMergedQuantity
	}
	return q
}

// Merger переносит гостевую корзину в аккаунт после входа.
type Merger struct {
	remote RemoteCart
	guest  GuestCartStore
	logger *zap.Logger
}

// NewMerger создаёт Merger.
func NewMerger(remote RemoteCart, guest GuestCartStore, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{remote: remote, guest: guest, logger: logger}
}

// Merge объединяет гостевую корзину с серверной корзиной пользователя и очищает гостевую.
// Ошибки не возвращаются: при любой ошибке слияние прерывается, а результат равен false.
func (m *Merger) Merge(ctx context.Context, userID string) bool {
	log := m.logger.With(zap.String("user_id", userID))

	guest, err := m.guest.GuestCart(ctx)
	if err != nil {
		log.Warn("merge aborted: read guest cart", zap.Error(err))
		return false
	}
	if len(guest) == 0 {
		return false
	}

	server, err := m.remote.Cart(ctx, userID)
	if err != nil {
		if !errors.Is(err, gateway.ErrNotFound) {
			log.Warn("merge aborted: fetch server cart", zap.Error(err))
			return false
		}
		server = nil
	}

	merged := MergeLines(server, guest)
	if err := m.remote.SaveCart(ctx, userID, merged); err != nil {
		log.Warn("merge aborted: save merged cart", zap.Error(err))
		return false
	}

	if err := m.guest.ClearGuestCart(ctx); err != nil {
		log.Warn("merge: clear guest cart", zap.Error(err))
		return false
	}

	log.Info("guest cart merged", zap.Int("guest_lines", len(guest)), zap.Int("merged_lines", len(merged)))
	return true
}
