package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

// Loyalty возвращает последнее известное состояние лояльности или nil.
func (c *Controller) Loyalty() *model.LoyaltyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loyalty == nil {
		return nil
	}
	l := *c.loyalty
	return &l
}

// RefreshLoyalty перечитывает состояние лояльности.
func (c *Controller) RefreshLoyalty(ctx context.Context) (*model.LoyaltyState, error) {
	_, gen, err := c.requireAuth()
	if err != nil {
		return nil, err
	}

	st, err := c.gw.LoyaltyStatus(ctx)
	if err != nil {
		return nil, err
	}
	return c.applyLoyalty(gen, st)
}

// IssueLoyaltyCard выпускает карту лояльности.
func (c *Controller) IssueLoyaltyCard(ctx context.Context) (*model.LoyaltyState, error) {
	_, gen, err := c.requireAuth()
	if err != nil {
		return nil, err
	}

	st, err := c.gw.IssueLoyaltyCard(ctx)
	if err != nil {
		return nil, err
	}
	return c.applyLoyalty(gen, st)
}

func (c *Controller) applyLoyalty(gen uint64, st *model.LoyaltyState) (*model.LoyaltyState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("dropping stale loyalty state")
		return nil, ErrSessionChanged
	}
	c.applyLoyaltyLocked(st)
	l := *c.loyalty
	return &l, nil
}

// Rewards возвращает награды, доступные для обмена.
func (c *Controller) Rewards(ctx context.Context) ([]model.Reward, error) {
	if _, _, err := c.requireAuth(); err != nil {
		return nil, err
	}
	return c.gw.Rewards(ctx)
}

// Redemptions возвращает историю обменов.
func (c *Controller) Redemptions(ctx context.Context) ([]model.Redemption, error) {
	if _, _, err := c.requireAuth(); err != nil {
		return nil, err
	}
	return c.gw.Redemptions(ctx)
}

// RedeemReward обменивает баллы на награду и применяет её к корзине вместо предыдущей.
func (c *Controller) RedeemReward(ctx context.Context, name string) (*model.AppliedReward, error) {
	if err := validation.RewardName(name); err != nil {
		return nil, err
	}
	_, gen, err := c.requireAuth()
	if err != nil {
		return nil, err
	}

	res, err := c.gw.RedeemReward(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := validation.Reward(res.Reward); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("dropping stale redemption", zap.String("reward", name))
		return nil, ErrSessionChanged
	}
	c.pricing.Apply(res.Reward)
	if c.loyalty != nil {
		c.loyalty.Points = res.Points
	}
	r := res.Reward
	return &r, nil
}

// ApplyReward применяет уже полученную награду, заменяя предыдущую.
func (c *Controller) ApplyReward(r model.AppliedReward) error {
	if err := validation.Reward(r); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsGuest() {
		return ErrNotAuthenticated
	}
	c.pricing.Apply(r)
	return nil
}

// ClearReward снимает применённую награду.
func (c *Controller) ClearReward() {
	c.mu.Lock()
	c.pricing.Clear()
	c.mu.Unlock()
}
