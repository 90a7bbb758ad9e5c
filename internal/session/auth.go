package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/model"
	"github.com/mmeshcher/agroshop-session/internal/pricing"
	"github.com/mmeshcher/agroshop-session/internal/validation"
)

// Login выполняет вход, переносит гостевую корзину в аккаунт и обновляет данные пользователя.
func (c *Controller) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := validation.Credentials(email, password); err != nil {
		return nil, err
	}

	gen := c.currentGeneration()
	c.beginLoading()
	res, err := c.gw.Login(ctx, email, password)
	c.endLoading()
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, gen, res)
}

// Register регистрирует пользователя и входит под ним так же, как Login.
func (c *Controller) Register(ctx context.Context, in gateway.RegisterInput) (*model.User, error) {
	if err := validation.Registration(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}

	gen := c.currentGeneration()
	c.beginLoading()
	res, err := c.gw.Register(ctx, in)
	c.endLoading()
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, gen, res)
}

// authenticate переключает сессию на пользователя. Слияние корзин завершается до обновления.
func (c *Controller) authenticate(ctx context.Context, startGen uint64, res *gateway.AuthResult) (*model.User, error) {
	user := res.User
	id := model.Authenticated(user.ID)

	c.mu.Lock()
	if startGen != c.generation {
		c.mu.Unlock()
		c.logger.Info("dropping stale authentication", zap.String("user_id", user.ID))
		return nil, ErrSessionChanged
	}
	prev := c.identity
	c.generation++
	gen := c.generation
	c.identity = id
	c.user = &user
	c.orders = []model.Order{}
	c.loyalty = nil
	c.pricing = pricing.Stack{}
	c.pending = nil
	c.cart.Replace(nil)
	c.mu.Unlock()

	c.placer.Reset()
	c.gw.SetToken(res.Token)
	if err := c.local.SaveToken(ctx, res.Token); err != nil {
		c.logger.Warn("persist session token failed", zap.Error(err))
	}
	if err := c.local.SaveUser(ctx, user); err != nil {
		c.logger.Warn("persist user profile failed", zap.Error(err))
	}
	if err := c.book.Load(ctx, id.Namespace()); err != nil {
		c.logger.Warn("load address book failed", zap.String("namespace", id.Namespace()), zap.Error(err))
	}
	if !prev.IsGuest() {
		c.leaveRoom(ctx, prev)
	}
	c.joinRoom(ctx, id)

	c.beginLoading()
	merged := c.merger.Merge(ctx, user.ID)
	c.endLoading()

	c.refreshFor(ctx, gen, id)

	c.mu.Lock()
	if gen == c.generation {
		c.emitLocked(Event{Kind: EventLoggedIn, Message: user.Name})
		if merged {
			c.emitLocked(Event{Kind: EventMergedFromGuest})
		}
	}
	c.mu.Unlock()

	c.logger.Info("logged in", zap.String("user_id", user.ID), zap.Bool("merged", merged))
	return &user, nil
}

// Logout завершает сессию пользователя. Заказы, лояльность и скидки в памяти очищаются,
// корзина заменяется гостевой корзиной из хранилища (она непуста, если слияние при входе не удалось).
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	prev := c.identity
	c.generation++
	gen := c.generation
	c.identity = model.Guest()
	c.user = nil
	c.orders = []model.Order{}
	c.loyalty = nil
	c.pricing = pricing.Stack{}
	c.pending = nil
	c.cart.Replace(nil)
	c.emitLocked(Event{Kind: EventLoggedOut})
	c.mu.Unlock()

	c.placer.Reset()
	c.gw.SetToken("")
	if err := c.local.ClearAuth(ctx); err != nil {
		return err
	}
	if err := c.book.Load(ctx, model.Guest().Namespace()); err != nil {
		return err
	}
	lines, err := c.local.GuestCart(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if gen == c.generation {
		c.cart.Replace(lines)
	}
	c.mu.Unlock()
	if !prev.IsGuest() {
		c.leaveRoom(ctx, prev)
	}

	c.logger.Info("logged out", zap.String("identity", prev.String()))
	return nil
}

func (c *Controller) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
