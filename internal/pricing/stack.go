// Package pricing вычисляет итоговую сумму корзины с учётом скидки по уровню лояльности
// и применённой награды.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Breakdown содержит разложение суммы для отображения.
type Breakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	LoyaltyDiscount decimal.Decimal `json:"loyaltyDiscount"`
	RewardDiscount  decimal.Decimal `json:"rewardDiscount"`
	Total           decimal.Decimal `json:"total"`
}

// Stack хранит процент скидки лояльности и не более одной применённой награды.
// Скидки применяются в фиксированном порядке: сначала процент, затем фиксированная сумма награды.
type Stack struct {
	LoyaltyPercentage decimal.Decimal
	Reward            *model.AppliedReward
}

// SetLoyaltyPercentage задаёт процент скидки, ограничивая его диапазоном [0, 100].
func (s *Stack) SetLoyaltyPercentage(pct decimal.Decimal) {
	s.LoyaltyPercentage = clampPercentage(pct)
}

// Apply заменяет ранее применённую награду.
func (s *Stack) Apply(r model.AppliedReward) {
	s.Reward = &r
}

// Clear снимает применённую награду.
func (s *Stack) Clear() {
	s.Reward = nil
}

// Total возвращает итоговую сумму к оплате без учёта доставки.
func (s Stack) Total(subtotal decimal.Decimal) decimal.Decimal {
	return s.Breakdown(subtotal).Total
}

// Breakdown рассчитывает скидки для указанной суммы.
func (s Stack) Breakdown(subtotal decimal.Decimal) Breakdown {
	pct := clampPercentage(s.LoyaltyPercentage)
	afterLoyalty := subtotal.Mul(hundred.Sub(pct)).Div(hundred)
	loyaltyDiscount := subtotal.Sub(afterLoyalty)

	rewardDiscount := decimal.Zero
	if s.Reward != nil && s.Reward.DiscountAmount.IsPositive() {
		rewardDiscount = decimal.Min(s.Reward.DiscountAmount, afterLoyalty)
	}
	final := afterLoyalty.Sub(rewardDiscount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return Breakdown{
		Subtotal:        subtotal.Round(2),
		LoyaltyDiscount: loyaltyDiscount.Round(2),
		RewardDiscount:  rewardDiscount.Round(2),
		Total:           final.Round(2),
	}
}

func clampPercentage(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
