package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

var deliveryFees = map[model.DeliveryType]decimal.Decimal{
	model.DeliveryPickup:     decimal.Zero,
	model.DeliveryInHouse:    decimal.NewFromInt(50),
	model.DeliveryThirdParty: decimal.NewFromInt(80),
}

// DeliveryFee возвращает стоимость доставки для способа доставки.
func DeliveryFee(t model.DeliveryType) decimal.Decimal {
	return deliveryFees[t]
}
