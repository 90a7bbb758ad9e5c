// Package model содержит доменные сущности клиентского движка магазина.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User описывает закешированный профиль авторизованного покупателя.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Product содержит последние известные клиенту данные о товаре, включая остаток.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"imageRef,omitempty"`
	Stock    int             `json:"stock"`
}

// CartLine описывает одну позицию корзины. В корзине не бывает двух строк с одним ProductID
// и строк с нулевым количеством.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageRef  string          `json:"imageRef,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineTotal возвращает стоимость позиции.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal возвращает сумму всех позиций без скидок и доставки.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CloneLines возвращает независимую копию списка позиций.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// DeliveryType определяет способ доставки заказа.
type DeliveryType string

const (
	DeliveryPickup     DeliveryType = "pickup"
	DeliveryInHouse    DeliveryType = "in-house"
	DeliveryThirdParty DeliveryType = "third-party"
)

// PaymentMethod определяет путь завершения заказа.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// Order описывает заказ, созданный шлюзом. Delivery присоединяется на клиенте и не является
// авторитетными данными.
type Order struct {
	ID            string          `json:"id"`
	Items         []CartLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Address       string          `json:"address"`
	DeliveryType  DeliveryType    `json:"deliveryType"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        string          `json:"status,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Delivery      *Delivery       `json:"delivery,omitempty"`
}

// Delivery описывает запись доставки, привязанную к заказу.
type Delivery struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	RiderName  string    `json:"riderName,omitempty"`
	RiderPhone string    `json:"riderPhone,omitempty"`
	ETA        string    `json:"eta,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LoyaltyState содержит состояние программы лояльности, полученное от шлюза.
type LoyaltyState struct {
	Points             int             `json:"points"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	TierName           string          `json:"tierName"`
	CardIssued         bool            `json:"cardIssued"`
	CardNumber         string          `json:"cardNumber,omitempty"`
}

// AppliedReward описывает единственную применённую вручную награду.
type AppliedReward struct {
	Name           string          `json:"name"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// Reward описывает награду, доступную для обмена на баллы.
type Reward struct {
	Name           string          `json:"name"`
	PointsCost     int             `json:"pointsCost"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// Redemption описывает факт обмена баллов на награду.
type Redemption struct {
	Name           string          `json:"name"`
	PointsSpent    int             `json:"pointsSpent"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	RedeemedAt     time.Time       `json:"redeemedAt"`
}

// ViewMode хранит пользовательскую настройку отображения каталога.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)
