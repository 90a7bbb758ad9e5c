package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

// AuthResult содержит токен сессии и профиль после входа или регистрации.
type AuthResult struct {
	Token string
	User  model.User
}

// RegisterInput описывает данные регистрации.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// OrderPayload описывает тело запроса на создание заказа или платёжного намерения.
type OrderPayload struct {
	Items         []model.CartLine    `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	DeliveryFee   decimal.Decimal     `json:"deliveryFee"`
	Address       string              `json:"address"`
	DeliveryType  model.DeliveryType  `json:"deliveryType"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
}

// Redeemed описывает результат обмена баллов: полученную награду и остаток баллов.
type Redeemed struct {
	Reward model.AppliedReward
	Points int
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (r authResponse) result(path string) (*AuthResult, error) {
	if r.Token == "" {
		return nil, envelopeError(path, "token")
	}
	if r.User == nil || r.User.ID == "" {
		return nil, envelopeError(path, "user")
	}
	return &AuthResult{Token: r.Token, User: *r.User}, nil
}

type cartResponse struct {
	Items *[]model.CartLine `json:"items"`
}

type saveCartRequest struct {
	UserID string           `json:"userId"`
	Items  []model.CartLine `json:"items"`
}

type createOrderResponse struct {
	Order *model.Order `json:"order"`
}

type paymentIntentResponse struct {
	Payment *struct {
		CheckoutURL string `json:"checkoutUrl"`
	} `json:"payment"`
}

type deliveriesResponse struct {
	Deliveries *[]deliveryRecord `json:"deliveries"`
}

type deliveryRecord struct {
	ID         string    `json:"id"`
	Order      orderRef  `json:"order"`
	Status     string    `json:"status"`
	RiderName  string    `json:"riderName"`
	RiderPhone string    `json:"riderPhone"`
	ETA        string    `json:"eta"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (d deliveryRecord) toModel() model.Delivery {
	return model.Delivery{
		ID:         d.ID,
		OrderID:    string(d.Order),
		Status:     d.Status,
		RiderName:  d.RiderName,
		RiderPhone: d.RiderPhone,
		ETA:        d.ETA,
		UpdatedAt:  d.UpdatedAt,
	}
}

// orderRef принимает ссылку на заказ в виде идентификатора или вложенного объекта с полем id.
type orderRef string

func (r *orderRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = orderRef(id)
		return nil
	}

	var populated struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &populated); err != nil {
		return fmt.Errorf("order reference: %w", err)
	}
	if populated.ID == "" {
		return fmt.Errorf("order reference without id")
	}
	*r = orderRef(populated.ID)
	return nil
}

type loyaltyResponse struct {
	Loyalty *model.LoyaltyState `json:"loyalty"`
}

type rewardsResponse struct {
	Rewards *[]model.Reward `json:"rewards"`
}

type redeemResponse struct {
	Reward *model.AppliedReward `json:"reward"`
	Points int                  `json:"points"`
}

type redemptionsResponse struct {
	Redemptions *[]model.Redemption `json:"redemptions"`
}
