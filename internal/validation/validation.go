// Package validation содержит проверки пользовательского ввода, выполняемые до любых сетевых вызовов.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

var (
	// ErrAddressRequired возвращается, если адрес пуст, а способ доставки его требует.
	ErrAddressRequired = errors.New("delivery address is required")
	// ErrInvalidReward возвращается для награды без имени или с отрицательной суммой.
	ErrInvalidReward = errors.New("invalid reward")
	// ErrInvalidDeliveryType возвращается для неизвестного способа доставки.
	ErrInvalidDeliveryType = errors.New("invalid delivery type")
	// ErrInvalidPaymentMethod возвращается для неизвестного способа оплаты.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrCredentialsRequired возвращается, если не заполнены обязательные поля входа или регистрации.
	ErrCredentialsRequired = errors.New("credentials are required")
	// ErrInvalidViewMode возвращается для неизвестного режима отображения каталога.
	ErrInvalidViewMode = errors.New("invalid view mode")
)

// NormalizeAddress обрезает пробелы по краям и схлопывает внутренние пробельные последовательности.
func NormalizeAddress(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Address нормализует адрес и возвращает ErrAddressRequired для пустого результата.
func Address(text string) (string, error) {
	addr := NormalizeAddress(text)
	if addr == "" {
		return "", ErrAddressRequired
	}
	return addr, nil
}

// DeliveryType проверяет, что способ доставки известен.
func DeliveryType(t model.DeliveryType) error {
	switch t {
	case model.DeliveryPickup, model.DeliveryInHouse, model.DeliveryThirdParty:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDeliveryType, t)
	}
}

// PaymentMethod проверяет, что способ оплаты известен.
func PaymentMethod(m model.PaymentMethod) error {
	switch m {
	case model.PaymentCOD, model.PaymentOnline:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
	}
}

// DeliveryAddress проверяет адрес с учётом способа доставки. Для самовывоза адрес не обязателен.
func DeliveryAddress(t model.DeliveryType, text string) (string, error) {
	addr := NormalizeAddress(text)
	if addr == "" && t != model.DeliveryPickup {
		return "", ErrAddressRequired
	}
	return addr, nil
}

// Reward проверяет награду перед применением.
func Reward(r model.AppliedReward) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidReward)
	}
	if r.DiscountAmount.IsNegative() {
		return fmt.Errorf("%w: negative discount %s", ErrInvalidReward, r.DiscountAmount)
	}
	return nil
}

// RewardName проверяет имя награды перед обменом баллов.
func RewardName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidReward)
	}
	return nil
}

// Credentials проверяет данные входа.
func Credentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrCredentialsRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrCredentialsRequired)
	}
	return nil
}

// Registration проверяет данные регистрации.
func Registration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrCredentialsRequired)
	}
	return Credentials(email, password)
}

// ViewMode проверяет режим отображения каталога.
func ViewMode(m model.ViewMode) error {
	if m != model.ViewGrid && m != model.ViewList {
		return fmt.Errorf("%w: %q", ErrInvalidViewMode, m)
	}
	return nil
}
