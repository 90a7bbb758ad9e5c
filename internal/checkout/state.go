package checkout

import "fmt"

// State состояние оформления заказа.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCODSubmitting
	StatePaymentRedirecting
	StateCompleted
	StatePendingExternalPayment
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCODSubmitting:
		return "cod_submitting"
	case StatePaymentRedirecting:
		return "payment_redirecting"
	case StateCompleted:
		return "completed"
	case StatePendingExternalPayment:
		return "pending_external_payment"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight сообщает, ожидает ли оформление ответа шлюза.
func (s State) InFlight() bool {
	return s == StateValidating || s == StateCODSubmitting || s == StatePaymentRedirecting
}

// MarshalText кодирует состояние строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает строковое представление состояния.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateIdle; st <= StateFailed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown checkout state %q", text)
}
