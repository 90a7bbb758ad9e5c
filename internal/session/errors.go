package session

import "errors"

var (
	// ErrNotAuthenticated возвращается для операций, доступных только после входа.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPlacementInFlight возвращается при повторном оформлении, пока предыдущее не завершено.
	ErrPlacementInFlight = errors.New("order placement already in progress")
	// ErrNoPendingPayment возвращается, если нет ожидающей внешней оплаты.
	ErrNoPendingPayment = errors.New("no pending external payment")
	// ErrSessionChanged возвращается, если за время сетевого вызова сессия сменилась.
	ErrSessionChanged = errors.New("session changed during request")
)
