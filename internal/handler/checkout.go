package handler

import (
	"net/http"

	"github.com/mmeshcher/agroshop-session/internal/checkout"
	"github.com/mmeshcher/agroshop-session/internal/session"
)

// PlaceOrder оформляет заказ. Завершённый заказ возвращается со статусом 201, ожидающая внешняя
// оплата со статусом 202 и адресом перехода.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req session.CheckoutInput
	if !decodeJSON(w, r, &req) {
		return
	}

	placement, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if placement.State == checkout.StatePendingExternalPayment {
		status = http.StatusAccepted
	}
	writeJSON(w, status, placement)
}

// ConfirmPayment подтверждает завершение внешней оплаты.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ConfirmExternalPayment(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// CancelPayment отменяет ожидание внешней оплаты.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelExternalPayment(); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrders возвращает историю заказов.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.service.Orders()
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
