package handler

import (
	"net/http"
)

type addressRequest struct {
	Address string `json:"address"`
}

// GetAddresses возвращает адресную книгу.
func (h *Handler) GetAddresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Addresses())
}

// AddAddress сохраняет адрес.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.AddAddress(r.Context(), req.Address); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.service.Addresses())
}

// DeleteAddress удаляет адрес.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RemoveAddress(r.Context(), req.Address); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Addresses())
}

// SetDefaultAddress назначает адрес по умолчанию.
func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.SetDefaultAddress(r.Context(), req.Address); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Addresses())
}

// SelectAddress задаёт адрес доставки для оформления.
func (h *Handler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.service.SelectDeliveryAddress(req.Address)
	writeJSON(w, http.StatusOK, h.service.Addresses())
}
