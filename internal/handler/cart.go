package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/agroshop-session/internal/model"
)

// GetCart возвращает корзину с разложением суммы.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Cart())
}

// AddCartItem добавляет единицу товара. В теле передаются последние известные данные товара.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "product id is required"})
		return
	}

	if err := h.service.AddToCart(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Cart())
}

// UpdateCartItem задаёт количество позиции.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	h.service.SetQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	writeJSON(w, http.StatusOK, h.service.Cart())
}

// DeleteCartItem удаляет позицию.
func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	h.service.RemoveFromCart(r.Context(), chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, h.service.Cart())
}
