package handler

import (
	"net/http"
)

// GetLoyalty перечитывает и возвращает состояние лояльности.
func (h *Handler) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.RefreshLoyalty(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// IssueLoyaltyCard выпускает карту лояльности.
func (h *Handler) IssueLoyaltyCard(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.IssueLoyaltyCard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetRewards возвращает доступные награды.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.service.Rewards(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

// RedeemReward обменивает баллы на награду и применяет её к корзине.
func (h *Handler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	reward, err := h.service.RedeemReward(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Reward  any `json:"reward"`
		Cart    any `json:"cart"`
		Loyalty any `json:"loyalty"`
	}{reward, h.service.Cart(), h.service.Loyalty()})
}

// GetRedemptions возвращает историю обменов.
func (h *Handler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Redemptions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ClearReward снимает применённую награду с корзины.
func (h *Handler) ClearReward(w http.ResponseWriter, r *http.Request) {
	h.service.ClearReward()
	writeJSON(w, http.StatusOK, h.service.Cart())
}
