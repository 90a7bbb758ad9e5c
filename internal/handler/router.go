package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/agroshop-session/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware локального API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
			r.Get("/events", h.GetEvents)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{productID}", h.UpdateCartItem)
			r.Delete("/items/{productID}", h.DeleteCartItem)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", h.GetAddresses)
			r.Post("/", h.AddAddress)
			r.Delete("/", h.DeleteAddress)
			r.Put("/default", h.SetDefaultAddress)
			r.Put("/current", h.SelectAddress)
		})

		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/", h.GetLoyalty)
			r.Post("/card", h.IssueLoyaltyCard)
			r.Get("/rewards", h.GetRewards)
			r.Post("/rewards/redeem", h.RedeemReward)
			r.Delete("/reward", h.ClearReward)
			r.Get("/redemptions", h.GetRedemptions)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.PlaceOrder)
			r.Post("/confirm", h.ConfirmPayment)
			r.Post("/cancel", h.CancelPayment)
		})

		r.Get("/orders", h.GetOrders)
		r.Post("/refresh", h.Refresh)
		r.Put("/preferences/view-mode", h.SetViewMode)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
