package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Products  *ProductHandler
	Cart      *CartHandler
	Orders    *OrdersHandler
	Addresses *AddressHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/categories", h.Products.Categories)
			r.Get("/{product_id}", h.Products.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(MockAuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Get("/count", h.Cart.Count)
				r.Post("/items", h.Cart.AddItem)
				r.Post("/items/delete", h.Cart.RemoveItems)
				r.Put("/items/{sku_id}", h.Cart.UpdateItem)
				r.Delete("/items/{sku_id}", h.Cart.RemoveItem)
				r.Post("/select-all", h.Cart.SelectAll)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Orders.CreateOrder)
				r.Get("/", h.Orders.ListOrders)
				r.Get("/{order_id}", h.Orders.GetOrder)
				r.Post("/{order_id}/pay", h.Orders.PayOrder)
				r.Post("/{order_id}/ship", h.Orders.ShipOrder)
				r.Post("/{order_id}/receive", h.Orders.ConfirmReceipt)
				r.Post("/{order_id}/cancel", h.Orders.CancelOrder)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.Addresses.List)
				r.Post("/", h.Addresses.Create)
				r.Get("/{address_id}", h.Addresses.Get)
				r.Put("/{address_id}", h.Addresses.Update)
				r.Delete("/{address_id}", h.Addresses.Delete)
			})
		})
	})

	return r
}
