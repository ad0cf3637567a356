// internal/app/features/profile/routes.go
package profile

import (
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.ServeProfile)
		r.Post("/", h.HandleUpdate)
		r.Post("/password", h.HandlePassword)
	})
	return r
}
