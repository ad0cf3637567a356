package chat

import (
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts chat under the mount path (typically "/chat"). Any active
// signed-in user can chat; no admin role required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeIndex)
		pr.Post("/threads", h.HandleNewThread)
		pr.Get("/threads/{id}", h.ServeThread)
		pr.Post("/threads/{id}/messages", h.HandleSend)
		pr.Post("/threads/{id}/delete", h.HandleDelete)
	})

	return r
}
