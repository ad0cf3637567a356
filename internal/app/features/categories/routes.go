package categories

import (
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts category management under the mount path (typically
// "/categories"). Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/rename", h.HandleRename)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
