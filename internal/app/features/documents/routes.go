package documents

import (
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts document management under the mount path (typically
// "/documents"). Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleUpload)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
