package approvals

import (
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the approval queue under the mount path (typically
// "/approvals" from bootstrap). Every route requires an active admin; the
// role gate re-reads role and status per request, so a demoted or blocked
// admin loses this surface immediately.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
		pr.Get("/badge", h.ServeBadge)
		pr.Get("/events", h.ServeEvents)
	})

	return r
}
