package logout

import (
	"net/http"

	"github.com/docuchat/docuchat/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleLogout clears the session and returns to the landing page.
// POST /logout (GET also accepted for plain links)
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("logout session clear failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
