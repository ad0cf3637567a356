// internal/app/features/approvals/handler.go
package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	"github.com/docuchat/docuchat/internal/app/store/lifecycle"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/authz"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/signals"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin approval queue.
type Handler struct {
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	Users     *userstore.Store
	Lifecycle *lifecycle.Manager
	Hub       *signals.Hub

	sanitizer *bluemonday.Policy
}

func NewHandler(db *mongo.Database, mgr *lifecycle.Manager, hub *signals.Hub, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Users:     userstore.New(db),
		Lifecycle: mgr,
		Hub:       hub,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

type pendingVM struct {
	ID          string
	Name        string
	Email       string
	RequestedAt string
}

type listData struct {
	viewdata.BaseVM
	Pending []pendingVM
}

// ServeList renders the pending elevation requests, newest first.
// GET /approvals
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Users.ListPendingAdmins(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "approvals list failed", err, "Could not load pending requests.", "/approvals")
		return
	}

	vms := make([]pendingVM, 0, len(pending))
	for _, u := range pending {
		vms = append(vms, pendingVM{
			ID:          u.ID.Hex(),
			Name:        u.Name,
			Email:       u.Email,
			RequestedAt: u.CreatedAt.Format("Jan 2, 2006 15:04"),
		})
	}

	data := listData{
		BaseVM:  viewdata.NewBaseVM(w, r, "Admin requests", "/approvals"),
		Pending: vms,
	}
	templates.Render(w, r, "approvals_list", data)
}

// resolve runs an approve or reject action and translates the outcome into
// a flash toast. Benign races ("someone else already handled it") are
// toasts, not errors; only authorization failures and store errors escalate.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, actorID, targetID primitive.ObjectID) error, successMsg string) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/approvals")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "approvals: bad target id", err, "That request could not be found.", "/approvals")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	switch err := action(ctx, actor.ID, targetID); {
	case err == nil:
		flash.Set(w, flash.Success, successMsg)
	case errors.Is(err, lifecycle.ErrNotFound):
		flash.Set(w, flash.Info, "User no longer exists.")
	case errors.Is(err, lifecycle.ErrAlreadyResolved):
		flash.Set(w, flash.Info, "Request already processed.")
	case errors.Is(err, authz.ErrSelfAction):
		uierrors.RenderForbidden(w, r, "You cannot act on your own request.", "/approvals")
		return
	case errors.Is(err, authz.ErrNotAdmin):
		uierrors.RenderForbidden(w, r, "You don't have permission to do that.", "/approvals")
		return
	default:
		h.ErrLog.LogServerError(w, r, "approvals action failed", err, "Something went wrong; please retry.", "/approvals")
		return
	}

	http.Redirect(w, r, "/approvals", http.StatusSeeOther)
}

// HandleApprove grants a pending request.
// POST /approvals/{id}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Lifecycle.Approve, "Request approved.")
}

// HandleReject declines a pending request with an optional reason.
// POST /approvals/{id}/reject
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	reason := h.sanitizer.Sanitize(r.FormValue("reason"))
	h.resolve(w, r, func(ctx context.Context, actorID, targetID primitive.ObjectID) error {
		return h.Lifecycle.Reject(ctx, actorID, targetID, reason)
	}, "Request rejected.")
}

// ServeBadge returns the pending count as JSON for the notification bell.
// GET /approvals/badge
func (h *Handler) ServeBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Users.CountPendingAdmins(ctx)
	if err != nil {
		h.Log.Error("approvals badge count failed", zap.Error(err))
		http.Error(w, `{"error":"unavailable"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"pending": count})
}

// ServeEvents streams lifecycle signals as server-sent events so open admin
// views refresh their lists without polling.
// GET /approvals/events
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if _, err := w.Write([]byte("event: " + ev.Topic + "\ndata: " + ev.Subject + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
