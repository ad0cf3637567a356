// internal/app/features/manageusers/handler.go
package manageusers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	"github.com/docuchat/docuchat/internal/app/store/lifecycle"
	notificationstore "github.com/docuchat/docuchat/internal/app/store/notifications"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/authz"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/normalize"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// usersPerPage matches the management table's page size.
const usersPerPage = 15

// Handler serves the admin user management table.
type Handler struct {
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	Users     *userstore.Store
	Notes     *notificationstore.Store
	Lifecycle *lifecycle.Manager
}

func NewHandler(db *mongo.Database, mgr *lifecycle.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Users:     userstore.New(db),
		Notes:     notificationstore.New(db),
		Lifecycle: mgr,
	}
}

type userVM struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Status    string
	IsBlocked bool
	IsSelf    bool
	CreatedAt string
	LastLogin string
}

type listData struct {
	viewdata.BaseVM
	Users         []userVM
	Search        string
	RoleFilter    string
	StatusFilter  string
	Sort          string
	Page          int
	TotalPages    int
	Total         int64
	HasPrev       bool
	HasNext       bool
	PrevPage      int
	NextPage      int
	Notifications []string
}

// ServeList renders the searchable, pageable user table.
// GET /users
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	listQuery := userstore.ListQuery{
		Search:  normalize.QueryParam(q.Get("q")),
		Role:    normalize.Role(q.Get("role")),
		Status:  normalize.Status(q.Get("status")),
		Sort:    q.Get("sort"),
		Page:    page,
		PerPage: usersPerPage,
	}

	users, total, err := h.Users.List(ctx, listQuery)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user list failed", err, "Could not load users.", "/users")
		return
	}

	self, _ := auth.CurrentUser(r)
	vms := make([]userVM, 0, len(users))
	for _, u := range users {
		vm := userVM{
			ID:        u.ID.Hex(),
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.EffectiveRole(),
			Status:    u.EffectiveStatus(),
			IsBlocked: u.EffectiveStatus() == models.StatusBlocked,
			CreatedAt: u.CreatedAt.Format("Jan 2, 2006"),
		}
		if self != nil && self.ID == vm.ID {
			vm.IsSelf = true
		}
		if u.LastLoginAt != nil {
			vm.LastLogin = u.LastLoginAt.Format("Jan 2, 2006 15:04")
		}
		vms = append(vms, vm)
	}

	totalPages := int((total + usersPerPage - 1) / usersPerPage)
	if totalPages < 1 {
		totalPages = 1
	}

	var noteMsgs []string
	if notes, err := h.Notes.ListForRole(ctx, models.RoleAdmin, 5); err == nil {
		for _, n := range notes {
			noteMsgs = append(noteMsgs, n.Message)
		}
	}

	data := listData{
		BaseVM:        viewdata.NewBaseVM(w, r, "Manage users", "/users"),
		Users:         vms,
		Search:        listQuery.Search,
		RoleFilter:    listQuery.Role,
		StatusFilter:  listQuery.Status,
		Sort:          listQuery.Sort,
		Page:          page,
		TotalPages:    totalPages,
		Total:         total,
		HasPrev:       page > 1,
		HasNext:       page < totalPages,
		PrevPage:      page - 1,
		NextPage:      page + 1,
		Notifications: noteMsgs,
	}
	templates.Render(w, r, "users_list", data)
}

type editData struct {
	viewdata.BaseVM
	Error string
	User  userVM
}

// ServeEdit renders the edit form for one user.
// GET /users/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "manageusers: bad id", err, "That user could not be found.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			flash.Set(w, flash.Info, "User no longer exists.")
			http.Redirect(w, r, "/users", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "manageusers: load failed", err, "Could not load the user.", "/users")
		return
	}

	data := editData{
		BaseVM: viewdata.NewBaseVM(w, r, "Edit user", "/users"),
		User: userVM{
			ID:     u.ID.Hex(),
			Name:   u.Name,
			Email:  u.Email,
			Role:   u.EffectiveRole(),
			Status: u.EffectiveStatus(),
		},
	}
	templates.Render(w, r, "users_edit", data)
}

// HandleEdit updates a user's name and role.
// POST /users/{id}/edit
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/users")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "manageusers: bad id", err, "That user could not be found.", "/users")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "manageusers: form parse failed", err, "Could not read the form.", "/users")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	role := normalize.Role(r.FormValue("role"))
	if name == "" {
		flash.Set(w, flash.Error, "Name is required.")
		http.Redirect(w, r, "/users/"+id.Hex()+"/edit", http.StatusSeeOther)
		return
	}

	// Demoting yourself through the edit form is an easy way to lock
	// everyone out; route self role changes through another admin.
	if actor.ID == id && role != models.RoleAdmin {
		uierrors.RenderForbidden(w, r, "You cannot change your own role.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateNameRole(ctx, id, name, role); err != nil {
		h.ErrLog.LogServerError(w, r, "manageusers: update failed", err, "Could not save changes.", "/users")
		return
	}

	h.Log.Info("user edited",
		zap.String("user_id", id.Hex()),
		zap.String("edited_by", actor.ID.Hex()))

	flash.Set(w, flash.Success, "User updated.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// HandleToggle blocks or unblocks a user.
// POST /users/{id}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/users")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "manageusers: bad id", err, "That user could not be found.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	switch next, err := h.Lifecycle.ToggleStatus(ctx, actor.ID, id); {
	case err == nil:
		if next == models.StatusBlocked {
			flash.Set(w, flash.Success, "User blocked.")
		} else {
			flash.Set(w, flash.Success, "User unblocked.")
		}
	case errors.Is(err, lifecycle.ErrNotFound):
		flash.Set(w, flash.Info, "User no longer exists.")
	case errors.Is(err, lifecycle.ErrAlreadyResolved):
		flash.Set(w, flash.Info, "Resolve the pending request first.")
	case errors.Is(err, authz.ErrSelfAction):
		uierrors.RenderForbidden(w, r, "You cannot block yourself.", "/users")
		return
	case errors.Is(err, authz.ErrNotAdmin):
		uierrors.RenderForbidden(w, r, "You don't have permission to do that.", "/users")
		return
	default:
		h.ErrLog.LogServerError(w, r, "manageusers: toggle failed", err, "Something went wrong; please retry.", "/users")
		return
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// HandleDelete runs the cascading delete for a user.
// POST /users/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/users")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "manageusers: bad id", err, "That user could not be found.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	switch err := h.Lifecycle.DeleteUser(ctx, actor.ID, id); {
	case err == nil:
		flash.Set(w, flash.Success, "User deleted.")
	case errors.Is(err, authz.ErrSelfAction):
		uierrors.RenderForbidden(w, r, "You cannot delete yourself.", "/users")
		return
	case errors.Is(err, authz.ErrNotAdmin):
		uierrors.RenderForbidden(w, r, "You don't have permission to do that.", "/users")
		return
	default:
		h.ErrLog.LogServerError(w, r, "manageusers: delete failed", err, "Delete did not complete; it is safe to retry.", "/users")
		return
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
