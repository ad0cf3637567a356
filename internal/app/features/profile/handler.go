// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"unicode"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/normalize"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves the signed-in user's own profile.
type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Users:  userstore.New(db),
	}
}

type profileData struct {
	viewdata.BaseVM
	Name          string
	Email         string
	Role          string
	Status        string
	AuthMethod    string
	CanSetPass    bool
	PendingAdmin  bool
	RejectedAdmin bool
	RejectReason  string
}

// ServeProfile renders the profile page.
// GET /profile
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile load failed", err, "Could not load your profile.", "/")
		return
	}

	data := profileData{
		BaseVM:        viewdata.NewBaseVM(w, r, "Your profile", "/chat"),
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.EffectiveRole(),
		Status:        u.EffectiveStatus(),
		AuthMethod:    u.AuthMethod,
		CanSetPass:    u.AuthMethod == models.AuthPassword,
		PendingAdmin:  u.EffectiveStatus() == models.StatusPendingAdmin,
		RejectedAdmin: u.EffectiveStatus() == models.StatusRejectedAdmin,
		RejectReason:  u.RejectReason,
	}
	templates.Render(w, r, "profile", data)
}

// HandleUpdate changes the display name and, for password-auth accounts,
// the email address. Google accounts keep the address Google asserts.
// POST /profile
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/profile")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	if name == "" {
		flash.Set(w, flash.Error, "Name is required.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile load failed", err, "Could not save your profile.", "/profile")
		return
	}

	if err := h.Users.UpdateName(ctx, p.ID, name); err != nil {
		h.ErrLog.LogServerError(w, r, "profile update failed", err, "Could not save your profile.", "/profile")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	if email != "" && email != u.Email && u.AuthMethod == models.AuthPassword {
		taken, err := h.Users.EmailExistsForOther(ctx, email, p.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "email check failed", err, "Could not save your profile.", "/profile")
			return
		}
		if taken {
			flash.Set(w, flash.Error, "That email address is already in use.")
			http.Redirect(w, r, "/profile", http.StatusSeeOther)
			return
		}
		if err := h.Users.UpdateEmail(ctx, p.ID, email); err != nil {
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				flash.Set(w, flash.Error, "That email address is already in use.")
				http.Redirect(w, r, "/profile", http.StatusSeeOther)
				return
			}
			h.ErrLog.LogServerError(w, r, "email update failed", err, "Could not save your profile.", "/profile")
			return
		}
	}

	flash.Set(w, flash.Success, "Profile updated.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// HandlePassword changes the password for password-auth accounts.
// POST /profile/password
func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login?return=/profile")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile load failed", err, "Could not change your password.", "/profile")
		return
	}
	if u.AuthMethod != models.AuthPassword {
		flash.Set(w, flash.Error, "This account signs in with Google.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		flash.Set(w, flash.Error, "Current password is incorrect.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	if !validPassword(next) {
		flash.Set(w, flash.Error, "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, and a special character.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "password hash failed", err, "Could not change your password.", "/profile")
		return
	}
	if err := h.Users.SetPasswordHash(ctx, p.ID, string(hash)); err != nil {
		h.ErrLog.LogServerError(w, r, "password update failed", err, "Could not change your password.", "/profile")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", p.ID.Hex()))
	flash.Set(w, flash.Success, "Password changed.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func validPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, special bool
	for _, c := range pw {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case !unicode.IsLetter(c) && !unicode.IsDigit(c):
			special = true
		}
	}
	return upper && lower && special
}
