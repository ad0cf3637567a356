// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/normalize"
	"github.com/docuchat/docuchat/internal/app/system/timeouts"
	"github.com/docuchat/docuchat/internal/app/system/viewdata"
	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	Users         *userstore.Store
	GoogleEnabled bool
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		ErrLog:        errLog,
		Users:         userstore.New(db),
		GoogleEnabled: googleEnabled,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

// oauthErrors maps error codes set by the Google sign-in redirects to
// user-facing messages.
var oauthErrors = map[string]string{
	"google_denied":         "Google sign-in was cancelled.",
	"google_not_configured": "Google sign-in is not available.",
	"invalid_state":         "Sign-in expired; please try again.",
	"invalid_code":          "Sign-in failed; please try again.",
	"token_exchange":        "Sign-in failed; please try again.",
	"user_info":             "Could not read your Google profile.",
	"account_blocked":       "This account has been blocked.",
	"internal":              "Something went wrong; please try again.",
}

// ServeForm renders the login form.
// GET /login
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		BaseVM:        viewdata.NewBaseVM(w, r, "Sign in", "/"),
		Error:         oauthErrors[r.URL.Query().Get("error")],
		ReturnURL:     safeReturnURL(r.URL.Query().Get("return")),
		GoogleEnabled: h.GoogleEnabled,
	}
	templates.Render(w, r, "login", data)
}

// HandleSubmit verifies credentials and starts a session.
// POST /login
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login form parse failed", err, "Could not read the form.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	returnURL := safeReturnURL(r.FormValue("return"))

	renderError := func(msg string) {
		data := loginFormData{
			BaseVM:        viewdata.NewBaseVM(w, r, "Sign in", "/"),
			Error:         msg,
			Email:         email,
			ReturnURL:     returnURL,
			GoogleEnabled: h.GoogleEnabled,
		}
		templates.Render(w, r, "login", data)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			renderError("Incorrect email or password.")
			return
		}
		h.ErrLog.LogServerError(w, r, "login lookup failed", err, "Something went wrong; please try again.", "/login")
		return
	}

	if u.AuthMethod == models.AuthGoogle {
		renderError("This account signs in with Google.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		renderError("Incorrect email or password.")
		return
	}
	if u.EffectiveStatus() == models.StatusBlocked {
		h.Log.Info("blocked account login attempt", zap.String("user_id", u.ID.Hex()))
		renderError("This account has been blocked.")
		return
	}

	if err := auth.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "login session create failed", err, "Something went wrong; please try again.", "/login")
		return
	}
	if err := h.Users.RecordLogin(ctx, u.ID); err != nil {
		h.Log.Warn("last login not recorded", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))

	if returnURL == "" {
		returnURL = "/chat"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

// safeReturnURL allows only same-site paths, never absolute URLs.
func safeReturnURL(raw string) string {
	if raw == "" || raw[0] != '/' {
		return ""
	}
	if len(raw) > 1 && raw[1] == '/' {
		return ""
	}
	return raw
}
