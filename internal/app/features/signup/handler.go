package signup

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	adminrequests "github.com/docuchat/docuchat/internal/app/store/adminrequests"
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

// Handler serves account creation, including the admin elevation request path.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Users    *userstore.Store
	Requests *adminrequests.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		Users:    userstore.New(db),
		Requests: adminrequests.New(db),
	}
}

type formData struct {
	viewdata.BaseVM
	Error       string
	Name        string
	Email       string
	AccountType string
}

// ServeForm renders the signup form.
// GET /signup
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := formData{
		BaseVM:      viewdata.NewBaseVM(w, r, "Create an account", "/"),
		AccountType: models.RoleUser,
	}
	templates.Render(w, r, "signup", data)
}

// passwordRules is shown alongside validation failures.
const passwordRules = "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, and a special character."

// validPassword applies the signup password policy.
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

// HandleSubmit creates the account. Choosing the admin account type creates
// the user in pending_admin with an audit request record; the account cannot
// act as an admin until someone approves it.
// POST /signup
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signup form parse failed", err, "Could not read the form.", "/signup")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	accountType := normalize.Role(r.FormValue("account_type"))

	renderError := func(msg string) {
		data := formData{
			BaseVM:      viewdata.NewBaseVM(w, r, "Create an account", "/"),
			Error:       msg,
			Name:        name,
			Email:       email,
			AccountType: accountType,
		}
		templates.Render(w, r, "signup", data)
	}

	if name == "" || email == "" {
		renderError("Name and email are required.")
		return
	}
	if !strings.Contains(email, "@") {
		renderError("Enter a valid email address.")
		return
	}
	if !validPassword(password) {
		renderError(passwordRules)
		return
	}
	if accountType != models.RoleUser && accountType != models.RoleAdmin {
		renderError("Choose an account type.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "password hash failed", err, "Could not create the account.", "/signup")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	newUser := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		AuthMethod:   models.AuthPassword,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	if accountType == models.RoleAdmin {
		// Admin is requested, never granted at signup.
		newUser.Status = models.StatusPendingAdmin
	}

	created, err := h.Users.Create(ctx, newUser)
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			renderError("An account with this email already exists.")
			return
		}
		h.ErrLog.LogServerError(w, r, "signup insert failed", err, "Could not create the account.", "/signup")
		return
	}

	if accountType == models.RoleAdmin {
		if _, err := h.Requests.Create(ctx, created); err != nil {
			h.Log.Warn("signup: elevation request record not created",
				zap.String("user_id", created.ID.Hex()), zap.Error(err))
		}
		h.Log.Info("admin account requested",
			zap.String("user_id", created.ID.Hex()),
			zap.String("email", created.Email))
		http.Redirect(w, r, "/signup/pending", http.StatusSeeOther)
		return
	}

	if err := auth.SignIn(w, r, created.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "signup session create failed", err, "Account created; please sign in.", "/login")
		return
	}

	h.Log.Info("account created", zap.String("user_id", created.ID.Hex()))
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// ServePending renders the "request submitted" notice shown after an admin
// signup.
// GET /signup/pending
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	data := struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(w, r, "Request submitted", "/"),
	}
	templates.Render(w, r, "signup_pending", data)
}
