// internal/app/features/profile/handler_test.go
package profile

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/docuchat/docuchat/internal/app/features/errors"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/docuchat/docuchat/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func TestHandleUpdate_ChangesName(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	flash.Init([]byte("0123456789abcdef0123456789abcdef"))

	u := fx.CreateUser(ctx, "Old Name", "update@example.com", models.RoleUser, models.StatusActive)

	form := url.Values{"name": {"New Name"}}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.FromModel(u))
	rec := httptest.NewRecorder()

	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := userstore.New(fx.DB()).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "New Name" {
		t.Errorf("name = %q, want %q", got.Name, "New Name")
	}
}

func TestHandleUpdate_RejectsTakenEmail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	flash.Init([]byte("0123456789abcdef0123456789abcdef"))

	fx.CreateUser(ctx, "Other", "taken@example.com", models.RoleUser, models.StatusActive)
	u := fx.CreateUser(ctx, "Mover", "mover@example.com", models.RoleUser, models.StatusActive)

	form := url.Values{
		"name":  {"Mover"},
		"email": {"taken@example.com"},
	}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.FromModel(u))
	rec := httptest.NewRecorder()

	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := userstore.New(fx.DB()).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "mover@example.com" {
		t.Errorf("email = %q, want unchanged", got.Email)
	}
}

func TestHandlePassword_RejectsWrongCurrent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	flash.Init([]byte("0123456789abcdef0123456789abcdef"))

	u := fx.CreateUser(ctx, "Pass User", "pass@example.com", models.RoleUser, models.StatusActive)
	hash, _ := bcrypt.GenerateFromPassword([]byte("Correct!pw1"), bcrypt.MinCost)
	users := userstore.New(fx.DB())
	if err := users.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		t.Fatal(err)
	}

	form := url.Values{
		"current_password": {"wrong"},
		"new_password":     {"Another!pw2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/profile/password", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.FromModel(u))
	rec := httptest.NewRecorder()

	h.HandlePassword(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != string(hash) {
		t.Error("password hash changed despite wrong current password")
	}
}

func TestValidPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"short!A", false},
		{"alllowercase!", false},
		{"ALLUPPERCASE!", false},
		{"NoSpecials1A", false},
		{"Good!enough", true},
	}
	for _, c := range cases {
		if got := validPassword(c.pw); got != c.want {
			t.Errorf("validPassword(%q) = %v, want %v", c.pw, got, c.want)
		}
	}
}
