package manageusers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/docuchat/docuchat/internal/app/store/lifecycle"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/signals"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/docuchat/docuchat/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	mgr := lifecycle.NewManager(db, signals.NewHub(), zap.NewNop())
	flash.Init([]byte("0123456789abcdef0123456789abcdef"))
	return NewHandler(db, mgr, nil, zap.NewNop()), fixtures
}

func TestHandleToggle_BlocksUser(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	target := fixtures.CreateUser(ctx, "Target", "target@example.com", models.RoleUser, models.StatusActive)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/users/"+target.ID.Hex()+"/toggle", testutil.FromModel(admin))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	w := httptest.NewRecorder()

	h.HandleToggle(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	users := userstore.New(fixtures.DB())
	got, err := users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusBlocked {
		t.Errorf("expected blocked, got %q", got.Status)
	}
}

func TestHandleEdit_UpdatesNameAndRole(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	target := fixtures.CreateUser(ctx, "Old Name", "target@example.com", models.RoleUser, models.StatusActive)

	form := url.Values{"name": {"New Name"}, "role": {models.RoleAdmin}}
	req := httptest.NewRequest(http.MethodPost, "/users/"+target.ID.Hex()+"/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithUser(req, testutil.FromModel(admin))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	w := httptest.NewRecorder()

	h.HandleEdit(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	users := userstore.New(fixtures.DB())
	got, err := users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "New Name" || got.Role != models.RoleAdmin {
		t.Errorf("expected New Name/admin, got %s/%s", got.Name, got.Role)
	}
}

func TestHandleDelete_RemovesUser(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	target := fixtures.CreateUser(ctx, "Target", "target@example.com", models.RoleUser, models.StatusActive)
	fixtures.CreateThread(ctx, target.ID, "thread")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/users/"+target.ID.Hex()+"/delete", testutil.FromModel(admin))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	w := httptest.NewRecorder()

	h.HandleDelete(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	users := userstore.New(fixtures.DB())
	if _, err := users.GetByID(ctx, target.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected user gone, got %v", err)
	}
}
