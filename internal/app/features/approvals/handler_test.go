package approvals

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docuchat/docuchat/internal/app/store/lifecycle"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/signals"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/docuchat/docuchat/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	hub := signals.NewHub()
	mgr := lifecycle.NewManager(db, hub, zap.NewNop())
	flash.Init([]byte("0123456789abcdef0123456789abcdef"))
	return NewHandler(db, mgr, hub, nil, zap.NewNop()), fixtures
}

func TestHandleApprove_SetsToastAndRedirects(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	pending := fixtures.CreateUser(ctx, "Pending", "pending@example.com", models.RoleUser, models.StatusPendingAdmin)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/approvals/"+pending.ID.Hex()+"/approve", testutil.FromModel(admin))
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	w := httptest.NewRecorder()

	h.HandleApprove(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/approvals" {
		t.Errorf("expected redirect to /approvals, got %q", loc)
	}

	// The toast cookie carries the outcome across the redirect.
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a flash cookie")
	}
	r2 := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	for _, c := range cookies {
		r2.AddCookie(c)
	}
	msg, ok := flash.Take(httptest.NewRecorder(), r2)
	if !ok || msg.Text != "Request approved." {
		t.Errorf("expected approval toast, got %+v ok=%v", msg, ok)
	}
}

func TestHandleApprove_RaceBecomesToast(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	resolved := fixtures.CreateUser(ctx, "Resolved", "resolved@example.com", models.RoleAdmin, models.StatusActive)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/approvals/"+resolved.ID.Hex()+"/approve", testutil.FromModel(admin))
	req = testutil.WithChiURLParam(req, "id", resolved.ID.Hex())
	w := httptest.NewRecorder()

	h.HandleApprove(w, req)

	// Already-resolved is a benign outcome, not an error page.
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	r2 := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	for _, c := range w.Result().Cookies() {
		r2.AddCookie(c)
	}
	msg, ok := flash.Take(httptest.NewRecorder(), r2)
	if !ok || msg.Text != "Request already processed." {
		t.Errorf("expected already-processed toast, got %+v ok=%v", msg, ok)
	}
}

func TestServeBadge(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", models.RoleAdmin, models.StatusActive)
	fixtures.CreateUser(ctx, "P1", "p1@example.com", models.RoleUser, models.StatusPendingAdmin)
	fixtures.CreateUser(ctx, "P2", "p2@example.com", models.RoleUser, models.StatusPendingAdmin)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/approvals/badge", testutil.FromModel(admin))
	w := httptest.NewRecorder()

	h.ServeBadge(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode badge: %v", err)
	}
	if body["pending"] != 2 {
		t.Errorf("expected pending=2, got %d", body["pending"])
	}
}
