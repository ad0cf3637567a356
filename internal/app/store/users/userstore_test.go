package userstore_test

import (
	"testing"

	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/docuchat/docuchat/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:       "Pat Example",
		Email:      "Pat@Example.COM",
		AuthMethod: models.AuthPassword,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "pat@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Role != models.RoleUser {
		t.Errorf("expected default role %q, got %q", models.RoleUser, created.Role)
	}
	if created.Status != models.StatusActive {
		t.Errorf("expected default status %q, got %q", models.StatusActive, created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_PendingAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:   "Wants Admin",
		Email:  "wants@example.com",
		Status: models.StatusPendingAdmin,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Pending admins stay role "user" until approved.
	if created.Role != models.RoleUser {
		t.Errorf("expected role %q, got %q", models.RoleUser, created.Role)
	}
	if created.Status != models.StatusPendingAdmin {
		t.Errorf("expected status %q, got %q", models.StatusPendingAdmin, created.Status)
	}
}

func TestStore_Create_RejectsBadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		Name:  "Bad Role",
		Email: "badrole@example.com",
		Role:  "superuser",
	})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_GetByEmail_Normalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "Casey", Email: "casey@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "  CASEY@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Name != "Casey" {
		t.Errorf("got wrong user %q", got.Name)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListPendingAdmins_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Older Pending", "older@example.com", models.RoleUser, models.StatusPendingAdmin)
	fixtures.CreateUser(ctx, "Active User", "active@example.com", models.RoleUser, models.StatusActive)
	newer := fixtures.CreateUser(ctx, "Newer Pending", "newer@example.com", models.RoleUser, models.StatusPendingAdmin)

	pending, err := store.ListPendingAdmins(ctx)
	if err != nil {
		t.Fatalf("ListPendingAdmins failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending users, got %d", len(pending))
	}
	if pending[0].ID != newer.ID {
		t.Errorf("expected newest pending user first, got %q", pending[0].Email)
	}

	count, err := store.CountPendingAdmins(ctx)
	if err != nil {
		t.Fatalf("CountPendingAdmins failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestStore_List_SearchAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Alice Admin", "alice@example.com", models.RoleAdmin, models.StatusActive)
	fixtures.CreateUser(ctx, "Bob Builder", "bob@example.com", models.RoleUser, models.StatusActive)
	fixtures.CreateUser(ctx, "Alicia Keys", "alicia@example.com", models.RoleUser, models.StatusBlocked)

	users, total, err := store.List(ctx, userstore.ListQuery{Search: "alic", Sort: "name"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", total, len(users))
	}
	if users[0].Name != "Alice Admin" {
		t.Errorf("expected name sort, got %q first", users[0].Name)
	}

	users, total, err = store.List(ctx, userstore.ListQuery{Role: models.RoleUser, Status: models.StatusBlocked})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || users[0].Email != "alicia@example.com" {
		t.Errorf("role/status filter failed: total=%d users=%+v", total, users)
	}

	// Page past the end.
	users, total, err = store.List(ctx, userstore.ListQuery{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(users) != 0 {
		t.Errorf("expected empty page with total 3, got total=%d len=%d", total, len(users))
	}
}
