package authz

import (
	"errors"
	"testing"

	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		status   string
		required string
		want     bool
	}{
		{"active admin on admin surface", "admin", "active", "admin", true},
		{"active user on admin surface", "user", "active", "admin", false},
		{"blocked admin on admin surface", "admin", "blocked", "admin", false},
		{"pending user on admin surface", "user", "pending_admin", "admin", false},
		{"rejected user on admin surface", "user", "rejected_admin", "admin", false},
		{"active user on user surface", "user", "active", "user", true},
		{"blocked user on user surface", "user", "blocked", "user", false},
		{"missing role defaults to user", "", "active", "user", true},
		{"missing status defaults to active", "user", "", "user", true},
		{"missing both on admin surface", "", "", "admin", false},
		{"case-insensitive role", "Admin", "ACTIVE", "admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allowed(tt.role, tt.status, tt.required)
			if got != tt.want {
				t.Errorf("Allowed(%q, %q, %q) = %v, want %v",
					tt.role, tt.status, tt.required, got, tt.want)
			}
		})
	}
}

func TestCanAdminister(t *testing.T) {
	adminID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	admin := Principal{ID: adminID, Role: models.RoleAdmin, Status: models.StatusActive}

	if err := CanAdminister(admin, targetID); err != nil {
		t.Errorf("active admin on other user: got %v, want nil", err)
	}

	if err := CanAdminister(admin, adminID); !errors.Is(err, ErrSelfAction) {
		t.Errorf("admin on own record: got %v, want ErrSelfAction", err)
	}

	user := Principal{ID: adminID, Role: models.RoleUser, Status: models.StatusActive}
	if err := CanAdminister(user, targetID); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("regular user: got %v, want ErrNotAdmin", err)
	}

	blocked := Principal{ID: adminID, Role: models.RoleAdmin, Status: models.StatusBlocked}
	if err := CanAdminister(blocked, targetID); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("blocked admin: got %v, want ErrNotAdmin", err)
	}

	// Not-admin takes precedence over self-action: a non-admin targeting
	// themselves is still ErrNotAdmin.
	if err := CanAdminister(user, adminID); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin on own record: got %v, want ErrNotAdmin", err)
	}
}
