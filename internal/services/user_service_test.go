package services

import (
	"strings"
	"testing"

	"relaypanel/internal/models"
	"relaypanel/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		user, err := svc.CreateUser("Alice", "password123", "Alice Admin", models.RoleAdmin)
		testutil.AssertNoError(t, err)

		if user.Username != "alice" {
			t.Errorf("expected lowercased username, got %q", user.Username)
		}
		if user.Password == "password123" {
			t.Error("expected hashed password")
		}
		if user.Status != models.UserStatusEnabled {
			t.Errorf("expected enabled status, got %d", user.Status)
		}
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		_, err := svc.CreateUser("alice", "password123", "", models.RoleCommon)
		testutil.AssertNoError(t, err)

		// Case-insensitive duplicate.
		_, err = svc.CreateUser("ALICE", "password123", "", models.RoleCommon)
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")
	})

	t.Run("missing_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		_, err := svc.CreateUser("", "password123", "", models.RoleCommon)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateUser("alice", "", "", models.RoleCommon)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("valid_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		created := testutil.CreateTestUserWithUsername(t, db, "alice")

		user, err := svc.AttemptLogin("alice", "password123")
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		testutil.CreateTestUserWithUsername(t, db, "alice")

		_, err := svc.AttemptLogin("alice", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		_, err := svc.AttemptLogin("nobody", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("disabled_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		user := testutil.CreateTestUserWithUsername(t, db, "alice")
		db.Model(user).Update("status", models.UserStatusDisabled)

		// Same error as bad credentials so account state is not probeable.
		_, err := svc.AttemptLogin("alice", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("by_id_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		_, err := svc.GetUserByID("missing-id")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("by_username_is_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		created := testutil.CreateTestUserWithUsername(t, db, "alice")

		user, err := svc.GetUserByUsername("ALICE")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("applies_allowed_fields_and_logs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		user := testutil.CreateTestUser(t, db)

		updated, err := svc.UpdateUser("admin-id", "root", "127.0.0.1", user.ID, map[string]any{
			"display_name": "Renamed",
			"group":        "vip",
			"quota":        int64(500000),
		})
		testutil.AssertNoError(t, err)

		if updated.DisplayName != "Renamed" || updated.Group != "vip" || updated.Quota != 500000 {
			t.Errorf("unexpected user after update: %+v", updated)
		}

		var entry models.OperationLog
		if err := db.Where("module = ? AND action = ?", "user", "update").First(&entry).Error; err != nil {
			t.Fatalf("expected update log: %v", err)
		}
		if entry.TargetID != user.ID || entry.TargetName != user.Username {
			t.Errorf("unexpected log target: %s/%s", entry.TargetID, entry.TargetName)
		}
		if !strings.Contains(entry.NewValue, "Renamed") {
			t.Errorf("expected new snapshot to carry the edit, got %q", entry.NewValue)
		}
	})

	t.Run("ignores_protected_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))
		user := testutil.CreateTestUser(t, db)
		originalPassword := user.Password

		updated, err := svc.UpdateUser("admin-id", "root", "", user.ID, map[string]any{
			"password": "plaintext",
			"username": "hijacked",
		})
		testutil.AssertNoError(t, err)

		if updated.Password != originalPassword || updated.Username != user.Username {
			t.Error("expected protected fields to be untouched")
		}

		var count int64
		db.Model(&models.OperationLog{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no log when nothing applied, got %d", count)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, NewOperationLogService(db))

		_, err := svc.UpdateUser("admin-id", "root", "", "missing-id", map[string]any{"group": "vip"})
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
