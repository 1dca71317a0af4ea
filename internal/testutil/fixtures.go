package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"relaypanel/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an enabled user with a hashed password and unique
// username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	username := fmt.Sprintf("user%d", nextID())
	return CreateTestUserWithUsername(t, db, username)
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Status:   models.UserStatusEnabled,
		Group:    "default",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestChannel creates an enabled channel serving the given models.
func CreateTestChannel(t *testing.T, db *gorm.DB, modelList string) *models.Channel {
	t.Helper()

	channel := &models.Channel{
		Name:   fmt.Sprintf("channel-%d", nextID()),
		Status: models.ChannelStatusEnabled,
		Group:  "default",
		Models: modelList,
		Key:    "sk-test",
	}
	if err := db.Create(channel).Error; err != nil {
		t.Fatalf("failed to create test channel: %v", err)
	}
	return channel
}

// CreateTestRedemption creates an enabled redemption code.
func CreateTestRedemption(t *testing.T, db *gorm.DB, name string, quota int64) *models.Redemption {
	t.Helper()

	code := &models.Redemption{
		Key:    fmt.Sprintf("%032d", nextID()),
		Name:   name,
		Status: models.RedemptionStatusEnabled,
		Quota:  quota,
	}
	if err := db.Create(code).Error; err != nil {
		t.Fatalf("failed to create test redemption: %v", err)
	}
	return code
}

// CreateTestOperationLog inserts one operation log row.
func CreateTestOperationLog(t *testing.T, db *gorm.DB, entry *models.OperationLog) *models.OperationLog {
	t.Helper()

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test operation log: %v", err)
	}
	return entry
}
