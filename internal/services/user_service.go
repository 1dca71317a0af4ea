package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "relaypanel/internal/errors"
	"relaypanel/internal/models"
	"relaypanel/internal/oplog"
)

// userService handles user-related business logic.
type userService struct {
	db     *gorm.DB
	oplogs OperationLogServicer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, oplogs OperationLogServicer) UserServicer {
	return &userService{db: db, oplogs: oplogs}
}

// snapshot renders a user for operation logging with credentials omitted.
func userSnapshot(u *models.User) map[string]any {
	return map[string]any{
		"username":     u.Username,
		"display_name": u.DisplayName,
		"role":         u.Role,
		"status":       u.Status,
		"email":        u.Email,
		"group":        u.Group,
		"quota":        u.Quota,
	}
}

// CreateUser registers a new user
func (s *userService) CreateUser(username, password, displayName string, role int) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", strings.ToLower(username)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:    strings.ToLower(username),
		Password:    string(hashedPassword),
		DisplayName: displayName,
		Role:        role,
		Status:      models.UserStatusEnabled,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// AttemptLogin verifies credentials and returns the user on success.
// Disabled accounts and bad credentials return the same error.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != models.UserStatusEnabled {
		return nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// userUpdatableFields are the columns admin edits may touch.
var userUpdatableFields = map[string]bool{
	"display_name": true,
	"role":         true,
	"status":       true,
	"email":        true,
	"group":        true,
	"quota":        true,
}

// UpdateUser applies admin field edits and records an update log with old
// and new snapshots.
func (s *userService) UpdateUser(actorID, actorName, ip, id string, updates map[string]any) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	oldSnapshot := userSnapshot(user)

	applied := make(map[string]any, len(updates))
	for field, value := range updates {
		if userUpdatableFields[field] {
			applied[field] = value
		}
	}
	if len(applied) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(applied).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user, err = s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	s.oplogs.Record(OperationLogParams{
		UserID:     actorID,
		Username:   actorName,
		Module:     oplog.ModuleUser,
		Action:     oplog.ActionUpdate,
		TargetID:   user.ID,
		TargetName: user.Username,
		Old:        oldSnapshot,
		New:        userSnapshot(user),
		IP:         ip,
	})
	return user, nil
}
