package models

// User roles. Values are ordered so role checks can use >=.
const (
	RoleCommon = 1
	RoleAdmin  = 10
	RoleRoot   = 100
)

// User statuses.
const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

// User represents a console user account.
type User struct {
	Base
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Password     string `gorm:"not null" json:"-"`
	DisplayName  string `json:"display_name"`
	Role         int    `gorm:"default:1" json:"role"`
	Status       int    `gorm:"default:1" json:"status"`
	Email        string `gorm:"index" json:"email"`
	Group        string `gorm:"default:default" json:"group"`
	Quota        int64  `gorm:"default:0" json:"quota"`
	UsedQuota    int64  `gorm:"default:0" json:"used_quota"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
}

// IsAdmin reports whether the user may call admin endpoints.
func (u *User) IsAdmin() bool {
	return u.Role >= RoleAdmin
}
