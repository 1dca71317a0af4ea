package models

// Token statuses.
const (
	TokenStatusEnabled   = 1
	TokenStatusDisabled  = 2
	TokenStatusExpired   = 3
	TokenStatusExhausted = 4
)

// Token is an API key issued to a user for relay access.
type Token struct {
	Base
	UserID         string `gorm:"type:uuid;not null;index" json:"user_id"`
	Key            string `gorm:"size:48;uniqueIndex" json:"key"`
	Name           string `gorm:"index" json:"name"`
	Status         int    `gorm:"default:1" json:"status"`
	RemainQuota    int64  `gorm:"default:0" json:"remain_quota"`
	UsedQuota      int64  `gorm:"default:0" json:"used_quota"`
	UnlimitedQuota bool   `gorm:"default:false" json:"unlimited_quota"`
	ExpiredTime    int64  `gorm:"default:-1" json:"expired_time"`
	AccessedTime   int64  `json:"accessed_time"`
	Group          string `json:"group"`
	ModelLimits    string `json:"model_limits"`
}
