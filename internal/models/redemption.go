package models

// Redemption statuses.
const (
	RedemptionStatusEnabled  = 1
	RedemptionStatusDisabled = 2
	RedemptionStatusUsed     = 3
)

// Redemption is a quota top-up code. Key is write-only in API responses
// and excluded from operation-log snapshots.
type Redemption struct {
	Base
	UserID       string `gorm:"type:uuid;index" json:"user_id"`
	Key          string `gorm:"type:char(32);uniqueIndex" json:"key"`
	Name         string `gorm:"index" json:"name"`
	Status       int    `gorm:"default:1" json:"status"`
	Quota        int64  `gorm:"default:100" json:"quota"`
	RedeemedTime int64  `json:"redeemed_time"`
	ExpiredTime  int64  `gorm:"default:0" json:"expired_time"`
	UsedUserID   string `gorm:"type:uuid" json:"used_user_id"`
}
