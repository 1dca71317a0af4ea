package models

// Channel statuses. Auto-disabled channels are candidates for the
// auto-enable monitor.
const (
	ChannelStatusEnabled      = 1
	ChannelStatusDisabled     = 2
	ChannelStatusAutoDisabled = 3
)

// Channel is an upstream provider endpoint requests are relayed to.
type Channel struct {
	Base
	Name               string `gorm:"index" json:"name"`
	Type               int    `gorm:"default:0;index" json:"type"`
	Status             int    `gorm:"default:1;index" json:"status"`
	Group              string `gorm:"default:default" json:"group"`
	Models             string `json:"models"`
	Priority           int64  `gorm:"default:0" json:"priority"`
	Weight             uint   `gorm:"default:0" json:"weight"`
	BaseURL            string `json:"base_url"`
	Key                string `gorm:"not null" json:"key"`
	TestTime           int64  `json:"test_time"`
	ResponseTime       int    `json:"response_time"`
	UsedQuota          int64  `gorm:"default:0" json:"used_quota"`
	AutoDisabledTime   int64  `json:"auto_disabled_time"`
	AutoDisabledReason string `json:"auto_disabled_reason"`
}
