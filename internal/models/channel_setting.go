package models

// ChannelSetting holds per-channel monitor configuration.
type ChannelSetting struct {
	ChannelID  string `gorm:"type:uuid;primaryKey" json:"channel_id"`
	AutoEnable bool   `gorm:"default:false" json:"auto_enable"`
	MaxRPM     int    `gorm:"default:0" json:"max_rpm"`
}
