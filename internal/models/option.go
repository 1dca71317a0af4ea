package models

// Option is a key/value row backing a runtime setting. Values are stored
// as strings; structured settings hold JSON.
type Option struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}
