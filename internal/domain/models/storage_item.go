package models

import "time"

// StorageItem is one durable key/value row. ExpiresAt is nil for keys that never expire.
type StorageItem struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}
