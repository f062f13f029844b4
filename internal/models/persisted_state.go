package models

import "time"

// PersistedState is one named, versioned JSON blob (e.g. "app-config").
type PersistedState struct {
	Name      string  `gorm:"primaryKey;size:120"`
	Version   float64 `gorm:"not null;default:0"`
	State     string  `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
