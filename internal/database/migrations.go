package database

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Schema snapshots are frozen per migration so later model changes never
// rewrite history.

type persistedState20240601 struct {
	Name      string  `gorm:"primaryKey;size:120"`
	Version   float64 `gorm:"not null;default:0"`
	State     string  `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (persistedState20240601) TableName() string {
	return "persisted_states"
}

// Migrations lists the schema migrations in the order they run.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20240601_persisted_states",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&persistedState20240601{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&persistedState20240601{})
			},
		},
	}
}
