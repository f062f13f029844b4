package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatdesk/internal/models"
)

type PersistStoreRepository interface {
	// Load returns the named state, or nil when nothing was saved yet.
	Load(ctx context.Context, name string) (*models.PersistedState, error)
	Save(ctx context.Context, name string, version float64, state []byte) error
	Delete(ctx context.Context, name string) error
}

type persistStoreRepository struct {
	db *gorm.DB
}

func NewPersistStoreRepository(db *gorm.DB) PersistStoreRepository {
	return &persistStoreRepository{db: db}
}

func (r *persistStoreRepository) Load(ctx context.Context, name string) (*models.PersistedState, error) {
	if name == "" {
		return nil, fmt.Errorf("state name is required")
	}
	var state models.PersistedState
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *persistStoreRepository) Save(ctx context.Context, name string, version float64, state []byte) error {
	if name == "" {
		return fmt.Errorf("state name is required")
	}
	record := models.PersistedState{
		Name:    name,
		Version: version,
		State:   string(state),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "state", "updated_at"}),
	}).Create(&record).Error
}

func (r *persistStoreRepository) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("state name is required")
	}
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.PersistedState{}).Error
}
