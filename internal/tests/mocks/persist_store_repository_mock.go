package mocks

import (
	"context"

	"chatdesk/internal/models"
)

type PersistStoreRepositoryMock struct {
	LoadFunc   func(ctx context.Context, name string) (*models.PersistedState, error)
	SaveFunc   func(ctx context.Context, name string, version float64, state []byte) error
	DeleteFunc func(ctx context.Context, name string) error

	Saved []models.PersistedState
}

func (m *PersistStoreRepositoryMock) Load(ctx context.Context, name string) (*models.PersistedState, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, name)
	}
	return nil, nil
}

func (m *PersistStoreRepositoryMock) Save(ctx context.Context, name string, version float64, state []byte) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, name, version, state); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, models.PersistedState{Name: name, Version: version, State: string(state)})
	return nil
}

func (m *PersistStoreRepositoryMock) Delete(ctx context.Context, name string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

// LastSaved returns the most recent saved state, or nil.
func (m *PersistStoreRepositoryMock) LastSaved() *models.PersistedState {
	if len(m.Saved) == 0 {
		return nil
	}
	return &m.Saved[len(m.Saved)-1]
}
