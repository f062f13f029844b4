package services

import (
	"gorm.io/gorm"

	"chatdesk/internal/config"
	"chatdesk/internal/repositories"
)

// DbServices aggregates all domain services backed by the database.
type DbServices struct {
	AppConfig AppConfigService
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB, factory LLMClientFactory, keys APIKeyStore, client config.ClientConfig) *DbServices {
	persistRepo := repositories.NewPersistStoreRepository(db)

	return &DbServices{
		AppConfig: NewAppConfigService(persistRepo, factory, keys, client),
	}
}
