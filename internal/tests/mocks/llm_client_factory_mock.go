package mocks

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	"chatdesk/internal/models"
)

type LLMClientFactoryMock struct {
	CreateLLMClientFunc func(ctx context.Context, providers models.ProviderConfig, mask models.MaskConfig) (model.BaseChatModel, error)
}

func (m *LLMClientFactoryMock) CreateLLMClient(ctx context.Context, providers models.ProviderConfig, mask models.MaskConfig) (model.BaseChatModel, error) {
	if m.CreateLLMClientFunc != nil {
		return m.CreateLLMClientFunc(ctx, providers, mask)
	}
	return nil, nil
}

type APIKeyStoreMock struct {
	GetApiKeyFunc func(provider string) (string, error)
}

func (m *APIKeyStoreMock) GetApiKey(provider string) (string, error) {
	if m.GetApiKeyFunc != nil {
		return m.GetApiKeyFunc(provider)
	}
	return "", nil
}
