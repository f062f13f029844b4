package appconfig

import (
	"time"

	"github.com/mohae/deepcopy"

	"chatdesk/internal/config"
	"chatdesk/internal/models"
)

const (
	// StoreKey is the name the settings record is persisted under.
	StoreKey = "app-config"
	// CurrentVersion is the schema version written on every save.
	CurrentVersion = 4.0

	DefaultInputTemplate = "{{input}}"
	DefaultSidebarWidth  = 300
)

// DefaultModels is the model list offered by the OpenAI provider.
var DefaultModels = []models.LLMModelOption{
	{Name: "gpt-4", Available: true},
	{Name: "gpt-4-0314", Available: true},
	{Name: "gpt-4-0613", Available: true},
	{Name: "gpt-4-32k", Available: true},
	{Name: "gpt-4-32k-0314", Available: true},
	{Name: "gpt-4-32k-0613", Available: true},
	{Name: "gpt-3.5-turbo", Available: true},
	{Name: "gpt-3.5-turbo-0301", Available: true},
	{Name: "gpt-3.5-turbo-0613", Available: true},
	{Name: "gpt-3.5-turbo-16k", Available: true},
	{Name: "gpt-3.5-turbo-16k-0613", Available: true},
}

func DefaultChatConfig() models.ChatConfig {
	return models.ChatConfig{
		EnableAutoGenerateTitle:        true,
		SendMemory:                     true,
		HistoryMessageCount:            4,
		CompressMessageLengthThreshold: 1000,
		EnableInjectSystemPrompts:      true,
		Template:                       DefaultInputTemplate,
	}
}

func DefaultProviderConfig() models.ProviderConfig {
	return models.ProviderConfig{
		OpenAI: models.OpenAIProviderConfig{
			Name: "OpenAI",
			CommonProviderConfig: models.CommonProviderConfig{
				Endpoint: "https://api.openai.com",
			},
			Models: deepcopy.Copy(DefaultModels).([]models.LLMModelOption),
		},
		Claude: models.CommonProviderConfig{
			Endpoint: "https://api.anthropic.com",
		},
		Google: models.CommonProviderConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
		},
	}
}

func DefaultModelConfig() models.ModelConfig {
	return models.ModelConfig{
		OpenAI: models.OpenAIModelConfig{
			Model:            "gpt-3.5-turbo",
			SummarizeModel:   "gpt-3.5-turbo",
			Temperature:      0.5,
			TopP:             1,
			MaxTokens:        2000,
			PresencePenalty:  0,
			FrequencyPenalty: 0,
		},
		Claude: models.ClaudeModelConfig{
			Model:             "claude-2",
			SummarizeModel:    "claude-2",
			MaxTokensToSample: 100000,
			Temperature:       1,
			TopP:              0.7,
			TopK:              1,
		},
		Google: models.GoogleModelConfig{
			Model:          "chat-bison-001",
			SummarizeModel: "chat-bison-001",
			Temperature:    1,
			TopP:           0.7,
			TopK:           1,
		},
	}
}

func DefaultMaskConfig() models.MaskConfig {
	return models.MaskConfig{
		Provider:    models.ProviderOpenAI,
		ChatConfig:  DefaultChatConfig(),
		ModelConfig: DefaultModelConfig(),
	}
}

// DefaultAppConfig builds a fresh settings record. now stamps LastUpdate;
// client picks platform dependent values.
func DefaultAppConfig(client config.ClientConfig, now time.Time) models.AppConfig {
	return models.AppConfig{
		LastUpdate: now.UnixMilli(),

		SubmitKey:         models.SubmitKeyCtrlEnter,
		Avatar:            "1f603",
		FontSize:          14,
		Theme:             models.ThemeAuto,
		TightBorder:       client.IsApp,
		SendPreviewBubble: true,
		SidebarWidth:      DefaultSidebarWidth,

		DisablePromptHint: false,

		DontShowMaskSplashScreen: false,
		HideBuiltinMasks:         false,

		ProviderConfig:   DefaultProviderConfig(),
		GlobalMaskConfig: DefaultMaskConfig(),
	}
}

// Clone returns a deep copy of cfg that shares no slices with it.
func Clone(cfg models.AppConfig) models.AppConfig {
	return deepcopy.Copy(cfg).(models.AppConfig)
}
