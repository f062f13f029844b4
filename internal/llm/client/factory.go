package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/samber/lo"
	"google.golang.org/genai"

	"chatdesk/internal/models"
)

// Factory builds chat models from the persisted provider and mask settings.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateLLMClient returns a chat model for the mask's provider, configured
// with that provider's credentials and generation parameters.
func (f *Factory) CreateLLMClient(ctx context.Context, providers models.ProviderConfig, mask models.MaskConfig) (model.BaseChatModel, error) {
	switch mask.Provider {
	case models.ProviderOpenAI:
		cfg, err := openAIConfig(providers.OpenAI, mask.ModelConfig.OpenAI)
		if err != nil {
			return nil, err
		}
		cm, err := openai.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return cm, nil
	case models.ProviderClaude:
		cfg, err := claudeConfig(providers.Claude, mask.ModelConfig.Claude)
		if err != nil {
			return nil, err
		}
		cm, err := claude.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create claude chat model: %w", err)
		}
		return cm, nil
	case models.ProviderGoogle:
		clientCfg, err := genaiClientConfig(providers.Google)
		if err != nil {
			return nil, err
		}
		genaiClient, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, geminiConfig(genaiClient, mask.ModelConfig.Google))
		if err != nil {
			return nil, fmt.Errorf("create gemini chat model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", mask.Provider)
	}
}

func openAIConfig(provider models.OpenAIProviderConfig, params models.OpenAIModelConfig) (*openai.ChatModelConfig, error) {
	if strings.TrimSpace(provider.APIKey) == "" {
		return nil, fmt.Errorf("openai API key is not configured")
	}
	baseURL, err := openAIBaseURL(provider.Endpoint)
	if err != nil {
		return nil, err
	}
	return &openai.ChatModelConfig{
		APIKey:           provider.APIKey,
		BaseURL:          baseURL,
		Model:            params.Model,
		MaxTokens:        lo.ToPtr(int(params.MaxTokens)),
		Temperature:      lo.ToPtr(float32(params.Temperature)),
		TopP:             lo.ToPtr(float32(params.TopP)),
		PresencePenalty:  lo.ToPtr(float32(params.PresencePenalty)),
		FrequencyPenalty: lo.ToPtr(float32(params.FrequencyPenalty)),
	}, nil
}

// openAIBaseURL turns the stored endpoint into the API base: a bare host
// gets the /v1 prefix, an endpoint that already carries a path is kept.
func openAIBaseURL(endpoint string) (string, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return "", nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid openai endpoint %q", endpoint)
	}
	if u.Path == "" {
		return endpoint + "/v1", nil
	}
	return endpoint, nil
}

func claudeConfig(provider models.CommonProviderConfig, params models.ClaudeModelConfig) (*claude.Config, error) {
	if strings.TrimSpace(provider.APIKey) == "" {
		return nil, fmt.Errorf("claude API key is not configured")
	}
	cfg := &claude.Config{
		APIKey:      provider.APIKey,
		Model:       params.Model,
		MaxTokens:   int(params.MaxTokensToSample),
		Temperature: lo.ToPtr(float32(params.Temperature)),
		TopP:        lo.ToPtr(float32(params.TopP)),
		TopK:        lo.ToPtr(int32(params.TopK)),
	}
	if endpoint := strings.TrimSpace(provider.Endpoint); endpoint != "" {
		cfg.BaseURL = lo.ToPtr(endpoint)
	}
	return cfg, nil
}

func genaiClientConfig(provider models.CommonProviderConfig) (*genai.ClientConfig, error) {
	if strings.TrimSpace(provider.APIKey) == "" {
		return nil, fmt.Errorf("google API key is not configured")
	}
	return &genai.ClientConfig{
		APIKey:  provider.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(provider.Endpoint),
		},
	}, nil
}

func geminiConfig(client *genai.Client, params models.GoogleModelConfig) *gemini.Config {
	return &gemini.Config{
		Client:      client,
		Model:       params.Model,
		Temperature: lo.ToPtr(float32(params.Temperature)),
		TopP:        lo.ToPtr(float32(params.TopP)),
		TopK:        lo.ToPtr(int32(params.TopK)),
	}
}
