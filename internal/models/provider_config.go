package models

// LLMProvider names a backend in ProviderConfig and ModelConfig.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderClaude LLMProvider = "claude"
	ProviderGoogle LLMProvider = "google"
)

func (p LLMProvider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderClaude || p == ProviderGoogle
}

// ProviderConfig holds credentials per provider.
type ProviderConfig struct {
	OpenAI OpenAIProviderConfig `json:"openai"`
	Claude CommonProviderConfig `json:"claude"`
	Google CommonProviderConfig `json:"google"`
}

// CommonProviderConfig is the credential shape shared by every provider.
type CommonProviderConfig struct {
	Endpoint        string `json:"endpoint"`
	APIKey          string `json:"apiKey"`
	CustomModels    string `json:"customModels"`
	AutoFetchModels bool   `json:"autoFetchModels"`
}

type OpenAIProviderConfig struct {
	Name string `json:"name"`
	CommonProviderConfig
	Models []LLMModelOption `json:"models"`
}

// LLMModelOption is one entry of a provider's selectable model list.
type LLMModelOption struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ModelConfig holds generation parameters per provider; each provider
// keeps its own schema and parameter names.
type ModelConfig struct {
	OpenAI OpenAIModelConfig `json:"openai"`
	Claude ClaudeModelConfig `json:"claude"`
	Google GoogleModelConfig `json:"google"`
}

type OpenAIModelConfig struct {
	Model            string  `json:"model"`
	SummarizeModel   string  `json:"summarizeModel"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	MaxTokens        float64 `json:"max_tokens"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
}

type ClaudeModelConfig struct {
	Model             string  `json:"model"`
	SummarizeModel    string  `json:"summarizeModel"`
	MaxTokensToSample float64 `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              float64 `json:"top_k"`
}

type GoogleModelConfig struct {
	Model          string  `json:"model"`
	SummarizeModel string  `json:"summarizeModel"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"topP"`
	TopK           float64 `json:"topK"`
}
