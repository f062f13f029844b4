package appconfig

import (
	"encoding/json"
	"math"

	"github.com/samber/lo"

	"chatdesk/internal/models"
)

// LimitNumber clamps x into [min, max]. Non-finite input yields fallback.
func LimitNumber(x, min, max, fallback float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fallback
	}
	return lo.Clamp(x, min, max)
}

// LimitNumberAny is LimitNumber for untyped input such as decoded UI
// payloads. Anything that is not a number yields fallback.
func LimitNumberAny(x any, min, max, fallback float64) float64 {
	var f float64
	switch v := x.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	return LimitNumber(f, min, max, fallback)
}

// ClampRule is the safe range of one numeric model parameter.
type ClampRule struct {
	Min      float64
	Max      float64
	Fallback float64
}

func (r ClampRule) Apply(x float64) float64 {
	return LimitNumber(x, r.Min, r.Max, r.Fallback)
}

// ModelConfigRules maps model parameter names to their clamp rule.
var ModelConfigRules = map[string]ClampRule{
	"max_tokens":        {Min: 0, Max: 100000, Fallback: 2000},
	"presence_penalty":  {Min: -2, Max: 2, Fallback: 0},
	"frequency_penalty": {Min: -2, Max: 2, Fallback: 0},
	"temperature":       {Min: 0, Max: 1, Fallback: 1},
	"top_p":             {Min: 0, Max: 1, Fallback: 1},
}

type modelConfigValidator struct{}

// ModelConfigValidator is consulted before a user edited model parameter is
// committed. The store itself never applies it.
var ModelConfigValidator modelConfigValidator

func (modelConfigValidator) Model(x string) string { return x }

func (modelConfigValidator) MaxTokens(x float64) float64 {
	return ModelConfigRules["max_tokens"].Apply(x)
}

func (modelConfigValidator) PresencePenalty(x float64) float64 {
	return ModelConfigRules["presence_penalty"].Apply(x)
}

func (modelConfigValidator) FrequencyPenalty(x float64) float64 {
	return ModelConfigRules["frequency_penalty"].Apply(x)
}

func (modelConfigValidator) Temperature(x float64) float64 {
	return ModelConfigRules["temperature"].Apply(x)
}

func (modelConfigValidator) TopP(x float64) float64 {
	return ModelConfigRules["top_p"].Apply(x)
}

// Field validates a parameter by its persisted name. The second result is
// false for names without a rule; "model" is passed through unchanged.
func (modelConfigValidator) Field(name string, x any) (any, bool) {
	if name == "model" {
		return x, true
	}
	rule, ok := ModelConfigRules[name]
	if !ok {
		return x, false
	}
	return LimitNumberAny(x, rule.Min, rule.Max, rule.Fallback), true
}

// OpenAI returns cfg with every clamped parameter brought into range.
func (v modelConfigValidator) OpenAI(cfg models.OpenAIModelConfig) models.OpenAIModelConfig {
	cfg.Model = v.Model(cfg.Model)
	cfg.MaxTokens = v.MaxTokens(cfg.MaxTokens)
	cfg.PresencePenalty = v.PresencePenalty(cfg.PresencePenalty)
	cfg.FrequencyPenalty = v.FrequencyPenalty(cfg.FrequencyPenalty)
	cfg.Temperature = v.Temperature(cfg.Temperature)
	cfg.TopP = v.TopP(cfg.TopP)
	return cfg
}
