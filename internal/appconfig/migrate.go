package appconfig

import (
	"bytes"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Step upgrades a persisted blob written before version Before.
type Step struct {
	Before   float64
	Describe string
	Apply    func(state []byte, now time.Time) ([]byte, error)
}

// Steps is the migration chain in ascending order of Before.
var Steps = []Step{
	{
		Before:   3.4,
		Describe: "reset memory and sampling defaults of modelConfig, show mask splash screen and builtin masks",
		Apply: func(state []byte, _ time.Time) ([]byte, error) {
			if err := requireObject(state, "modelConfig"); err != nil {
				return nil, err
			}
			return setPaths(state, []pathValue{
				{"modelConfig.sendMemory", true},
				{"modelConfig.historyMessageCount", 4},
				{"modelConfig.compressMessageLengthThreshold", 1000},
				{"modelConfig.frequency_penalty", 0},
				{"modelConfig.top_p", 1},
				{"modelConfig.template", DefaultInputTemplate},
				{"dontShowMaskSplashScreen", false},
				{"hideBuiltinMasks", false},
			})
		},
	},
	{
		Before:   3.5,
		Describe: "set customModels",
		Apply: func(state []byte, _ time.Time) ([]byte, error) {
			return setPaths(state, []pathValue{{"customModels", "claude,claude-100k"}})
		},
	},
	{
		Before:   3.6,
		Describe: "enable system prompt injection",
		Apply: func(state []byte, _ time.Time) ([]byte, error) {
			if err := requireObject(state, "modelConfig"); err != nil {
				return nil, err
			}
			return setPaths(state, []pathValue{{"modelConfig.enableInjectSystemPrompts", true}})
		},
	},
	{
		Before:   3.7,
		Describe: "enable automatic title generation",
		Apply: func(state []byte, _ time.Time) ([]byte, error) {
			return setPaths(state, []pathValue{{"enableAutoGenerateTitle", true}})
		},
	},
	{
		Before:   3.8,
		Describe: "stamp lastUpdate",
		Apply: func(state []byte, now time.Time) ([]byte, error) {
			return setPaths(state, []pathValue{{"lastUpdate", now.UnixMilli()}})
		},
	},
	{
		Before:   4,
		Describe: "no changes",
		Apply: func(state []byte, _ time.Time) ([]byte, error) {
			return state, nil
		},
	},
}

// Migrate upgrades a persisted blob from fromVersion to CurrentVersion.
// Every step whose threshold is above fromVersion runs, in order. The input
// is never modified; the upgraded blob and the applied step descriptions
// are returned.
func Migrate(state []byte, fromVersion float64, now time.Time) ([]byte, []string, error) {
	return migrate(Steps, state, fromVersion, now)
}

func migrate(steps []Step, state []byte, fromVersion float64, now time.Time) ([]byte, []string, error) {
	if fromVersion > CurrentVersion {
		return nil, nil, fmt.Errorf("%w: %v is newer than %v", ErrUnsupportedVersion, fromVersion, CurrentVersion)
	}
	if !gjson.ValidBytes(state) || !gjson.ParseBytes(state).IsObject() {
		return nil, nil, fmt.Errorf("%w: not a JSON object", ErrMalformedState)
	}

	out := bytes.Clone(state)
	var applied []string
	for _, step := range steps {
		if fromVersion >= step.Before {
			continue
		}
		next, err := step.Apply(out, now)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate to %v: %w", step.Before, err)
		}
		out = next
		applied = append(applied, fmt.Sprintf("%v: %s", step.Before, step.Describe))
	}
	return out, applied, nil
}

type pathValue struct {
	path  string
	value any
}

func setPaths(state []byte, values []pathValue) ([]byte, error) {
	var err error
	for _, pv := range values {
		state, err = sjson.SetBytes(state, pv.path, pv.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", pv.path, err)
		}
	}
	return state, nil
}

// requireObject accepts a missing section (it is created by the first write)
// but rejects one that exists with a non-object value.
func requireObject(state []byte, path string) error {
	res := gjson.GetBytes(state, path)
	if res.Exists() && !res.IsObject() {
		return fmt.Errorf("%w: %s is %s, want object", ErrMalformedState, path, res.Type)
	}
	return nil
}
