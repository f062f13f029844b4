package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"chatdesk/internal/models"
)

// HydrateResult reports what happened while turning a persisted blob
// into a live record.
type HydrateResult struct {
	Migrated bool
	Applied  []string
	// Ignored lists persisted values that could not be used and were
	// replaced by their default, one "path: detail" entry per field.
	Ignored []string
}

// Hydrate migrates state if it was written by an older schema and decodes
// it over a copy of defaults. Persisted values win; fields missing from the
// blob keep their default, unknown legacy fields are dropped.
func Hydrate(state []byte, version float64, defaults models.AppConfig, now time.Time) (models.AppConfig, HydrateResult, error) {
	cfg := Clone(defaults)
	var res HydrateResult
	if len(state) == 0 {
		return cfg, res, nil
	}

	migrated, applied, err := Migrate(state, version, now)
	if err != nil {
		return Clone(defaults), res, err
	}
	res.Applied = applied
	res.Migrated = version < CurrentVersion

	shape, err := json.Marshal(defaults)
	if err != nil {
		return Clone(defaults), res, fmt.Errorf("encode defaults: %w", err)
	}
	mismatches := typeMismatches(gjson.ParseBytes(shape), gjson.ParseBytes(migrated), "")
	for _, m := range mismatches {
		res.Ignored = append(res.Ignored, m.String())
	}

	if err := json.Unmarshal(migrated, &cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return Clone(defaults), res, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
		// Unmarshal keeps going past type mismatches and only returns the
		// first; the walk above already listed kind mismatches, this catches
		// numbers that do not fit the field (1.5 into an int).
		if !reported(mismatches, typeErr.Field) {
			res.Ignored = append(res.Ignored, fmt.Sprintf("%s: %v", typeErr.Field, err))
		}
	}

	res.Ignored = append(res.Ignored, repairEnums(&cfg, defaults)...)
	return cfg, res, nil
}

type fieldMismatch struct {
	Path string
	Want string
	Got  string
}

func (m fieldMismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Path, m.Want, m.Got)
}

// typeMismatches walks got against the shape of want and lists every value
// whose JSON kind cannot be decoded into the field at the same path. Keys
// unknown to want and nulls are skipped, the decoder ignores them too.
func typeMismatches(want, got gjson.Result, path string) []fieldMismatch {
	if got.Type == gjson.Null {
		return nil
	}
	if kindOf(want) != kindOf(got) {
		return []fieldMismatch{{Path: path, Want: kindOf(want), Got: kindOf(got)}}
	}

	var out []fieldMismatch
	switch {
	case want.IsObject():
		fields := want.Map()
		got.ForEach(func(key, value gjson.Result) bool {
			if w, ok := fields[key.String()]; ok {
				out = append(out, typeMismatches(w, value, joinPath(path, key.String()))...)
			}
			return true
		})
	case want.IsArray():
		elems := want.Array()
		if len(elems) == 0 {
			return nil
		}
		for i, value := range got.Array() {
			out = append(out, typeMismatches(elems[0], value, joinPath(path, strconv.Itoa(i)))...)
		}
	}
	return out
}

func kindOf(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	case r.IsBool():
		return "bool"
	}
	switch r.Type {
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return "null"
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func reported(mismatches []fieldMismatch, field string) bool {
	for _, m := range mismatches {
		if m.Path == field {
			return true
		}
	}
	return false
}

func repairEnums(cfg *models.AppConfig, defaults models.AppConfig) []string {
	var ignored []string
	if !cfg.SubmitKey.Valid() {
		ignored = append(ignored, fmt.Sprintf("submitKey: unknown value %q", cfg.SubmitKey))
		cfg.SubmitKey = defaults.SubmitKey
	}
	if !cfg.Theme.Valid() {
		ignored = append(ignored, fmt.Sprintf("theme: unknown value %q", cfg.Theme))
		cfg.Theme = defaults.Theme
	}
	if !cfg.GlobalMaskConfig.Provider.Valid() {
		ignored = append(ignored, fmt.Sprintf("globalMaskConfig.provider: unknown value %q", cfg.GlobalMaskConfig.Provider))
		cfg.GlobalMaskConfig.Provider = defaults.GlobalMaskConfig.Provider
	}
	return ignored
}

// MergeByLastUpdate returns the copy with the newer LastUpdate, preferring
// local on ties.
func MergeByLastUpdate(local, remote models.AppConfig) models.AppConfig {
	if remote.LastUpdate > local.LastUpdate {
		return Clone(remote)
	}
	return Clone(local)
}
