// Package config provides configuration loading and parsing for msgsampler.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// settingKey folds a setting name so that "jsonl-output", "jsonl_output" and
// "jsonlOutput" all refer to the same entry.
func settingKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// lookupSetting returns the first of names present in settings, comparing
// folded keys.
func lookupSetting(settings map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		want := settingKey(name)
		for key, val := range settings {
			if settingKey(key) == want {
				return val, true
			}
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return strings.TrimSpace(string(v)), nil
	case map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return "", fmt.Errorf("expected a scalar, got %T", value)
	default:
		return fmt.Sprint(v), nil
	}
}

// asInt accepts integers, whole floats (YAML and JSON decode numbers as
// float64) and decimal strings. Fractions are rejected rather than truncated:
// "messages: 1.5" is a typo, not 1 message.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return uintToInt(uint64(v))
	case uint32:
		return int(v), nil
	case uint64:
		return uintToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("expected a whole number, got %q", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected a whole number, got %T", value)
	}
}

func uintToInt(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("%d is out of range", v)
	}
	return int(v), nil
}

func floatToInt(v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("expected a whole number, got %v", v)
	}
	if v > math.MaxInt || v < math.MinInt {
		return 0, fmt.Errorf("%v is out of range", v)
	}
	return int(v), nil
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

// asBool also takes the YAML 1.1 words (yes/no, on/off) since config files
// written for other tools often use them.
func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return false, nil
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("expected true or false, got %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected true or false, got %T", value)
	}
}

// asDuration parses Go duration strings. Bare numbers, quoted or not, are
// seconds and may be fractional: interval: 0.25 is a 250ms window.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return secondsToDuration(secs)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("expected a duration such as 500ms or 2s, got %q", v)
		}
		return d, nil
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		secs, err := asFloat64(v)
		if err != nil {
			return 0, err
		}
		return secondsToDuration(secs)
	default:
		return 0, fmt.Errorf("expected a duration, got %T", value)
	}
}

func secondsToDuration(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.Abs(secs) > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("%v seconds is out of range", secs)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// asStringMap reads header-style maps. Keys keep their spelling; callers
// canonicalise them.
func asStringMap(value interface{}) (map[string]string, error) {
	var entries map[interface{}]interface{}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		result := make(map[string]string, len(v))
		for k, val := range v {
			result[k] = val
		}
		return result, nil
	case map[string]interface{}:
		entries = make(map[interface{}]interface{}, len(v))
		for k, val := range v {
			entries[k] = val
		}
	case map[interface{}]interface{}:
		entries = v
	default:
		return nil, fmt.Errorf("expected a map of strings, got %T", value)
	}

	result := make(map[string]string, len(entries))
	for k, val := range entries {
		key, err := asString(k)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, fmt.Errorf("map key cannot be empty")
		}
		str, err := asString(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		result[key] = str
	}
	return result, nil
}

// asStringSlice accepts a list or a single string; a single string is one
// entry, never split, because threshold expressions may contain commas.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for i, item := range v {
			str, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if str != "" {
				result = append(result, str)
			}
		}
		return result, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(v)}, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
}

// toStringKeyMap converts a nested settings section to a map keyed by folded
// names.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			result[settingKey(key)] = val
		}
	case map[interface{}]interface{}:
		for key, val := range v {
			str, err := asString(key)
			if err != nil {
				return nil, err
			}
			result[settingKey(str)] = val
		}
	default:
		return nil, fmt.Errorf("expected a section, got %T", value)
	}
	return result, nil
}
