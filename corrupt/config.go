package corrupt

import (
	"fmt"
)

// Option keys recognised by ConfigFromOptions.
const (
	OptBlurScale            = "corruption_blur_scale"
	OptFixedCorruptions     = "fixed_corruptions"
	OptNumRandomCorruptions = "num_corrupts_per_image"
	OptRandomCorruptions    = "random_corruptions"
)

// Config fixes which corruptions a Corruptor applies.
type Config struct {
	// BlurScale multiplies the motion blur kernel size.
	BlurScale float64 `json:"corruption_blur_scale" toml:"corruption_blur_scale"`

	// FixedCorruptions are applied to every image, in order, after the
	// random ones. Their strength draws are reported as entropy.
	FixedCorruptions []string `json:"fixed_corruptions" toml:"fixed_corruptions"`

	// NumRandomCorruptions is how many identifiers to draw from
	// RandomCorruptions per call.
	NumRandomCorruptions int `json:"num_corrupts_per_image" toml:"num_corrupts_per_image"`

	// RandomCorruptions is the pool random identifiers are drawn from, with
	// replacement. Ignored when NumRandomCorruptions is 0.
	RandomCorruptions []string `json:"random_corruptions" toml:"random_corruptions"`
}

// DefaultConfig returns a configuration that leaves images untouched.
func DefaultConfig() Config {
	return Config{
		BlurScale: 1,
	}
}

// ConfigFromOptions builds a Config from a loosely typed options mapping,
// as produced by JSON, TOML or YAML decoders. Missing keys keep their
// defaults; random_corruptions is only read when the count is non-zero.
func ConfigFromOptions(opts map[string]any) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := opts[OptBlurScale]; ok {
		f, err := toFloat(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidOption, OptBlurScale, err)
		}
		cfg.BlurScale = f
	}

	if v, ok := opts[OptFixedCorruptions]; ok {
		list, err := toStrings(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidOption, OptFixedCorruptions, err)
		}
		cfg.FixedCorruptions = list
	}

	if v, ok := opts[OptNumRandomCorruptions]; ok {
		n, err := toInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidOption, OptNumRandomCorruptions, err)
		}
		if n < 0 {
			return Config{}, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidOption, OptNumRandomCorruptions, n)
		}
		cfg.NumRandomCorruptions = n
	}

	if cfg.NumRandomCorruptions == 0 {
		return cfg, nil
	}

	if v, ok := opts[OptRandomCorruptions]; ok {
		list, err := toStrings(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidOption, OptRandomCorruptions, err)
		}
		cfg.RandomCorruptions = list
	}

	return cfg, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}
