package config

import (
	"errors"
	"strings"
)

// Parse overlays JSONC content onto base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, warnings, err := decode(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	return validated(cfg, warnings)
}

func decode(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return base, nil, nil
	}
	if trimmed[0] != '{' {
		return Config{}, nil, errors.New("config must be a JSONC object")
	}
	return decodeJSONC(content, base)
}

func validated(cfg Config, warnings []Warning) (Config, []Warning, error) {
	extra, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, extra...), nil
}
