package cache_rules

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// LoadRulesConfig loads directive rules from a YAML file
func LoadRulesConfig(rulesPath string, logger *zap.Logger) (*RulesConfig, error) {
	logger.Info("Loading cache rules", zap.String("path", rulesPath))

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache rules file: %w", err)
	}

	config, err := ParseRulesConfig(data)
	if err != nil {
		return nil, err
	}

	logger.Info("Cache rules loaded", zap.Int("rules", len(config.Rules)))
	return config, nil
}

// ParseRulesConfig decodes and validates rules. Unknown fields are rejected.
func ParseRulesConfig(data []byte) (*RulesConfig, error) {
	var config RulesConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML cache rules: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("cache rules validation failed: %w", err)
	}
	return &config, nil
}

// validateConfig checks struct constraints and rule name uniqueness
func validateConfig(config *RulesConfig) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(config.Rules))
	for _, rule := range config.Rules {
		if _, exists := names[rule.Name]; exists {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		names[rule.Name] = struct{}{}
	}
	return nil
}
