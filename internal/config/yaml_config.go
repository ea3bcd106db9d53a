package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"briefdesk/internal/models"
)

// GenerationConfig holds content-generation defaults loaded from YAML.
// Word-count targets vary by search intent, which is easier to maintain in a
// config file than in env vars.
type GenerationConfig struct {
	DefaultTargetWordCount int            `yaml:"default_target_word_count"`
	IntentWordCounts       map[string]int `yaml:"intent_word_counts"`
	DefaultSearchIntent    string         `yaml:"default_search_intent"`
	DefaultPriority        int            `yaml:"default_priority"`
}

// LoadGenerationConfig loads the YAML generation defaults file.
// Returns built-in defaults without error if the file doesn't exist.
func LoadGenerationConfig(path string) (*GenerationConfig, error) {
	cfg := defaultGenerationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.DefaultTargetWordCount <= 0 {
		cfg.DefaultTargetWordCount = defaultWordCount
	}
	if cfg.DefaultSearchIntent == "" {
		cfg.DefaultSearchIntent = models.IntentInformational
	}
	if cfg.DefaultPriority < 1 || cfg.DefaultPriority > 5 {
		cfg.DefaultPriority = defaultPriority
	}

	return cfg, nil
}

const (
	defaultWordCount = 1500
	defaultPriority  = 3
)

func defaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		DefaultTargetWordCount: defaultWordCount,
		DefaultSearchIntent:    models.IntentInformational,
		DefaultPriority:        defaultPriority,
	}
}

// WordCountFor resolves the target word count for a search intent, falling
// back to the global default.
func (g *GenerationConfig) WordCountFor(intent string) int {
	if g == nil {
		return defaultWordCount
	}
	if n, ok := g.IntentWordCounts[intent]; ok && n > 0 {
		return n
	}
	return g.DefaultTargetWordCount
}
