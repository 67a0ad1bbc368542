package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"storagevoice/internal/logger"
)

// ModelConfig selects and tunes the language-understanding backend.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // openai, ollama, ark, deepseek
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// PipelineConfig tunes the interpretation and execution pipeline.
type PipelineConfig struct {
	// ChunkSize is how many ops execute per batch before speaking the summary.
	ChunkSize int `yaml:"chunk_size"`
	// MatchThreshold is the minimum similarity score for a definite match.
	MatchThreshold float64 `yaml:"match_threshold"`
	// SuggestionCount caps disambiguation candidates offered to the user.
	SuggestionCount int `yaml:"suggestion_count"`
	// NoisePhrases are transcript signatures treated as "no answer".
	NoisePhrases []string `yaml:"noise_phrases"`
}

// StoreConfig selects the item/box store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory or redis
}

// VoiceConfig selects the speech collaborators.
type VoiceConfig struct {
	Backend   string `yaml:"backend"` // console or openai
	Voice     string `yaml:"voice"`
	PlayCmd   string `yaml:"play_cmd"`
	RecordCmd string `yaml:"record_cmd"`
}

// EmbeddingConfig selects the embedder for the similarity index.
type EmbeddingConfig struct {
	Model string `yaml:"model"`
}

// Config is the full file-backed configuration.
type Config struct {
	Log       logger.Config   `yaml:"log"`
	Model     ModelConfig     `yaml:"model"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Store     StoreConfig     `yaml:"store"`
	Voice     VoiceConfig     `yaml:"voice"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// Secrets come from the environment, never the config file.
type Secrets struct {
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	ArkAPIKey      string `envconfig:"ARK_API_KEY"`
	DeepseekAPIKey string `envconfig:"DEEPSEEK_API_KEY"`
	RedisURL       string `envconfig:"REDIS_URL"`
	OllamaHost     string `envconfig:"OLLAMA_HOST"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

// LoadSecrets reads API keys and endpoints from the environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &s, nil
}

func (c *Config) applyDefaults() {
	if c.Model.Provider == "" {
		c.Model.Provider = "openai"
	}
	if c.Model.Name == "" {
		c.Model.Name = "gpt-4o-mini"
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = 1500
	}
	if c.Pipeline.ChunkSize == 0 {
		c.Pipeline.ChunkSize = 5
	}
	if c.Pipeline.MatchThreshold == 0 {
		c.Pipeline.MatchThreshold = 0.80
	}
	if c.Pipeline.SuggestionCount == 0 {
		c.Pipeline.SuggestionCount = 3
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Voice.Backend == "" {
		c.Voice.Backend = "console"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
}
