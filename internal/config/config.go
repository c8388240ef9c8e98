package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Workers  WorkersConfig  `yaml:"workers"`
	Paths    PathsConfig    `yaml:"paths"`
	Chunking ChunkingConfig `yaml:"chunking"`
	FollowUp FollowUpConfig `yaml:"followup"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type WorkersConfig struct {
	Python      string            `yaml:"python"`
	ScriptsDir  string            `yaml:"scripts_dir"`
	Recorder    RecorderConfig    `yaml:"recorder"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
}

type RecorderConfig struct {
	Model       string `yaml:"model"`
	DeviceIndex int    `yaml:"device_index"`
}

type TranscriberConfig struct {
	Model string `yaml:"model"`
}

type SummarizerConfig struct {
	ModelPath  string `yaml:"model_path"`
	ChunkWords int    `yaml:"chunk_words"`
	ContextLen int    `yaml:"context_len"`
	MinWords   int    `yaml:"min_words"`
}

type PathsConfig struct {
	Sessions string `yaml:"sessions"`
	Models   string `yaml:"models"`
}

type ChunkingConfig struct {
	ThresholdWords int `yaml:"threshold_words"`
}

type FollowUpConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type IngestConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Input         string `yaml:"input"`
	Archived      string `yaml:"archived"`
	Temp          string `yaml:"temp"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers.ScriptsDir == "" {
		return fmt.Errorf("workers.scripts_dir is required")
	}
	if c.Paths.Sessions == "" {
		return fmt.Errorf("paths.sessions is required")
	}

	if c.Workers.Python == "" {
		c.Workers.Python = "python3"
	}
	if c.Workers.Recorder.Model == "" {
		c.Workers.Recorder.Model = "small.en"
	}
	if c.Workers.Recorder.DeviceIndex == 0 {
		// 0 is a valid PyAudio index but yaml zero-value is ambiguous;
		// -1 means "use the system default device".
		c.Workers.Recorder.DeviceIndex = -1
	}
	if c.Workers.Transcriber.Model == "" {
		c.Workers.Transcriber.Model = "small.en"
	}
	if c.Workers.Summarizer.ChunkWords == 0 {
		c.Workers.Summarizer.ChunkWords = 800
	}
	if c.Workers.Summarizer.ContextLen == 0 {
		c.Workers.Summarizer.ContextLen = 2048
	}
	if c.Workers.Summarizer.MinWords == 0 {
		c.Workers.Summarizer.MinWords = 20
	}
	if c.Chunking.ThresholdWords == 0 {
		c.Chunking.ThresholdWords = 600
	}
	if c.FollowUp.TimeoutSecs == 0 {
		c.FollowUp.TimeoutSecs = 90
	}
	if c.FollowUp.Temperature == 0 {
		c.FollowUp.Temperature = 0.7
	}
	if c.FollowUp.MaxTokens == 0 {
		c.FollowUp.MaxTokens = 320
	}
	if c.Ingest.Enabled {
		if c.Ingest.Input == "" {
			return fmt.Errorf("ingest.input is required when ingest is enabled")
		}
		if c.Ingest.Archived == "" {
			c.Ingest.Archived = "data/archived"
		}
		if c.Ingest.Temp == "" {
			c.Ingest.Temp = "data/temp"
		}
		if c.Ingest.MaxConcurrent == 0 {
			c.Ingest.MaxConcurrent = 2
		}
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8756"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
