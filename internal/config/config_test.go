package config

import (
	"os"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Workers: WorkersConfig{
					ScriptsDir: "backend",
				},
				Paths: PathsConfig{
					Sessions: "data/sessions",
				},
			},
			wantErr: false,
		},
		{
			name: "missing scripts dir",
			config: Config{
				Paths: PathsConfig{
					Sessions: "data/sessions",
				},
			},
			wantErr: true,
		},
		{
			name: "missing sessions path",
			config: Config{
				Workers: WorkersConfig{
					ScriptsDir: "backend",
				},
			},
			wantErr: true,
		},
		{
			name: "ingest enabled without input dir",
			config: Config{
				Workers: WorkersConfig{
					ScriptsDir: "backend",
				},
				Paths: PathsConfig{
					Sessions: "data/sessions",
				},
				Ingest: IngestConfig{
					Enabled: true,
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Workers: WorkersConfig{ScriptsDir: "backend"},
		Paths:   PathsConfig{Sessions: "data/sessions"},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Chunking.ThresholdWords != 600 {
		t.Errorf("ThresholdWords = %d, want 600", cfg.Chunking.ThresholdWords)
	}
	if cfg.FollowUp.TimeoutSecs != 90 {
		t.Errorf("TimeoutSecs = %d, want 90", cfg.FollowUp.TimeoutSecs)
	}
	if cfg.Workers.Summarizer.ChunkWords != 800 {
		t.Errorf("ChunkWords = %d, want 800", cfg.Workers.Summarizer.ChunkWords)
	}
	if cfg.Workers.Recorder.DeviceIndex != -1 {
		t.Errorf("DeviceIndex = %d, want -1", cfg.Workers.Recorder.DeviceIndex)
	}
	if cfg.Workers.Python != "python3" {
		t.Errorf("Python = %q, want python3", cfg.Workers.Python)
	}
}

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
workers:
  python: "python3"
  scripts_dir: "backend"
  recorder:
    model: "small.en"
  summarizer:
    model_path: "models/llama.gguf"

paths:
  sessions: "data/sessions"

chunking:
  threshold_words: 450

logging:
  level: "debug"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test loading
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers.Summarizer.ModelPath != "models/llama.gguf" {
		t.Errorf("ModelPath = %v, want %v", cfg.Workers.Summarizer.ModelPath, "models/llama.gguf")
	}

	if cfg.Chunking.ThresholdWords != 450 {
		t.Errorf("ThresholdWords = %v, want 450", cfg.Chunking.ThresholdWords)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
