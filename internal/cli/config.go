package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CoachConfig represents the coach.yaml configuration structure
type CoachConfig struct {
	Version string `yaml:"version"`
	Project string `yaml:"project"`

	Database struct {
		Driver         string `yaml:"driver"`
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Media struct {
		Provider  string `yaml:"provider"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		Endpoint  string `yaml:"endpoint"`
		PathStyle bool   `yaml:"path_style"`
	} `yaml:"media"`

	Mail struct {
		Provider string `yaml:"provider"`
		From     string `yaml:"from"`
	} `yaml:"mail"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func LoadCoachConfig(path string) (*CoachConfig, error) {
	if path == "" {
		locations := []string{"coach.yaml", "coach.yml", ".coach.yaml", ".coach.yml"}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config CoachConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Database.Driver == "" {
		config.Database.Driver = "postgres"
	}
	if config.Database.MaxConnections == 0 {
		config.Database.MaxConnections = 25
	}
	if config.Media.Provider == "" {
		config.Media.Provider = "memory"
	}
	if config.Mail.Provider == "" {
		config.Mail.Provider = "log"
	}
	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}

	return &config, nil
}

func SaveCoachConfig(config *CoachConfig, path string) error {
	if path == "" {
		path = "coach.yaml"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
