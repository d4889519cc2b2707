package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models flowdeck.yml.
type Config struct {
	Workspace struct {
		Name string `yaml:"name"`
	} `yaml:"workspace"`
	Assistant struct {
		AssigneePlaceholder string `yaml:"assignee_placeholder"`
		DefaultTaskName     string `yaml:"default_task_name"`
		ResponseDelayMS     int    `yaml:"response_delay_ms"`
	} `yaml:"assistant"`
	Board struct {
		Region Region `yaml:"region"`
	} `yaml:"board"`
	Persistence struct {
		LatencyMS int `yaml:"latency_ms"`
	} `yaml:"persistence"`
	Server struct {
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

// Region bounds where newly created tasks are dropped on the board.
type Region struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// ResponseDelay returns the simulated assistant latency.
func (c *Config) ResponseDelay() time.Duration {
	return time.Duration(c.Assistant.ResponseDelayMS) * time.Millisecond
}

// PersistenceLatency returns the simulated backend latency.
func (c *Config) PersistenceLatency() time.Duration {
	return time.Duration(c.Persistence.LatencyMS) * time.Millisecond
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Workspace.Name == "" {
		return fmt.Errorf("config.workspace.name is required")
	}
	if c.Assistant.AssigneePlaceholder == "" {
		return fmt.Errorf("config.assistant.assignee_placeholder is required")
	}
	if c.Assistant.DefaultTaskName == "" {
		return fmt.Errorf("config.assistant.default_task_name is required")
	}
	if c.Assistant.ResponseDelayMS < 0 {
		return fmt.Errorf("config.assistant.response_delay_ms must not be negative")
	}
	if c.Persistence.LatencyMS < 0 {
		return fmt.Errorf("config.persistence.latency_ms must not be negative")
	}
	r := c.Board.Region
	if r.MaxX <= r.MinX || r.MaxY <= r.MinY {
		return fmt.Errorf("config.board.region must span a positive area")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "flowdeck.yml")
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run flowdeck config init", Path(workspace))
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default Config for a workspace name.
func Default(name string) *Config {
	cfg, _ := FromYAML([]byte(GenerateDefault(name)))
	return cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(name string) string {
	return fmt.Sprintf(defaultTemplate, name)
}

const defaultTemplate = `workspace:
  name: %s

assistant:
  # Assignee given to tasks created through the assistant.
  assignee_placeholder: Unassigned
  # Name used when a create-task command carries no usable name.
  default_task_name: New task
  # Simulated thinking delay before the assistant responds.
  response_delay_ms: 600

board:
  # Newly created tasks land at a random position inside this region.
  region:
    min_x: 80
    min_y: 80
    max_x: 720
    max_y: 480

persistence:
  # Artificial latency on backend reads/writes.
  latency_ms: 150

server:
  base_path: /v0
`
