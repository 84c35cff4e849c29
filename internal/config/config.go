// Package config loads runtime configuration from
// <root>/.agentjobs/config.yaml with AGENTJOBS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentjobs/agentjobs/internal/yamlfile"
)

const (
	ConfigDirName  = ".agentjobs"
	ConfigFileName = "config.yaml"
	EnvPrefix      = "AGENTJOBS"
)

type Config struct {
	ProjectName   string        `mapstructure:"project_name" yaml:"project_name"`
	TasksDir      string        `mapstructure:"tasks_directory" yaml:"tasks_directory"`
	PromptsDir    string        `mapstructure:"prompts_directory" yaml:"prompts_directory"`
	WebhooksFile  string        `mapstructure:"webhooks_file" yaml:"webhooks_file"`
	Categories    []string      `mapstructure:"categories" yaml:"categories"`
	Server        ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Webhooks      WebhookConfig `mapstructure:"webhooks" yaml:"webhooks"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WebhookConfig struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_name", "AgentJobs Project")
	v.SetDefault("tasks_directory", "tasks")
	v.SetDefault("prompts_directory", "prompts")
	v.SetDefault("webhooks_file", filepath.Join(ConfigDirName, "webhooks.yaml"))
	v.SetDefault("categories", []string{"infrastructure", "strategy_development", "validation", "documentation"})
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8765)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("webhooks.workers", 4)
	v.SetDefault("webhooks.queue_size", 256)
}

// Load reads configuration for the project rooted at root. A missing
// config file is fine: defaults plus environment variables apply.
func Load(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(filepath.Join(root, ConfigDirName, ConfigFileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Write persists the configuration for `agentjobs init`.
func Write(root string, cfg *Config) error {
	dir := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return yamlfile.AtomicWrite(filepath.Join(dir, ConfigFileName), cfg)
}

// ResolveTasksDir resolves the tasks directory against the project root.
func (c *Config) ResolveTasksDir(root string) string {
	if filepath.IsAbs(c.TasksDir) {
		return c.TasksDir
	}
	return filepath.Join(root, c.TasksDir)
}

// ResolveWebhooksFile resolves the webhook list path against the root.
func (c *Config) ResolveWebhooksFile(root string) string {
	if filepath.IsAbs(c.WebhooksFile) {
		return c.WebhooksFile
	}
	return filepath.Join(root, c.WebhooksFile)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
