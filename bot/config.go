package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
)

const defaultCompaniesPageSize = 8

// Settings holds bot-specific tunables on top of the shared core config.
type Settings struct {
	// CompaniesPageSize is the number of companies per list page.
	CompaniesPageSize int `yaml:"companies_page_size" envconfig:"COMPANIES_PAGE_SIZE"`
}

// Config aggregates core, database, and bot-level configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	App      Settings            `yaml:"app"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if cfg.App.CompaniesPageSize <= 0 {
		cfg.App.CompaniesPageSize = defaultCompaniesPageSize
	}
	return &cfg, nil
}
