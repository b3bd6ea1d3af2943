package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		HTTP struct {
			ListenAddr string `yaml:"listen_addr"`
			Port       int    `yaml:"port"`
		} `yaml:"http"`
		Database struct {
			ConnectionString string `yaml:"connection_string"`
		} `yaml:"database"`
		Debug bool `yaml:"debug"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	// Convert to our internal format
	config := &ConfigData{
		HTTP: HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
			Port:       yamlConfig.HTTP.Port,
		},
		Database: DatabaseData{
			ConnectionString: yamlConfig.Database.ConnectionString,
		},
		Debug: yamlConfig.Debug,
	}

	return config, nil
}
