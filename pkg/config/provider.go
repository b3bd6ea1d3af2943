// Package config provides configuration loading for the telemetry server.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	HTTP     HTTPData     `json:"http"`
	Database DatabaseData `json:"database"`
	Debug    bool         `json:"debug,omitempty"`
}

// HTTPData holds the listen configuration for the REST server
type HTTPData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// DatabaseData holds the configuration for the measurement database
type DatabaseData struct {
	ConnectionString string `json:"connection_string"`
}
