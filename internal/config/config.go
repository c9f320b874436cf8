package config

// Config is the top-level application configuration.
type Config struct {
	Tools   ToolsConfig   `json:"tools" mapstructure:"tools"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	DataDir string        `json:"data_dir" mapstructure:"data_dir"`
}

// ToolsConfig holds tool dispatch configuration.
type ToolsConfig struct {
	// Timeout is the per-candidate execution timeout in seconds.
	Timeout int `json:"timeout" mapstructure:"timeout"`
	// MaxParallel caps the concurrent batch for capability dispatch.
	MaxParallel int `json:"max_parallel" mapstructure:"max_parallel"`
	// PluginDir is scanned for tool plugin binaries.
	PluginDir string `json:"plugin_dir" mapstructure:"plugin_dir"`
	// RemoteEndpoints maps tool names to remote adapter URLs.
	RemoteEndpoints map[string]string `json:"remote_endpoints" mapstructure:"remote_endpoints"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Listen  string `json:"listen" mapstructure:"listen"`
}

// DefaultConfig returns the configuration used when no file exists.
// Missing configuration is never fatal; every consumer degrades to
// these defaults.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Timeout:     30,
			MaxParallel: 3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9102",
		},
	}
}
