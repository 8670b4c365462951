// Package config handles import configuration loading and management.
package config

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds scene import settings.
type ImportConfig struct {
	LoadImages        bool   `yaml:"load_images"`
	PackImages        bool   `yaml:"pack_images"`         // Store image bytes instead of linking files
	SkipYUpCorrection bool   `yaml:"skip_yup_correction"` // Debug: leave objects Y-up
	ActiveCollection  string `yaml:"active_collection"`   // Child collection receiving new objects
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			LoadImages:        true,
			PackImages:        false,
			SkipYUpCorrection: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
