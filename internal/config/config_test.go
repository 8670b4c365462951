package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Import.LoadImages {
		t.Error("expected load_images to be true by default")
	}
	if cfg.Import.PackImages {
		t.Error("expected pack_images to be false by default")
	}
	if cfg.Import.SkipYUpCorrection {
		t.Error("expected Y-up correction to be on by default")
	}
	if cfg.Import.ActiveCollection != "" {
		t.Errorf("expected no active collection, got %s", cfg.Import.ActiveCollection)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
import:
  load_images: false
  pack_images: true
  skip_yup_correction: true
  active_collection: "Imported"

logging:
  level: "debug"
  log_file: "import.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.LoadImages {
		t.Error("expected load_images to be false")
	}
	if !cfg.Import.PackImages {
		t.Error("expected pack_images to be true")
	}
	if !cfg.Import.SkipYUpCorrection {
		t.Error("expected skip_yup_correction to be true")
	}
	if cfg.Import.ActiveCollection != "Imported" {
		t.Errorf("expected active collection 'Imported', got %s", cfg.Import.ActiveCollection)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "import.log" {
		t.Errorf("expected log file 'import.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileKeepsUnsetDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("import:\n  pack_images: true\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Import.LoadImages {
		t.Error("load_images default was lost")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
import:
  pack_images: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "gltfimport.yaml")
	if err := os.WriteFile(configPath, []byte("import:\n  pack_images: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find gltfimport.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log file flag",
			args: []string{"-log-file", "run.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "image flags",
			args: []string{"-pack-images", "-no-images"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Import.PackImages {
					t.Error("expected pack_images with -pack-images")
				}
				if cfg.Import.LoadImages {
					t.Error("expected load_images off with -no-images")
				}
			},
		},
		{
			name: "correction and collection flags",
			args: []string{"-no-yup-correction", "-collection", "Props"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Import.SkipYUpCorrection {
					t.Error("expected skip_yup_correction with -no-yup-correction")
				}
				if cfg.Import.ActiveCollection != "Props" {
					t.Errorf("expected collection Props, got %s", cfg.Import.ActiveCollection)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if *cfg != *Default() {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
import:
  active_collection: "FromFile"
logging:
  level: "warn"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-collection", "FromFlag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Collection should come from the flag, not the file
	if cfg.Import.ActiveCollection != "FromFlag" {
		t.Errorf("expected collection FromFlag, got %s", cfg.Import.ActiveCollection)
	}
	// Level has no flag override
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn from file, got %s", cfg.Logging.Level)
	}
}

func TestLoadBadFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if _, err := Load(flags); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Import.PackImages = true
	cfg.Logging.Level = "error"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("reloaded %+v, want %+v", loaded, cfg)
	}
}
