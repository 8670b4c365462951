package config

import "flag"

// Flags holds the command-line overrides registered on a flag set.
type Flags struct {
	config     *string
	debug      *bool
	logFile    *string
	packImages *bool
	noImages   *bool
	noYUp      *bool
	collection *string
}

// RegisterFlags adds the config flags to fs. Parse fs before calling Load.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		logFile:    fs.String("log-file", "", "Write logs to this file"),
		packImages: fs.Bool("pack-images", false, "Pack image data instead of linking files"),
		noImages:   fs.Bool("no-images", false, "Do not create images"),
		noYUp:      fs.Bool("no-yup-correction", false, "Keep glTF Y-up axes"),
		collection: fs.String("collection", "", "Collection that receives imported objects"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.packImages {
		cfg.Import.PackImages = true
	}
	if *f.noImages {
		cfg.Import.LoadImages = false
	}
	if *f.noYUp {
		cfg.Import.SkipYUpCorrection = true
	}
	if *f.collection != "" {
		cfg.Import.ActiveCollection = *f.collection
	}
}
