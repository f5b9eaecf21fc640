package options

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadFile reads saved options from a YAML file. Fields missing from the
// file keep their Default values; a missing file yields Default.
func LoadFile(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No saved options, using defaults")
			return opts, nil
		}
		return Options{}, fmt.Errorf("failed to read options file: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid options file %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Bool("horizontal", opts.Horizontal).
		Bool("vertical", opts.Vertical).
		Uint32("maxd", opts.MaxD).
		Msg("Loaded saved options")

	return opts, nil
}

// SaveFile writes options as YAML, creating or truncating path.
func SaveFile(path string, opts Options) error {
	data, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write options file: %w", err)
	}
	return nil
}
