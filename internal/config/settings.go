package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/viper"
)

// Settings persists the runtime settings (zip mode, transitions) in a small
// YAML file. Values absent from the file fall back to the engine section.
// Settings is safe for concurrent use.
type Settings struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// OpenSettings reads the settings file at path. A missing file is not an
// error; the defaults then come from engine.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a Settings writing back to path, or an error when
// the file exists but cannot be parsed.
func OpenSettings(path string, engine EngineConfig) (*Settings, error) {
	if path == "" {
		return nil, errors.New("settings file path must not be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("zip_mode", engine.ZipMode)
	v.SetDefault("transitions", engine.Transitions)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return &Settings{v: v, path: path}, nil
}

// RuntimeSettings returns the stored zip mode and transitions flags.
func (s *Settings) RuntimeSettings() (zipMode, transitions bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetBool("zip_mode"), s.v.GetBool("transitions")
}

// SaveRuntimeSettings stores the flags and rewrites the settings file.
//
// Postcondition: The file at the settings path holds both keys.
func (s *Settings) SaveRuntimeSettings(zipMode, transitions bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set("zip_mode", zipMode)
	s.v.Set("transitions", transitions)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
