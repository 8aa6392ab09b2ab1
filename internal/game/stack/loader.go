package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// yamlCatalogFile is the top-level YAML structure for stack catalog files.
type yamlCatalogFile struct {
	Stacks []yamlStack `yaml:"stacks"`
}

// yamlStack is the YAML representation of a stack descriptor.
type yamlStack struct {
	ID                     uint16            `yaml:"id"`
	Name                   string            `yaml:"name"`
	Archive                string            `yaml:"archive"`
	MovieDir               string            `yaml:"movie_dir"`
	MovieRules             []yamlMovieRule   `yaml:"movie_rules"`
	Age                    string            `yaml:"age"`
	Saveable               bool              `yaml:"saveable"`
	Flyby                  string            `yaml:"flyby"`
	Interpreter            string            `yaml:"interpreter"`
	ScriptDir              string            `yaml:"script_dir"`
	ScriptInstructionLimit int               `yaml:"script_instruction_limit"`
	Params                 map[string]string `yaml:"params"`
}

type yamlMovieRule struct {
	Contains string `yaml:"contains"`
	Dir      string `yaml:"dir"`
}

// LoadFromFile reads a stack catalog YAML file.
//
// Precondition: path must point to a valid YAML catalog file.
// Postcondition: Returns the validated descriptors or a non-nil error.
func LoadFromFile(path string) ([]*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack catalog %s: %w", path, err)
	}
	descriptors, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading stack catalog %s: %w", path, err)
	}
	for _, d := range descriptors {
		if d.ScriptDir != "" && !filepath.IsAbs(d.ScriptDir) {
			d.ScriptDir = filepath.Join(filepath.Dir(path), d.ScriptDir)
		}
	}
	return descriptors, nil
}

// LoadFromBytes parses stack descriptors from YAML bytes.
//
// Precondition: data must be YAML conforming to the catalog schema.
// Postcondition: Returns validated descriptors or a non-nil error.
func LoadFromBytes(data []byte) ([]*Descriptor, error) {
	var file yamlCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing stack catalog YAML: %w", err)
	}
	out := make([]*Descriptor, 0, len(file.Stacks))
	for _, ys := range file.Stacks {
		d, err := convertYAMLStack(ys)
		if err != nil {
			return nil, err
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("validating stack: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadCatalog returns the default catalog overridden by the descriptors in
// path. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	descriptors, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return Default().Override(descriptors...)
}

// convertYAMLStack converts the parsed YAML structure into a Descriptor.
func convertYAMLStack(ys yamlStack) (*Descriptor, error) {
	d := &Descriptor{
		ID:               ID(ys.ID),
		Name:             ys.Name,
		Archive:          ys.Archive,
		MovieDir:         strings.Trim(ys.MovieDir, "/"),
		Saveable:         ys.Saveable,
		Flyby:            ys.Flyby,
		Interpreter:      ys.Interpreter,
		ScriptDir:        ys.ScriptDir,
		InstructionLimit: ys.ScriptInstructionLimit,
		Params:           ys.Params,
	}
	if d.Interpreter == "" {
		d.Interpreter = KindGeneric
	}
	if d.Params == nil {
		d.Params = make(map[string]string)
	}
	if ys.Age != "" {
		age, err := state.ParseAge(ys.Age)
		if err != nil {
			return nil, fmt.Errorf("stack %q: %w", ys.Name, err)
		}
		d.Age, d.HasAge = age, true
	}
	for _, r := range ys.MovieRules {
		d.MovieRules = append(d.MovieRules, MovieRule{Contains: r.Contains, Dir: strings.Trim(r.Dir, "/")})
	}
	return d, nil
}
