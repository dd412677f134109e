// Package profile loads named engagement profiles from YAML. Each profile is
// decoded over engage.DefaultConfig, so a profile only lists what it changes.
package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/standoff/internal/engage"
)

//go:embed profiles.yaml
var builtinYAML []byte

// ErrUnknownProfile is returned by Get for a name that is not in the set.
var ErrUnknownProfile = errors.New("unknown profile")

type document struct {
	Default  string               `yaml:"default"`
	Profiles map[string]yaml.Node `yaml:"profiles"`
}

// Set is an immutable collection of named configs.
type Set struct {
	def    string
	byName map[string]engage.Config
}

// Parse decodes a profile document. Unknown keys are rejected and every
// profile must pass engage.Config.Validate.
func Parse(data []byte) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("parse profiles: %w: no profiles defined", engage.ErrInvalidConfig)
	}

	s := &Set{def: doc.Default, byName: make(map[string]engage.Config, len(doc.Profiles))}
	for name, node := range doc.Profiles {
		cfg, err := decodeProfile(node)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		s.byName[name] = cfg
	}
	if s.def == "" {
		s.def = s.Names()[0]
	}
	if _, ok := s.byName[s.def]; !ok {
		return nil, fmt.Errorf("default profile %q: %w", s.def, ErrUnknownProfile)
	}
	return s, nil
}

func decodeProfile(node yaml.Node) (engage.Config, error) {
	cfg := engage.DefaultConfig()
	// An empty mapping ({}) or a bare key keeps the defaults.
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null") {
		return cfg, cfg.Validate()
	}
	raw, err := yaml.Marshal(&node)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", engage.ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Load reads and parses a profile file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied profile path
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return Parse(data)
}

// Builtin returns the embedded profiles.
func Builtin() *Set {
	s, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded profiles: %v", err))
	}
	return s
}

// LoadOrBuiltin loads path, or returns the built-in set when path is empty.
func LoadOrBuiltin(path string) (*Set, error) {
	if path == "" {
		return Builtin(), nil
	}
	return Load(path)
}

// Get returns the named profile. An empty name selects the default.
func (s *Set) Get(name string) (engage.Config, error) {
	if name == "" {
		name = s.def
	}
	cfg, ok := s.byName[name]
	if !ok {
		return engage.Config{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return cfg, nil
}

// Default is the name of the default profile.
func (s *Set) Default() string { return s.def }

// Names returns the profile names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
