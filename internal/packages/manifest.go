// Package packages implements El's dependency manager: a JSON manifest
// listing the packages a program needs, a local sqlite-indexed cache of
// downloaded packages, and an HTTP installer that fills the cache.
package packages

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ManifestFile is the manifest's conventional filename.
const ManifestFile = "el.pkg.json"

// Manifest describes a program's package requirements. Dependencies use
// "name@version" specs.
type Manifest struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}
	if m.Name == "" {
		return nil, errors.Errorf("manifest %s has no name", path)
	}
	for _, dep := range m.Dependencies {
		if _, _, err := SplitSpec(dep); err != nil {
			return nil, errors.Wrapf(err, "manifest %s", path)
		}
	}
	return &m, nil
}

// Save writes the manifest as indented JSON.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	return errors.Wrapf(os.WriteFile(path, append(data, '\n'), 0o644), "writing manifest %s", path)
}

// SplitSpec splits a "name@version" dependency spec.
func SplitSpec(spec string) (name, version string, err error) {
	at := strings.LastIndex(spec, "@")
	if at <= 0 || at == len(spec)-1 {
		return "", "", errors.Errorf("invalid dependency spec %q (want name@version)", spec)
	}
	return spec[:at], spec[at+1:], nil
}
