// Package manifest reads license declarations from Cargo manifests.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type cargoManifest struct {
	Package *struct {
		License any `toml:"license"`
	} `toml:"package"`
	Workspace *struct {
		Package *struct {
			License string `toml:"license"`
		} `toml:"package"`
	} `toml:"workspace"`
}

// CargoReader implements domain.ManifestReader for Cargo.toml files.
type CargoReader struct{}

func New() *CargoReader { return &CargoReader{} }

// License returns package.license from the manifest at path.
// The boolean is false when the package declares no license, and for
// virtual workspace manifests, which have no [package] table.
//
// A license inherited with `license.workspace = true` resolves to
// [workspace.package].license of the nearest enclosing workspace manifest,
// and is absent when no such manifest declares one.
func (r *CargoReader) License(path string) (string, bool, error) {
	m, err := readManifest(path)
	if err != nil {
		return "", false, err
	}
	if m.Package == nil {
		return "", false, nil
	}

	switch v := m.Package.License.(type) {
	case nil:
		return "", false, nil
	case string:
		license := strings.TrimSpace(v)
		return license, license != "", nil
	case map[string]any:
		if inherit, _ := v["workspace"].(bool); inherit {
			return inheritedLicense(path, m)
		}
		return "", false, fmt.Errorf("parsing %s: package.license table must set workspace = true", path)
	default:
		return "", false, fmt.Errorf("parsing %s: package.license has unsupported type %T", path, v)
	}
}

// inheritedLicense walks up from the manifest at path to the first manifest
// with a [workspace] table, the manifest itself included.
func inheritedLicense(path string, own *cargoManifest) (string, bool, error) {
	if own.Workspace != nil {
		return workspaceLicense(own)
	}

	name := filepath.Base(path)
	dir := filepath.Dir(filepath.Clean(path))
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent

		m, err := readManifest(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", false, err
		}
		if m.Workspace != nil {
			return workspaceLicense(m)
		}
	}
}

func workspaceLicense(m *cargoManifest) (string, bool, error) {
	if m.Workspace.Package == nil {
		return "", false, nil
	}
	license := strings.TrimSpace(m.Workspace.Package.License)
	return license, license != "", nil
}

func readManifest(path string) (*cargoManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}
