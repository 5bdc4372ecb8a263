package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hanpama/fieldplan/internal/schema"
)

// RegistrySet is a built registry plus the document paths it came from.
type RegistrySet struct {
	Registry *schema.Registry
	Paths    []string
}

// LoadDir discovers every .yaml/.yml schema document under root, merges
// them in path order and builds a validated registry.
func LoadDir(root string) (*RegistrySet, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(d.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover schema documents: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no schema documents under %q", root)
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	reg, err := Build(docs...)
	if err != nil {
		return nil, err
	}
	return &RegistrySet{Registry: reg, Paths: paths}, nil
}
