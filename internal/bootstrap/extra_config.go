package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reserved keys of an extra-paths section.
const (
	keyBasePath  = "base_path"
	keyIsDefault = "is_default"
)

// CustomNodesCategory is the folder category scanned for plugins.
const CustomNodesCategory = "custom_nodes"

// LoadExtraPathConfig reads an extra_model_paths.yaml file into env.FolderPaths.
//
// Each top-level section may set base_path (env vars and ~ expanded, relative to
// the file's directory) and is_default (prepend rather than append). Every other
// key is a folder category whose value is a newline-separated string or a list.
func LoadExtraPathConfig(path string, env *Environment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read extra paths config: %w", err)
	}

	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse extra paths config: %w", err)
	}

	if env.FolderPaths == nil {
		env.FolderPaths = make(map[string][]string)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}

	for _, name := range sortedKeys(doc) {
		if err := applySection(env, dir, name, doc[name]); err != nil {
			return err
		}
	}
	return nil
}

func applySection(env *Environment, dir, name string, section map[string]any) error {
	if section == nil {
		return nil
	}

	base := ""
	if raw, ok := section[keyBasePath]; ok {
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("section %s: %s must be a string", name, keyBasePath)
		}
		base = expand(s)
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, base)
		}
	}

	isDefault := false
	if raw, ok := section[keyIsDefault]; ok {
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("section %s: %s must be a boolean", name, keyIsDefault)
		}
		isDefault = b
	}

	for _, category := range sortedKeys(section) {
		if category == keyBasePath || category == keyIsDefault {
			continue
		}
		entries, err := folderEntries(section[category])
		if err != nil {
			return fmt.Errorf("section %s, category %s: %w", name, category, err)
		}
		for _, entry := range entries {
			full := expand(entry)
			switch {
			case base != "":
				full = filepath.Join(base, full)
			case !filepath.IsAbs(full):
				full = filepath.Join(dir, full)
			}
			addFolderPath(env, category, filepath.Clean(full), isDefault)
		}
	}
	return nil
}

func folderEntries(v any) ([]string, error) {
	var raw []string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = strings.Split(val, "\n")
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a path, got %T", item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("expected a string or a list, got %T", v)
	}

	out := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// addFolderPath keeps each directory once per category. A default path moves to the front.
func addFolderPath(env *Environment, category, path string, isDefault bool) {
	paths := env.FolderPaths[category]
	for i, p := range paths {
		if p != path {
			continue
		}
		if isDefault && i != 0 {
			paths = append(paths[:i], paths[i+1:]...)
			env.FolderPaths[category] = append([]string{path}, paths...)
		}
		return
	}
	if isDefault {
		env.FolderPaths[category] = append([]string{path}, paths...)
		return
	}
	env.FolderPaths[category] = append(paths, path)
}

func expand(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
