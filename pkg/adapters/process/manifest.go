package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest file names looked up in a plugin directory, in order.
var ManifestNames = []string{"nodes.yaml", "nodes.yml", "nodes.json"}

// NodeConfig describes one node type backed by an external command.
type NodeConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Category    string            `yaml:"category" json:"category"`
	Description string            `yaml:"description" json:"description"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Operations  []string          `yaml:"operations" json:"operations"`
}

// Manifest represents the structure of nodes.yaml.
type Manifest struct {
	Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
}

// FindManifest returns the manifest path inside dir, if any.
func FindManifest(dir string) (string, bool) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// LoadManifest reads a manifest file (YAML or JSON, by extension).
// Entries without a name or command are rejected.
func LoadManifest(path string) ([]NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	for i, n := range m.Nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("node #%d in %s has no name", i, filepath.Base(path))
		}
		if n.Command == "" {
			return nil, fmt.Errorf("node %s in %s has no command", n.Name, filepath.Base(path))
		}
	}
	return m.Nodes, nil
}
