package workflow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/nodeflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultWorkflow []byte

// Load reads a workflow file, JSON by extension and YAML otherwise, and validates it.
func Load(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	wf, err := Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if wf.Name == "" {
		wf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return wf, nil
}

// Parse decodes and validates a workflow document.
func Parse(data []byte, isJSON bool) (*domain.Workflow, error) {
	var wf domain.Workflow
	if isJSON {
		if err := json.Unmarshal(data, &wf); err != nil {
			return nil, fmt.Errorf("failed to parse workflow: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return nil, fmt.Errorf("failed to parse workflow: %w", err)
		}
	}
	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Default returns the embedded Flux text-to-image workflow.
func Default() *domain.Workflow {
	wf, err := Parse(defaultWorkflow, false)
	if err != nil {
		panic(fmt.Sprintf("embedded workflow is invalid: %v", err))
	}
	return wf
}
