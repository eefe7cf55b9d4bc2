package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	FailedStep   string
}

// OverlayFromRun marks every step recorded in run, and the step that failed.
func OverlayFromRun(run *domain.RunRecord) *GraphOverlay {
	if run == nil {
		return nil
	}
	o := &GraphOverlay{}
	for _, s := range run.Steps {
		o.VisitedSteps = append(o.VisitedSteps, s.ID)
		if s.Error != "" {
			o.FailedStep = s.ID
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the step wiring in wf.
// Shapes:
// - Setup step: ([Stadium])
// - Body step: [Rectangle]
// - Seeded inputs add a ((seed)) source.
// Edges come from From references and are labelled "index -> input".
func GenerateMermaid(wf *domain.Workflow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	writeSteps := func(title string, steps []domain.Step, opener, closer string) {
		if len(steps) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("    subgraph %s\n", title))
		for _, step := range steps {
			nodeType := step.Instance
			if inst, ok := wf.Instance(step.Instance); ok {
				nodeType = inst.Type
			}
			sb.WriteString(fmt.Sprintf("        %s%s\"%s <br/> %s.%s\"%s\n",
				sanitizeMermaidID(step.ID), opener, step.ID, nodeType, step.Operation, closer))
		}
		sb.WriteString("    end\n")
	}

	writeSteps("setup", wf.Setup, "([", "])")
	title := "body"
	if n := wf.RunCount(); n > 1 {
		title = fmt.Sprintf("body [\"body x%d\"]", n)
	}
	writeSteps(title, wf.Body, "[", "]")

	for _, step := range append(append([]domain.Step{}, wf.Setup...), wf.Body...) {
		safeID := sanitizeMermaidID(step.ID)
		for _, name := range sortedInputs(step.Inputs) {
			in := step.Inputs[name]
			switch {
			case in.From != nil:
				sb.WriteString(fmt.Sprintf("    %s -- \"%d -> %s\" --> %s\n",
					sanitizeMermaidID(in.From.Step), in.From.Index, escapeLabel(name), safeID))
			case in.Seed:
				seedID := safeID + "_" + sanitizeMermaidID(name) + "_seed"
				sb.WriteString(fmt.Sprintf("    %s((\"seed\")) -.-> %s\n", seedID, safeID))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || visited[safeID] || id == overlay.FailedStep {
				continue
			}
			visited[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
		}
		if overlay.FailedStep != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.FailedStep)))
		}
	}

	return sb.String()
}

func sortedInputs(inputs map[string]domain.Input) []string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
