package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Rendering falls back to the raw markdown when no renderer could be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// DescribeNodeType formats a node type as markdown for `nodes describe`.
func DescribeNodeType(nt domain.NodeType) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", nt.Name)
	if nt.Category != "" {
		fmt.Fprintf(&sb, "**Category:** `%s`\n\n", nt.Category)
	}
	if nt.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", nt.Description)
	}
	sb.WriteString("## Operations\n\n")
	if len(nt.Operations) == 0 {
		sb.WriteString("_any operation is accepted_\n")
		return sb.String()
	}
	for _, op := range nt.Operations {
		fmt.Fprintf(&sb, "- `%s`\n", op)
	}
	return sb.String()
}
