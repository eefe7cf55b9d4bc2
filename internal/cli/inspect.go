package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/aretw0/nodeflow/internal/config"
	"github.com/aretw0/nodeflow/internal/logging"
	"github.com/aretw0/nodeflow/internal/presentation/graph"
	"github.com/aretw0/nodeflow/internal/presentation/tui"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/pathfind"
	"github.com/aretw0/nodeflow/pkg/registry"
)

// loadRegistry bootstraps and discovers node types without running anything.
func loadRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	drv, closer, err := createDriver(cfg, logging.NewNop(), false)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	defer drv.Close()

	if err := drv.LoadPlugins(ctx); err != nil {
		return nil, err
	}
	return drv.Registry(), nil
}

// ListNodes prints every registered node type.
func ListNodes(ctx context.Context, cfg *config.Config, w io.Writer) error {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tSOURCE")
	for _, nt := range reg.Types() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", nt.Name, nt.Category, nt.Source)
	}
	return tw.Flush()
}

// DescribeNode renders one node type as markdown.
func DescribeNode(ctx context.Context, cfg *config.Config, name string, w io.Writer, render func(string) (string, error)) error {
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	nt, ok := reg.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeTypeNotFound, name)
	}

	md := tui.DescribeNodeType(nt)
	if render != nil {
		if md, err = render(md); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, md)
	return err
}

// FindPath prints the nearest ancestor of from that contains name.
// It returns false when no ancestor does.
func FindPath(name, from string, w io.Writer) (bool, error) {
	path, found, err := pathfind.Find(name, from)
	if err != nil {
		return false, err
	}
	if found {
		fmt.Fprintln(w, path)
	}
	return found, nil
}

// Graph prints the Mermaid diagram of a workflow, highlighting runID when set.
func Graph(ctx context.Context, cfg *config.Config, path, runID string, w io.Writer) error {
	wf, err := loadWorkflow(path, cfg)
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if runID != "" {
		runs, _, closer, err := createRunStore(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()
		rec, err := runs.Load(ctx, runID)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromRun(rec)
	}

	_, err = io.WriteString(w, graph.GenerateMermaid(wf, overlay))
	return err
}

// History lists stored run records, most recent first.
func History(ctx context.Context, cfg *config.Config, w io.Writer) error {
	runs, _, closer, err := createRunStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ids, err := runs.List(ctx)
	if err != nil {
		return err
	}

	records := make([]*domain.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := runs.Load(ctx, id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b *domain.RunRecord) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWORKFLOW\tSTATUS\tSTARTED\tARTIFACTS")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			rec.ID, rec.Workflow, rec.Status, rec.StartedAt.Format("2006-01-02 15:04:05"), len(rec.Artifacts))
	}
	return tw.Flush()
}
