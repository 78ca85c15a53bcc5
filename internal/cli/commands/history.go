package commands

import (
	"fmt"
	"time"

	"github.com/jakubpeleska/relbench/internal/cli/output"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [build-id]",
		Short: "Show recorded graph builds",
		Long: `List the most recent graph builds recorded in the state database.

With a build id, show that build and the size of each of its edge groups.`,
		Example: `  # Show the last 10 builds
  relbench history

  # Show every build
  relbench history --limit 0

  # Show one build with its edge groups
  relbench history 3f1c9a52-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryBuild(cmd, args[0])
			}
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of builds to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.ListBuilds(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	out := output.HistoryOutput{Builds: make([]output.BuildInfo, 0, len(builds))}
	for _, b := range builds {
		out.Builds = append(out.Builds, buildInfo(b))
	}

	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	title := fmt.Sprintf("Builds (%d)", len(out.Builds))
	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
	} else {
		r.Header(1, title)
	}
	if len(out.Builds) == 0 {
		r.Println("No builds recorded yet. Run 'relbench build' first.")
		return nil
	}

	rows := make([][]any, 0, len(out.Builds))
	for _, b := range out.Builds {
		rows = append(rows, []any{b.ID, b.Dataset, b.Status, b.EdgeIndex, b.NumNodes, b.NumEdges, b.StartedAt})
	}
	r.Table([]string{"ID", "Dataset", "Status", "Edge Index", "Nodes", "Edges", "Started"}, rows)
	return nil
}

func runHistoryBuild(cmd *cobra.Command, id string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	b, err := store.GetBuild(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get build %s: %w", id, err)
	}
	stats, err := store.GetEdgeGroups(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get edge groups of build %s: %w", id, err)
	}

	info := buildInfo(b)
	out := output.HistoryOutput{Builds: []output.BuildInfo{info}, EdgeGroups: []output.EdgeGroupInfo{}}
	for _, s := range stats {
		out.EdgeGroups = append(out.EdgeGroups, edgeGroupInfo(s))
	}

	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	title := "Build " + info.ID
	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
		r.Println(output.FormatKeyValue("Dataset", info.Dataset))
		r.Println(output.FormatKeyValue("Status", info.Status))
		r.Println(output.FormatKeyValue("Edge Index", info.EdgeIndex))
		r.Println(output.FormatKeyValue("Started", info.StartedAt))
		if info.CompletedAt != "" {
			r.Println(output.FormatKeyValue("Completed", info.CompletedAt))
		}
		if info.Error != "" {
			r.Println(output.FormatKeyValue("Error", info.Error))
		}
		r.Println("")
	} else {
		r.Header(1, title)
		r.StatusLine(info.Dataset, info.Status, info.StartedAt)
		if info.Error != "" {
			r.Println("  " + r.Styles().Error.Render(info.Error))
		}
		r.Println("")
	}

	renderSection(r, "Edge Groups")
	if len(out.EdgeGroups) == 0 {
		r.Println("No edge groups recorded.")
		return nil
	}
	rows := make([][]any, 0, len(out.EdgeGroups))
	for _, e := range out.EdgeGroups {
		rows = append(rows, []any{e.Src, e.Rel, e.Dst, e.NumEdges})
	}
	r.Table([]string{"Source", "Relation", "Target", "Edges"}, rows)
	return nil
}

func buildInfo(b *core.Build) output.BuildInfo {
	info := output.BuildInfo{
		ID:         b.ID,
		Dataset:    b.Dataset,
		EdgeIndex:  b.EdgeIndex,
		Status:     string(b.Status),
		StartedAt:  b.StartedAt.UTC().Format(time.RFC3339),
		NodeGroups: b.Summary.NodeGroups,
		EdgeGroups: b.Summary.EdgeGroups,
		NumNodes:   b.Summary.NumNodes,
		NumEdges:   b.Summary.NumEdges,
		Error:      b.Error,
	}
	if b.CompletedAt != nil {
		info.CompletedAt = b.CompletedAt.UTC().Format(time.RFC3339)
	}
	return info
}
