package commands

import (
	"fmt"

	"github.com/jakubpeleska/relbench/internal/builder"
	"github.com/jakubpeleska/relbench/internal/cli/output"
	"github.com/jakubpeleska/relbench/internal/dataset"
	"github.com/jakubpeleska/relbench/internal/state"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/jakubpeleska/relbench/pkg/frame"
	"github.com/jakubpeleska/relbench/pkg/hetero"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	seed     bool
	noRecord bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the heterogeneous graph of a dataset",
		Long: `Load the tables named in the dataset descriptor and turn them into a
heterogeneous graph: one node group per table and a forward (f2p::<column>)
and reverse (p2f::<column>) edge group per foreign key.

Primary and foreign keys not declared in the descriptor are read from the
database constraints. Each build is recorded in the state database.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Build the dataset in ./dataset.yaml
  relbench build

  # Load seeds first, then build with raw key indexing
  relbench build --seed --edge-index key

  # Build without recording to the state database
  relbench build --no-record --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.seed, "seed", false, "Load CSV seeds into the target before building")
	cmd.Flags().BoolVar(&opts.noRecord, "no-record", false, "Do not record the build in the state database")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	ctx := cmd.Context()

	if err := cfg.Validate(); err != nil {
		return err
	}
	desc, err := loadDescriptor(cfg)
	if err != nil {
		return err
	}

	a, err := openAdapter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if opts.seed {
		if _, err := dataset.Seed(ctx, a, cfg.SeedsDir, logger); err != nil {
			return err
		}
	}

	db, err := dataset.Load(ctx, a, desc, logger)
	if err != nil {
		return err
	}

	var (
		store *state.SQLiteStore
		rec   *core.Build
	)
	if !opts.noRecord {
		store, err = openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		rec, err = store.CreateBuild(ctx, desc.Name, cfg.EdgeIndex)
		if err != nil {
			return fmt.Errorf("failed to record build: %w", err)
		}
	}

	b, err := builder.New(builder.Config{
		EdgeIndex:    builder.EdgeIndexMode(cfg.EdgeIndex),
		Parallelism:  cfg.Parallelism,
		Materializer: frame.NewMaterializer(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	g := hetero.NewGraph()
	if err := b.Build(ctx, db, g); err != nil {
		if rec != nil {
			if cerr := store.CompleteBuild(ctx, rec.ID, core.BuildStatusFailed, core.BuildSummary{}, err.Error()); cerr != nil {
				logger.Warn("failed to record build failure", "build_id", rec.ID, "error", cerr)
			}
		}
		return fmt.Errorf("failed to build graph: %w", err)
	}

	out := buildOutput(desc.Name, cfg.EdgeIndex, g)
	if rec != nil {
		if err := store.CompleteBuild(ctx, rec.ID, core.BuildStatusCompleted, g.Summary(), ""); err != nil {
			return fmt.Errorf("failed to record build: %w", err)
		}
		if err := store.RecordEdgeGroups(ctx, rec.ID, g.EdgeGroupStats()); err != nil {
			return fmt.Errorf("failed to record edge groups: %w", err)
		}
		out.BuildID = rec.ID
	}

	logger.Info("graph built", "dataset", desc.Name, "nodes", out.NumNodes, "edges", out.NumEdges)
	return renderBuild(cmdCtx.Renderer, out)
}

func buildOutput(name, edgeIndex string, g *hetero.Graph) output.BuildOutput {
	out := output.BuildOutput{
		Dataset:    name,
		EdgeIndex:  edgeIndex,
		NodeGroups: []output.NodeGroupInfo{},
		EdgeGroups: []output.EdgeGroupInfo{},
		NumNodes:   g.NumNodes(),
		NumEdges:   g.NumEdges(),
	}
	if out.EdgeIndex == "" {
		out.EdgeIndex = string(builder.EdgeIndexRow)
	}

	for _, nt := range g.NodeTypes() {
		ns, _ := g.Node(nt)
		info := output.NodeGroupInfo{Name: nt, NumNodes: ns.NumNodes, Temporal: ns.Time != nil}
		if c, ok := ns.TF.(interface{ NumCols() int }); ok {
			info.NumCols = c.NumCols()
		}
		out.NodeGroups = append(out.NodeGroups, info)
	}
	for _, stat := range g.EdgeGroupStats() {
		out.EdgeGroups = append(out.EdgeGroups, edgeGroupInfo(stat))
	}
	return out
}

func edgeGroupInfo(stat core.EdgeGroupStat) output.EdgeGroupInfo {
	return output.EdgeGroupInfo{
		Src:      stat.Type.Src,
		Rel:      stat.Type.Rel,
		Dst:      stat.Type.Dst,
		NumEdges: stat.NumEdges,
	}
}

func renderBuild(r *output.Renderer, out output.BuildOutput) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	title := fmt.Sprintf("Graph: %s", out.Dataset)
	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
	} else {
		r.Header(1, title)
	}

	renderSection(r, "Node Groups")
	nodeRows := make([][]any, 0, len(out.NodeGroups))
	for _, n := range out.NodeGroups {
		temporal := "no"
		if n.Temporal {
			temporal = "yes"
		}
		nodeRows = append(nodeRows, []any{n.Name, n.NumNodes, n.NumCols, temporal})
	}
	r.Table([]string{"Table", "Nodes", "Features", "Temporal"}, nodeRows)
	r.Println("")

	renderSection(r, "Edge Groups")
	if len(out.EdgeGroups) == 0 {
		r.Println("No foreign keys, no edge groups.")
	} else {
		edgeRows := make([][]any, 0, len(out.EdgeGroups))
		for _, e := range out.EdgeGroups {
			edgeRows = append(edgeRows, []any{e.Src, e.Rel, e.Dst, e.NumEdges})
		}
		r.Table([]string{"Source", "Relation", "Target", "Edges"}, edgeRows)
	}
	r.Println("")

	renderSection(r, "Summary")
	if mode == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Edge Index", out.EdgeIndex))
		r.Println(output.FormatKeyValue("Nodes", output.FormatCount(out.NumNodes)))
		r.Println(output.FormatKeyValue("Edges", output.FormatCount(out.NumEdges)))
		if out.BuildID != "" {
			r.Println(output.FormatKeyValue("Build", out.BuildID))
		}
		return nil
	}

	styles := r.Styles()
	r.Printf("  %s: %s\n", styles.Bold.Render("Edge index"), out.EdgeIndex)
	r.Printf("  %s: %s\n", styles.Bold.Render("Nodes"), output.FormatCount(out.NumNodes))
	r.Printf("  %s: %s\n", styles.Bold.Render("Edges"), output.FormatCount(out.NumEdges))
	if out.BuildID != "" {
		r.Muted("  Recorded as build " + out.BuildID)
	}
	return nil
}

// renderSection writes a second-level heading in the current mode.
func renderSection(r *output.Renderer, title string) {
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(2, title))
		r.Println("")
		return
	}
	r.Header(2, title)
}
