package commands

import (
	"path/filepath"

	"github.com/jakubpeleska/relbench/internal/cli/output"
	"github.com/jakubpeleska/relbench/internal/dataset"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load CSV files into the target database",
		Long: `Load every CSV file in the seeds directory into the target database.
Each file becomes a table named after the file.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load all seeds into the configured target
  relbench seed

  # Load seeds into a SQLite file
  relbench seed --database shop.db --seeds-dir ./data

  # Load seeds as JSON
  relbench seed --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}

	return cmd
}

func runSeed(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	if err := cfg.ValidateSeeds(); err != nil {
		return err
	}

	a, err := openAdapter(ctx, cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tables, err := dataset.Seed(ctx, a, cfg.SeedsDir, cmdCtx.Logger)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if tables == nil {
			tables = []string{}
		}
		return r.JSON(output.SeedOutput{SeedsDir: cfg.SeedsDir, Tables: tables})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Seeds Loaded"))
		r.Println("")
		if len(tables) == 0 {
			r.Println("No seed files found in " + cfg.SeedsDir)
			return nil
		}
		for _, name := range tables {
			r.Println(output.FormatKeyValue("Table", name))
		}
		r.Println("")
		r.Println(output.FormatKeyValue("Source Directory", cfg.SeedsDir))
	default:
		r.Header(1, "Seeds")
		if len(tables) == 0 {
			r.Muted("No seed files found in " + cfg.SeedsDir)
			return nil
		}
		for _, name := range tables {
			r.StatusLine(name, "success", filepath.Join(cfg.SeedsDir, name+".csv"))
		}
		r.Println("")
		r.Muted("Source: " + cfg.SeedsDir)
	}
	return nil
}
