package commands

import (
	"fmt"
	"strings"

	"github.com/jakubpeleska/relbench/internal/cli/output"
	"github.com/jakubpeleska/relbench/internal/dag"
	"github.com/jakubpeleska/relbench/internal/dataset"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the tables and key relationships of a dataset",
		Long: `Load the dataset and display each table with its primary key, time
column and foreign keys, followed by the table dependency levels: tables in
level 0 reference no other table, tables in level n reference only tables in
earlier levels.

Reference cycles are reported instead of levels. Self-references are listed
separately since they never affect ordering.`,
		Example: `  # Show the schema of ./dataset.yaml
  relbench schema

  # Output as JSON
  relbench schema --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd)
		},
	}

	return cmd
}

func runSchema(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	desc, err := loadDescriptor(cfg)
	if err != nil {
		return err
	}

	a, err := openAdapter(ctx, cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	db, err := dataset.Load(ctx, a, desc, cmdCtx.Logger)
	if err != nil {
		return err
	}

	graph, err := dag.FromDatabase(db)
	if err != nil {
		return err
	}

	out := output.SchemaOutput{Dataset: desc.Name, Tables: []output.SchemaTable{}}
	for _, t := range db.Tables() {
		st := output.SchemaTable{
			Name:       t.Name,
			PrimaryKey: t.PrimaryKey,
			TimeColumn: t.TimeColumn,
			Rows:       int64(t.NumRows()),
		}
		if len(t.ForeignKeys) > 0 {
			st.ForeignKeys = make(map[string]string, len(t.ForeignKeys))
			for _, fk := range t.ForeignKeys {
				st.ForeignKeys[fk.Column] = fk.Table
			}
		}
		out.Tables = append(out.Tables, st)
		for _, col := range graph.SelfReferences(t.Name) {
			out.SelfReferences = append(out.SelfReferences, t.Name+"."+col)
		}
	}

	if cycle := graph.Cycle(); cycle != nil {
		out.Cycle = cycle
	} else if out.Levels, err = graph.Levels(); err != nil {
		return err
	}

	return renderSchema(cmdCtx.Renderer, out, db.Tables())
}

func renderSchema(r *output.Renderer, out output.SchemaOutput, tables []*core.Table) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	title := fmt.Sprintf("Schema: %s", out.Dataset)
	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
	} else {
		r.Header(1, title)
	}

	renderSection(r, "Tables")
	rows := make([][]any, 0, len(tables))
	for i, t := range tables {
		fks := make([]string, 0, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			fks = append(fks, fk.Column+" -> "+fk.Table)
		}
		rows = append(rows, []any{
			t.Name,
			orDash(t.PrimaryKey),
			orDash(t.TimeColumn),
			orDash(strings.Join(fks, ", ")),
			out.Tables[i].Rows,
		})
	}
	r.Table([]string{"Table", "Primary Key", "Time Column", "Foreign Keys", "Rows"}, rows)
	r.Println("")

	if len(out.Cycle) > 0 {
		renderSection(r, "Reference Cycle")
		r.Println(strings.Join(out.Cycle, " -> "))
	} else {
		renderSection(r, "Dependency Levels")
		for i, level := range out.Levels {
			if mode == output.ModeMarkdown {
				r.Println(output.FormatKeyValue(fmt.Sprintf("Level %d", i), strings.Join(level, ", ")))
				continue
			}
			r.Printf("  %s %s\n", r.Styles().Bold.Render(fmt.Sprintf("Level %d:", i)), strings.Join(level, ", "))
		}
	}

	if len(out.SelfReferences) > 0 {
		r.Println("")
		renderSection(r, "Self References")
		for _, ref := range out.SelfReferences {
			r.Println("- " + ref)
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
