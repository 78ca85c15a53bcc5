package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jakubpeleska/relbench/internal/cli/output"
	"github.com/jakubpeleska/relbench/internal/dataset"
	"github.com/jakubpeleska/relbench/internal/sampler"
	"github.com/jakubpeleska/relbench/internal/timeutil"
	"github.com/jakubpeleska/relbench/pkg/core"
	"github.com/spf13/cobra"
)

type windowsOptions struct {
	start  string
	end    string
	size   int64
	stride int64
	single bool
	save   string
	load   string
}

// NewWindowsCommand creates the windows command.
func NewWindowsCommand() *cobra.Command {
	var opts windowsOptions

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Generate time windows for temporal sampling",
		Long: `Generate the [offset, cutoff) time windows that bound temporal sampling.

Rolling mode starts at --start and advances by --stride seconds while the
window offset is strictly before --end minus --size. Single mode returns the
one window starting at --start.

Times accept unix seconds or any common date format. When a dataset
descriptor with split timestamps is present, each window is tagged with the
split its offset falls in.`,
		Example: `  # Weekly windows, advancing one day at a time
  relbench windows --start 2024-01-01 --end 2024-03-01 --size 604800 --stride 86400

  # A single 30 day window
  relbench windows --single --start 2024-06-01 --size 2592000

  # Save a window set and read it back
  relbench windows --start 0 --end 100 --size 20 --stride 10 --save smoke
  relbench windows --load <id>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWindows(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "Start of the time range")
	cmd.Flags().StringVar(&opts.end, "end", "", "End of the time range (rolling mode)")
	cmd.Flags().Int64Var(&opts.size, "size", 0, "Window size in seconds")
	cmd.Flags().Int64Var(&opts.stride, "stride", 0, "Stride between window offsets in seconds (rolling mode)")
	cmd.Flags().BoolVar(&opts.single, "single", false, "Generate one window starting at --start")
	cmd.Flags().StringVar(&opts.save, "save", "", "Save the windows to the state database under this name")
	cmd.Flags().StringVar(&opts.load, "load", "", "Load a saved window set by id instead of generating")

	cmd.MarkFlagsMutuallyExclusive("load", "start")
	cmd.MarkFlagsMutuallyExclusive("load", "save")

	return cmd
}

func runWindows(cmd *cobra.Command, opts windowsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	var (
		windows []core.TimeWindow
		id      string
		err     error
	)

	if opts.load != "" {
		store, err := openStore(cfg, cmdCtx.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		windows, err = store.GetWindows(ctx, opts.load)
		if err != nil {
			return fmt.Errorf("failed to load window set %s: %w", opts.load, err)
		}
		id = opts.load
	} else {
		windows, err = generateWindows(opts)
		if err != nil {
			return err
		}

		if opts.save != "" {
			store, err := openStore(cfg, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err = store.SaveWindows(ctx, opts.save, windows)
			if err != nil {
				return fmt.Errorf("failed to save windows: %w", err)
			}
		}
	}

	var desc *dataset.Descriptor
	if _, statErr := os.Stat(cfg.Dataset); statErr == nil {
		if desc, err = loadDescriptor(cfg); err != nil {
			return err
		}
	}

	return renderWindows(cmdCtx.Renderer, windowsOutput(id, windows, desc))
}

func generateWindows(opts windowsOptions) ([]core.TimeWindow, error) {
	if opts.start == "" {
		return nil, fmt.Errorf("--start is required")
	}
	start, err := parseTime(opts.start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}

	if opts.single {
		return sampler.OneWindow(start.Unix(), opts.size), nil
	}

	if opts.end == "" {
		return nil, fmt.Errorf("--end is required for rolling windows")
	}
	end, err := parseTime(opts.end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end: %w", err)
	}
	return sampler.RollingWindows(start, end, opts.size, opts.stride)
}

// parseTime accepts unix seconds or a date string.
func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	t, ok, err := timeutil.Normalize(s)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("empty time")
	}
	return t, nil
}

func windowsOutput(id string, windows []core.TimeWindow, desc *dataset.Descriptor) output.WindowsOutput {
	out := output.WindowsOutput{ID: id, Windows: make([]output.WindowInfo, 0, len(windows))}
	for _, w := range windows {
		info := output.WindowInfo{
			Offset:     w.Offset.UTC().Format(time.RFC3339),
			Cutoff:     w.Cutoff.UTC().Format(time.RFC3339),
			OffsetUnix: w.Offset.Unix(),
			CutoffUnix: w.Cutoff.Unix(),
		}
		if desc != nil && (desc.ValTimestamp != "" || desc.TestTimestamp != "") {
			info.Split = desc.Split(w.Offset)
		}
		out.Windows = append(out.Windows, info)
	}
	return out
}

func renderWindows(r *output.Renderer, out output.WindowsOutput) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(out)
	}

	title := fmt.Sprintf("Time Windows (%d)", len(out.Windows))
	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
	} else {
		r.Header(1, title)
	}

	if len(out.Windows) == 0 {
		r.Println("No windows fit in the time range.")
		return nil
	}

	withSplit := out.Windows[0].Split != ""
	header := []string{"#", "Offset", "Cutoff"}
	if withSplit {
		header = append(header, "Split")
	}
	rows := make([][]any, 0, len(out.Windows))
	for i, w := range out.Windows {
		row := []any{i, w.Offset, w.Cutoff}
		if withSplit {
			row = append(row, w.Split)
		}
		rows = append(rows, row)
	}
	r.Table(header, rows)

	if out.ID != "" {
		r.Println("")
		if mode == output.ModeMarkdown {
			r.Println(output.FormatKeyValue("Window Set", out.ID))
		} else {
			r.Muted("Window set " + out.ID)
		}
	}
	return nil
}
