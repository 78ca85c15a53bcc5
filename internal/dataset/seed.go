package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jakubpeleska/relbench/pkg/core"
)

// Seed loads every *.csv file in dir into a table named after the file.
// A missing directory is not an error. It returns the loaded table names
// in directory order.
func Seed(ctx context.Context, a core.Adapter, dir string, logger *slog.Logger) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("loading seeds", "seeds_dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seeds directory: %w", err)
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		tableName := strings.TrimSuffix(entry.Name(), ".csv")
		csvPath := filepath.Join(dir, entry.Name())

		logger.Debug("loading seed file", "table", tableName, "path", csvPath)

		if err := a.LoadCSV(ctx, tableName, csvPath); err != nil {
			return loaded, fmt.Errorf("failed to load seed %s: %w", entry.Name(), err)
		}
		loaded = append(loaded, tableName)
	}

	return loaded, nil
}
