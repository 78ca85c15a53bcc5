// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jakubpeleska/relbench/internal/cli/output"
)

// SetupTestProject creates a temporary project with CSV seeds, a dataset
// descriptor and a relbench.yaml targeting a SQLite file. It returns the
// project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "seeds"), 0750); err != nil {
		t.Fatalf("failed to create seeds directory: %v", err)
	}

	files := map[string]string{
		filepath.Join("seeds", "customers.csv"): `customer_id,name
1,Alice
2,Bob
`,
		filepath.Join("seeds", "orders.csv"): `order_id,customer_id,amount,ordered_at
10,1,3.5,2024-01-01
11,2,4.0,2024-03-15
12,1,1.25,2024-07-01
`,
		"dataset.yaml": `name: shop
val_timestamp: 2024-06-01
test_timestamp: 2024-09-01
tables:
  - name: customers
    primary_key: customer_id
  - name: orders
    primary_key: order_id
    time_column: ordered_at
    foreign_keys:
      customer_id: customers
`,
		"relbench.yaml": `target:
  type: sqlite
  database: shop.db
state_path: .relbench/state.db
`,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
