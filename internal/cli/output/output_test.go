package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"TEXT", ModeText, false},
		{"md", ModeMarkdown, false},
		{"markdown", ModeMarkdown, false},
		{"json", ModeJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	// A buffer is never a terminal.
	assert.Equal(t, ModeMarkdown, NewRenderer(&buf, &buf, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRenderer(&buf, &buf, "").EffectiveMode())
	assert.Equal(t, ModeText, NewRenderer(&buf, &buf, ModeText).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRenderer(&buf, &buf, ModeJSON).EffectiveMode())
	assert.False(t, NewRenderer(&buf, &buf, ModeAuto).IsTTY())
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.JSON(SeedOutput{SeedsDir: "seeds", Tables: []string{"users"}}))
	assert.Contains(t, buf.String(), `"seeds_dir": "seeds"`)
	assert.Contains(t, buf.String(), `"users"`)
}

func TestRenderer_TextHelpers(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeText)

	r.Header(1, "Graph")
	r.Muted("quiet")
	r.Success("done")
	r.StatusLine("users", "success", "3 rows")
	r.StatusLine("orders", "failed", "")

	out := buf.String()
	assert.Contains(t, out, "Graph")
	assert.Contains(t, out, "quiet")
	assert.Contains(t, out, "✓ done")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "3 rows")
	assert.Contains(t, out, "✗ orders")
}

func TestRenderer_Table(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRenderer(&buf, &buf, ModeMarkdown)
		r.Table([]string{"name", "rows"}, [][]any{{"users", 3}})

		out := buf.String()
		assert.Contains(t, out, "| name | rows |")
		assert.Contains(t, out, "| users | 3 |")
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRenderer(&buf, &buf, ModeText)
		r.Table([]string{"name", "rows"}, [][]any{{"users", 3}})

		out := buf.String()
		assert.Contains(t, out, "users")
		assert.True(t, strings.Contains(out, "┌") || strings.Contains(out, "│"))
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "# Zero", FormatHeader(0, "Zero"))
	assert.Equal(t, "- **Table**: users", FormatKeyValue("Table", "users"))

	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "-12,345", FormatCount(-12345))
}
