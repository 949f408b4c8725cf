// Package diffview tracks output changes and renders truncated, colorized
// unified diffs.
//
// Exactly one historical snapshot is kept per output file: the immediately
// preceding generation, written next to the primary output with an .old
// suffix and overwritten on each subsequent change.
package diffview

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/natefinch/atomic"
	"github.com/pmezard/go-difflib/difflib"
)

// maxDiffLines caps how many diff lines are printed before the remainder
// collapses into a count.
const maxDiffLines = 50

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// SnapshotPath derives the historical-snapshot path from a primary output
// path: same stem, .old inserted before the extension.
func SnapshotPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".old" + ext
}

// SaveOldIfChanged reports whether newContent differs from what is on disk
// at path, preserving the existing content to the snapshot path when it
// does. A first write (no prior output) reports changed without writing a
// snapshot. This must run before the new content replaces the file, since
// it reads the about-to-be-replaced content.
func SaveOldIfChanged(path, newContent string) (bool, error) {
	old, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	if string(old) == newContent {
		return false, nil
	}
	if err := atomic.WriteFile(SnapshotPath(path), bytes.NewReader(old)); err != nil {
		return false, fmt.Errorf("saving snapshot: %w", err)
	}
	return true, nil
}

// WriteDiff prints a unified diff between old and new to w, colorized and
// capped at maxDiffLines lines. Identical content prints nothing.
func WriteDiff(w io.Writer, path, old, new string) error {
	if old == new {
		return nil
	}

	name := filepath.Base(path)
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(new),
		FromFile: name + " (old)",
		ToFile:   name + " (new)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("computing diff: %w", err)
	}
	if text == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	shown := lines
	if len(shown) > maxDiffLines {
		shown = shown[:maxDiffLines]
	}
	for _, line := range shown {
		fmt.Fprintln(w, colorize(line))
	}
	if rest := len(lines) - maxDiffLines; rest > 0 {
		fmt.Fprintf(w, "... (%d more lines)\n", rest)
	}
	return nil
}

func colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return headerStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return removedStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return addedStyle.Render(line)
	default:
		return line
	}
}
