package desktop

import (
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Snapshot lists every file under the root, sorted.
func (d *Desktop) Snapshot() []string {
	files := d.listFiles("")
	sort.Strings(files)
	return files
}

// DiffSnapshots renders the change between two snapshots as a unified diff.
// It returns "" when they are identical.
func DiffSnapshots(before, after []string) string {
	return udiff.Unified("before", "after", joinLines(before), joinLines(after))
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
