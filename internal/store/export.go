package store

import (
	"fmt"
	"strings"
	"time"
)

// ExportText renders every memory as plain text grouped by category.
// last_accessed is left out so that reads between exports don't change the output.
func (db *DB) ExportText() (string, error) {
	memories, err := db.ListMemories()
	if err != nil {
		return "", err
	}
	return FormatExport(memories), nil
}

// FormatExport renders memories, which must already be in canonical order.
func FormatExport(memories []Memory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Memory export (%d memories)\n", len(memories))

	byCat := make(map[Category][]Memory, len(Categories))
	for _, m := range memories {
		byCat[m.Category] = append(byCat[m.Category], m)
	}

	for _, cat := range Categories {
		group := byCat[cat]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s (%d)\n", cat, len(group))
		for _, m := range group {
			fmt.Fprintf(&b, "\n[%s] %s\n", m.ID, m.Title)
			fmt.Fprintf(&b, "  significance=%d strength=%.2f state=%s created=%s",
				m.Significance, m.RecallStrength, m.State, m.CreatedAt.UTC().Format(time.RFC3339))
			if len(m.Tags) > 0 {
				fmt.Fprintf(&b, " tags=%s", strings.Join(m.Tags, ","))
			}
			fmt.Fprintf(&b, " source=%s\n", m.Source)
			for _, line := range strings.Split(m.Content, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	return b.String()
}
