package sections

import (
	"fmt"
	"html"
	"strings"

	"AutoPublisher/internal/domain"
)

// Serialize renders a section tree back into block markup. Headings are
// emitted at h2 plus nesting depth, capped at h6. Element order and section
// order follow the tree.
func Serialize(tree []*domain.Section) string {
	var sb strings.Builder
	for _, section := range tree {
		writeSection(&sb, section, 0)
	}
	return strings.TrimSpace(sb.String())
}

func writeSection(sb *strings.Builder, section *domain.Section, depth int) {
	if section.Title != "" {
		level := 2 + depth
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(sb, "<h%d>%s</h%d>\n", level, html.EscapeString(section.Title), level)
	}
	for _, element := range section.Elements {
		sb.WriteString(element.HTML)
		sb.WriteString("\n")
	}
	for _, child := range section.Children {
		writeSection(sb, child, depth+1)
	}
}
