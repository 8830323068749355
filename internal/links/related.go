package links

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RelatedItem is one candidate for automatic linking.
type RelatedItem struct {
	Title string
	URL   string
}

// Position names an automatic insertion point inside a document.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	// PositionInterSection inserts before every second-level heading after
	// the first one.
	PositionInterSection Position = "inter-section"
)

// AutoConfig drives the automatic pass.
type AutoConfig struct {
	Total     int
	Positions []Position
	// Template selects the rendering: "list" (default) or "grid".
	Template string
}

// SelectCandidates merges relation sources into the final candidate list.
// Structural candidates (parent/children/siblings) take priority; topical
// ones (shared category or tag) fill the remainder. The current document and
// duplicates are excluded.
func SelectCandidates(self DocContext, structural, topical []RelatedItem, total int) []RelatedItem {
	if total <= 0 {
		return nil
	}

	selfTarget := NormalizeTarget(self.Permalink)
	seen := map[string]struct{}{}
	var selected []RelatedItem

	take := func(items []RelatedItem) {
		for _, item := range items {
			if len(selected) >= total {
				return
			}
			key := NormalizeTarget(item.URL)
			if key == "" || key == selfTarget {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			selected = append(selected, item)
		}
	}

	take(structural)
	take(topical)
	return selected
}

var (
	listTemplate = template.Must(template.New("list").Parse(
		`<ul class="ap-related">{{range .}}<li><a href="{{.URL}}">{{.Title}}</a></li>{{end}}</ul>`))
	gridTemplate = template.Must(template.New("grid").Parse(
		`<div class="ap-related-grid">{{range .}}<div class="ap-related-card"><a href="{{.URL}}">{{.Title}}</a></div>{{end}}</div>`))
)

// autoPass splices related-item blocks into the document at the computed
// positions without reordering existing blocks.
func autoPass(doc *goquery.Document, cfg AutoConfig, items []RelatedItem) {
	if len(items) == 0 || len(cfg.Positions) == 0 {
		return
	}
	if cfg.Total > 0 && len(items) > cfg.Total {
		items = items[:cfg.Total]
	}

	body := doc.Find("body")

	// Anchor selections are resolved once, before any splice shifts indices.
	type point struct {
		insert func(markup string)
	}
	var points []point
	for _, position := range cfg.Positions {
		switch position {
		case PositionTop:
			points = append(points, point{insert: func(markup string) { body.PrependHtml(markup) }})
		case PositionBottom:
			points = append(points, point{insert: func(markup string) { body.AppendHtml(markup) }})
		case PositionInterSection:
			body.ChildrenFiltered("h2").Each(func(i int, heading *goquery.Selection) {
				if i == 0 {
					return
				}
				points = append(points, point{insert: func(markup string) { heading.BeforeHtml(markup) }})
			})
		}
	}
	if len(points) == 0 {
		return
	}

	chunkSize := (len(items) + len(points) - 1) / len(points)
	for i, pt := range points {
		from := i * chunkSize
		if from >= len(items) {
			break
		}
		to := from + chunkSize
		if to > len(items) {
			to = len(items)
		}
		pt.insert(renderRelated(cfg.Template, items[from:to]))
	}
}

func renderRelated(kind string, items []RelatedItem) string {
	tmpl := listTemplate
	if strings.EqualFold(kind, "grid") {
		tmpl = gridTemplate
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, items); err != nil {
		return ""
	}
	return sb.String()
}
