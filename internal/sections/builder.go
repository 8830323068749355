package sections

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"AutoPublisher/internal/domain"
)

const defaultMaxDepth = 3

// Config controls how generated markup is folded into a section tree.
type Config struct {
	KeepTitles      bool
	BlacklistTitles []string
	// MaxDepth bounds section nesting; deeper headings fold into the deepest
	// permitted level. Zero or negative selects the default.
	MaxDepth int
}

var contentKinds = map[string]domain.ElementKind{
	"p":          domain.ElementParagraph,
	"ul":         domain.ElementList,
	"ol":         domain.ElementList,
	"table":      domain.ElementTable,
	"blockquote": domain.ElementBlockquote,
	"dl":         domain.ElementDList,
	"pre":        domain.ElementCode,
}

const blockSelector = "h1, h2, h3, h4, h5, h6, p, ul, ol, table, blockquote, dl, pre"

// markupPolicy admits the restricted HTML subset the builder understands.
// Generated model output is cleaned through it before structuring.
var markupPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6",
		"p", "ul", "ol", "li", "table", "thead", "tbody", "tr", "th", "td",
		"blockquote", "dl", "dt", "dd", "pre", "code",
		"strong", "em", "b", "i", "u", "br", "span")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowElements("a", "img")
	return p
}()

// Build parses generated markup into an ordered, pruned list of top-level
// sections. Malformed input degrades to a single section wrapping the raw
// text; it never fails the caller.
func Build(markup string, cfg Config) []*domain.Section {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	clean := markupPolicy.Sanitize(markup)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		text := strings.TrimSpace(markup)
		if text == "" {
			return nil
		}
		return []*domain.Section{{
			Elements: []domain.Element{{Kind: domain.ElementParagraph, HTML: "<p>" + text + "</p>"}},
		}}
	}

	blacklist := make(map[string]struct{}, len(cfg.BlacklistTitles))
	for _, title := range cfg.BlacklistTitles {
		blacklist[strings.ToLower(strings.TrimSpace(title))] = struct{}{}
	}

	var (
		roots []*domain.Section
		path  []*domain.Section
	)

	open := func(title string, depth int) {
		section := &domain.Section{Title: title}
		if depth == 0 {
			roots = append(roots, section)
		} else {
			parent := path[depth-1]
			parent.Children = append(parent.Children, section)
		}
		path = append(path[:depth], section)
	}

	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)

		if level, ok := headingLevel(name); ok {
			// Level-1 headings never open sections.
			if level < 2 {
				return
			}
			title := strings.TrimSpace(sel.Text())
			if title == "" {
				return
			}
			if _, banned := blacklist[strings.ToLower(title)]; banned {
				return
			}
			depth := min(len(path), level-2, maxDepth)
			if !cfg.KeepTitles {
				title = ""
			}
			open(title, depth)
			return
		}

		kind, recognized := contentKinds[name]
		if !recognized || nestedInCaptured(sel) {
			return
		}
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		if len(path) == 0 {
			// No heading seen yet: everything attaches to an implicit root.
			open("", 0)
		}
		current := path[len(path)-1]
		current.Elements = append(current.Elements, domain.Element{Kind: kind, HTML: strings.TrimSpace(html)})
	})

	return prune(roots)
}

func headingLevel(name string) (int, bool) {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0'), true
	}
	return 0, false
}

// nestedInCaptured reports whether the node sits inside another recognized
// block that was already captured whole, such as a list inside a blockquote.
func nestedInCaptured(sel *goquery.Selection) bool {
	for parent := sel.Parent(); parent.Length() > 0; parent = parent.Parent() {
		if _, ok := contentKinds[goquery.NodeName(parent)]; ok {
			return true
		}
	}
	return false
}

// prune discards empty sections bottom-up while preserving order.
func prune(sections []*domain.Section) []*domain.Section {
	kept := sections[:0]
	for _, section := range sections {
		section.Children = prune(section.Children)
		if section.Empty() {
			continue
		}
		kept = append(kept, section)
	}
	return kept
}
