package links

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"AutoPublisher/internal/domain"
)

// DocContext describes the document being rewritten, used to reject
// self-links and content-type mismatches.
type DocContext struct {
	Permalink   string
	ContentType string
}

// Injector rewrites finalized content by inserting manual keyword links and
// automatic related-item blocks. Rule insertion counters are scoped to a
// single Rewrite call.
type Injector struct {
	rules []domain.LinkRule
}

// NewInjector builds an injector over the current rule set.
func NewInjector(rules []domain.LinkRule) *Injector {
	return &Injector{rules: rules}
}

// Rewrite applies the manual pass and, when auto is non-nil, the automatic
// pass to the content. Existing blocks are never reordered, only spliced
// between. Unparsable content is returned unchanged.
func (in *Injector) Rewrite(content string, docCtx DocContext, auto *AutoConfig, related []RelatedItem) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, nil
	}

	in.manualPass(doc, docCtx)
	if auto != nil {
		autoPass(doc, *auto, related)
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return content, fmt.Errorf("serialize rewritten content: %w", err)
	}
	return out, nil
}

type lookupEntry struct {
	keyword string
	pattern *regexp.Regexp
	rule    *domain.LinkRule
}

// buildLookup flattens rules into keyword order and compiles each keyword's
// whole-word pattern once; on keyword collision the last rule wins but keeps
// the keyword's original position.
func buildLookup(rules []domain.LinkRule) []lookupEntry {
	var entries []lookupEntry
	index := map[string]int{}
	for i := range rules {
		rule := &rules[i]
		for _, keyword := range rule.Keywords {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			entry := lookupEntry{keyword: keyword, pattern: keywordPattern(keyword), rule: rule}
			key := strings.ToLower(keyword)
			if at, ok := index[key]; ok {
				entries[at] = entry
				continue
			}
			index[key] = len(entries)
			entries = append(entries, entry)
		}
	}
	return entries
}

func (in *Injector) manualPass(doc *goquery.Document, docCtx DocContext) {
	lookup := buildLookup(in.rules)
	if len(lookup) == 0 {
		return
	}

	counters := map[string]int{}
	selfTarget := NormalizeTarget(docCtx.Permalink)
	obfuscated := false

	doc.Find("p, li").Each(func(_ int, block *goquery.Selection) {
		// A p inside an li (or a nested li) is covered by the walk from its
		// outermost block; visiting it again would double-link one block.
		if block.ParentsFiltered("p, li").Length() > 0 {
			return
		}
		for _, node := range block.Nodes {
			if linkTextNodes(node, lookup, docCtx, selfTarget, counters, &obfuscated) {
				return
			}
		}
	})

	if obfuscated {
		doc.Find("body").AppendHtml(obfuscationScript)
	}
}

// linkTextNodes walks text fragments of a block in order and inserts at most
// one link; it reports whether an insertion happened.
func linkTextNodes(node *html.Node, lookup []lookupEntry, docCtx DocContext, selfTarget string, counters map[string]int, obfuscated *bool) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			switch child.Data {
			case "a", "code", "pre", "script":
				continue
			}
			if linkTextNodes(child, lookup, docCtx, selfTarget, counters, obfuscated) {
				return true
			}
			continue
		}
		if child.Type != html.TextNode {
			continue
		}

		for _, entry := range lookup {
			rule := entry.rule
			match := entry.pattern.FindStringIndex(child.Data)
			if match == nil {
				continue
			}
			if NormalizeTarget(rule.Target) == selfTarget {
				continue
			}
			if !rule.AllowsContentType(docCtx.ContentType) {
				continue
			}
			if rule.MaxInsertions > 0 && counters[rule.ID] >= rule.MaxInsertions {
				continue
			}

			replaceWithLink(child, match[0], match[1], rule)
			counters[rule.ID]++
			if rule.Obfuscate {
				*obfuscated = true
			}
			return true
		}
	}
	return false
}

func keywordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}

// replaceWithLink splits the text node around [start,end) and splices in the
// rendered link element.
func replaceWithLink(text *html.Node, start, end int, rule *domain.LinkRule) {
	parent := text.Parent
	matched := text.Data[start:end]
	before := text.Data[:start]
	after := text.Data[end:]

	link := renderLinkNode(matched, rule)

	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, text)
	}
	parent.InsertBefore(link, text)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, text)
	}
	parent.RemoveChild(text)
}

func renderLinkNode(text string, rule *domain.LinkRule) *html.Node {
	inner := &html.Node{Type: html.TextNode, Data: text}

	if rule.Obfuscate {
		span := &html.Node{
			Type: html.ElementNode,
			Data: "span",
			Attr: []html.Attribute{
				{Key: "class", Val: "ap-obf"},
				{Key: "data-dest", Val: base64.StdEncoding.EncodeToString([]byte(rule.Target))},
			},
		}
		span.AppendChild(inner)
		return span
	}

	attrs := []html.Attribute{{Key: "href", Val: rule.Target}}
	if rule.NewTab {
		attrs = append(attrs, html.Attribute{Key: "target", Val: "_blank"})
	}
	if !rule.Follow {
		attrs = append(attrs, html.Attribute{Key: "rel", Val: "nofollow"})
	}
	anchor := &html.Node{Type: html.ElementNode, Data: "a", Attr: attrs}
	anchor.AppendChild(inner)
	return anchor
}

// obfuscationScript makes obfuscated spans clickable while keeping the
// destination out of static markup.
const obfuscationScript = `<script>document.addEventListener("click",function(e){var t=e.target.closest(".ap-obf");if(t){window.location.href=atob(t.getAttribute("data-dest"));}});</script>`

// NormalizeTarget reduces a URL to a lower-cased host+path form with a
// trailing slash, so equivalent permalinks compare equal.
func NormalizeTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		raw = strings.ToLower(raw)
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		return raw
	}
	normalized := strings.ToLower(parsed.Host + parsed.Path)
	if !strings.HasSuffix(normalized, "/") {
		normalized += "/"
	}
	return normalized
}
