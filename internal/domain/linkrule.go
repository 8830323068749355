package domain

// LinkRule is an operator-curated keyword-to-destination linking directive.
type LinkRule struct {
	ID       string
	Keywords []string
	Target   string
	// Content types the rule is allowed to fire on; empty means any.
	ContentTypes []string
	NewTab       bool
	Follow       bool
	Obfuscate    bool
	// MaxInsertions caps how often the rule fires across one rewrite pass; 0 is unlimited.
	MaxInsertions int
}

// AllowsContentType checks the rule against a document's content type.
func (r LinkRule) AllowsContentType(contentType string) bool {
	if len(r.ContentTypes) == 0 {
		return true
	}
	for _, ct := range r.ContentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}
