package domain

// ElementKind identifies a typed content element inside a section.
type ElementKind string

const (
	ElementParagraph  ElementKind = "paragraph"
	ElementList       ElementKind = "list"
	ElementTable      ElementKind = "table"
	ElementBlockquote ElementKind = "blockquote"
	ElementCode       ElementKind = "code"
	ElementDList      ElementKind = "dlist"
)

// Element is one block-level content unit captured in document order.
type Element struct {
	Kind ElementKind
	HTML string
}

// Section is a node in the hierarchical content tree built from generated markup.
type Section struct {
	Title    string
	Elements []Element
	Children []*Section
}

// Empty reports whether the section carries nothing worth keeping:
// no title, no elements, and no non-empty children.
func (s *Section) Empty() bool {
	if s == nil {
		return true
	}
	if s.Title != "" || len(s.Elements) > 0 {
		return false
	}
	for _, child := range s.Children {
		if !child.Empty() {
			return false
		}
	}
	return true
}
