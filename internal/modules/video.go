package modules

import (
	"context"
	"fmt"
	"html"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// VideoModule looks up a relevant video for the publication title and embeds
// it as a content element at the end of the tree.
type VideoModule struct {
	search ports.FeedSource
}

var _ ports.GenerationModule = (*VideoModule)(nil)

// NewVideoModule wires the video search backend.
func NewVideoModule(search ports.FeedSource) *VideoModule {
	return &VideoModule{search: search}
}

// Name identifies the module inside the registry.
func (m *VideoModule) Name() string { return "video" }

// IsEnabled follows the per-project module switch.
func (m *VideoModule) IsEnabled(_ *domain.Publication, settings domain.ModuleSettings) bool {
	return settings.Enabled
}

// Handle embeds the first matching video; no match is not an error, but a
// failed search is fatal like any other module failure.
func (m *VideoModule) Handle(ctx context.Context, pub *domain.Publication, settings domain.ModuleSettings) error {
	results, err := m.search.Search(ctx, pub.Title, settings.Options["language"])
	if err != nil {
		return fmt.Errorf("search video: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	embed := fmt.Sprintf(`<p><iframe src="%s" loading="lazy" allowfullscreen></iframe></p>`,
		html.EscapeString(results[0].URL))

	section := &domain.Section{
		Elements: []domain.Element{{Kind: domain.ElementParagraph, HTML: embed}},
	}
	pub.Sections = append(pub.Sections, section)
	return nil
}
