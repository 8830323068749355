package modules

import (
	"context"
	"fmt"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/infrastructure/llm"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/sections"
)

const defaultArticlePrompt = "Write a long-form article titled {title}." +
	"[if:language] Write it in {language}.[/if]" +
	" Use HTML headings (h2, h3) to structure the sections."

// TextModule generates the article body and folds it into the section tree.
type TextModule struct {
	chat ports.ChatClient
	cfg  sections.Config
}

var _ ports.GenerationModule = (*TextModule)(nil)

// NewTextModule wires the chat backend and section-building configuration.
func NewTextModule(chat ports.ChatClient, cfg sections.Config) *TextModule {
	return &TextModule{chat: chat, cfg: cfg}
}

// Name identifies the module inside the registry.
func (m *TextModule) Name() string { return "text" }

// IsEnabled follows the per-project module switch.
func (m *TextModule) IsEnabled(_ *domain.Publication, settings domain.ModuleSettings) bool {
	return settings.Enabled
}

// Handle generates the article markup and appends the resulting sections.
func (m *TextModule) Handle(ctx context.Context, pub *domain.Publication, settings domain.ModuleSettings) error {
	template := settings.Options["prompt"]
	if strings.TrimSpace(template) == "" {
		template = defaultArticlePrompt
	}

	prompt := llm.BuildPrompt(template, map[string]string{
		"title":    pub.Title,
		"language": settings.Options["language"],
		"keywords": settings.Options["keywords"],
		"source":   pub.Source.URL,
	})

	markup, err := m.chat.Chat(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate article: %w", err)
	}

	tree := sections.Build(markup, m.cfg)
	if len(tree) == 0 {
		return fmt.Errorf("generated article produced no sections")
	}
	pub.Sections = append(pub.Sections, tree...)

	if pub.Extras.SEO.Title == "" {
		pub.Extras.SEO.Title = pub.Title
	}
	return nil
}
