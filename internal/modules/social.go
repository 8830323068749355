package modules

import (
	"context"
	"fmt"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/infrastructure/llm"
	"AutoPublisher/internal/ports"
)

const defaultSocialPrompt = "Write a one-sentence social media teaser for an article titled {title}." +
	"[if:language] Write it in {language}.[/if]"

// SocialModule produces a short teaser and search metadata into the extras
// bag for downstream custom-field writes.
type SocialModule struct {
	chat ports.ChatClient
}

var _ ports.GenerationModule = (*SocialModule)(nil)

// NewSocialModule wires the chat backend.
func NewSocialModule(chat ports.ChatClient) *SocialModule {
	return &SocialModule{chat: chat}
}

// Name identifies the module inside the registry.
func (m *SocialModule) Name() string { return "social" }

// IsEnabled follows the per-project module switch.
func (m *SocialModule) IsEnabled(_ *domain.Publication, settings domain.ModuleSettings) bool {
	return settings.Enabled
}

// Handle asks for the teaser and stores it as a custom field.
func (m *SocialModule) Handle(ctx context.Context, pub *domain.Publication, settings domain.ModuleSettings) error {
	template := settings.Options["prompt"]
	if strings.TrimSpace(template) == "" {
		template = defaultSocialPrompt
	}
	prompt := llm.BuildPrompt(template, map[string]string{
		"title":    pub.Title,
		"language": settings.Options["language"],
	})

	teaser, err := m.chat.Chat(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate social teaser: %w", err)
	}

	teaser = strings.TrimSpace(teaser)
	if teaser != "" {
		pub.Extras.SetCustom("social_teaser", teaser)
		if pub.Extras.SEO.Description == "" {
			pub.Extras.SEO.Description = teaser
		}
	}
	return nil
}
