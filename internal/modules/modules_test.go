package modules

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/sections"
)

type scriptedChat struct {
	reply   string
	err     error
	prompts []string
}

func (c *scriptedChat) Chat(_ context.Context, payload string) (string, error) {
	c.prompts = append(c.prompts, payload)
	return c.reply, c.err
}

type scriptedMedia struct {
	data []byte
	err  error
}

func (m *scriptedMedia) Generate(context.Context, string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(string(m.data))), nil
}

type scriptedSearch struct {
	items []ports.FeedItem
	err   error
}

func (s *scriptedSearch) Search(context.Context, string, string) ([]ports.FeedItem, error) {
	return s.items, s.err
}

func enabled(options map[string]string) domain.ModuleSettings {
	return domain.ModuleSettings{Enabled: true, Options: options}
}

func TestTextModuleBuildsSectionTree(t *testing.T) {
	t.Parallel()

	chat := &scriptedChat{reply: `<h2>Intro</h2><p>Opening.</p><h2>Details</h2><p>More.</p>`}
	module := NewTextModule(chat, sections.Config{KeepTitles: true})
	pub := &domain.Publication{Title: "Go Generics"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.Sections) != 2 || pub.Sections[0].Title != "Intro" || pub.Sections[1].Title != "Details" {
		t.Fatalf("unexpected tree: %+v", pub.Sections)
	}
	if pub.Extras.SEO.Title != "Go Generics" {
		t.Fatalf("SEO title fallback missing: %q", pub.Extras.SEO.Title)
	}
	if len(chat.prompts) != 1 || !strings.Contains(chat.prompts[0], "Go Generics") {
		t.Fatalf("prompt must carry the title, got %v", chat.prompts)
	}
}

func TestTextModuleCustomPromptTemplate(t *testing.T) {
	t.Parallel()

	chat := &scriptedChat{reply: `<p>body</p>`}
	module := NewTextModule(chat, sections.Config{})
	pub := &domain.Publication{Title: "Title"}

	settings := enabled(map[string]string{
		"prompt":   "About {title}.[if:language] In {language}.[else] In English.[/if]",
		"language": "",
	})
	if err := module.Handle(context.Background(), pub, settings); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if chat.prompts[0] != "About Title. In English." {
		t.Fatalf("prompt = %q", chat.prompts[0])
	}
}

func TestTextModuleChatFailure(t *testing.T) {
	t.Parallel()

	module := NewTextModule(&scriptedChat{err: errors.New("quota exceeded")}, sections.Config{})
	pub := &domain.Publication{Title: "Title"}

	err := module.Handle(context.Background(), pub, enabled(nil))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped chat error, got %v", err)
	}
}

func TestTextModuleEmptyMarkupIsError(t *testing.T) {
	t.Parallel()

	module := NewTextModule(&scriptedChat{reply: "   "}, sections.Config{})
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err == nil {
		t.Fatal("empty generation must be an error")
	}
}

func TestImageModuleStoresThumbnail(t *testing.T) {
	t.Parallel()

	module := NewImageModule(&scriptedMedia{data: []byte{0xFF, 0xD8, 0xFF}})
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.Extras.ThumbnailData) != 3 {
		t.Fatalf("thumbnail not stored: %v", pub.Extras.ThumbnailData)
	}
}

func TestImageModuleEmptyBlobIsError(t *testing.T) {
	t.Parallel()

	module := NewImageModule(&scriptedMedia{})
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err == nil {
		t.Fatal("empty thumbnail must be an error")
	}
}

func TestVideoModuleEmbedsFirstResult(t *testing.T) {
	t.Parallel()

	search := &scriptedSearch{items: []ports.FeedItem{
		{Title: "Talk", URL: "https://video.example.com/embed/1?a=b&c=d"},
		{Title: "Other", URL: "https://video.example.com/embed/2"},
	}}
	module := NewVideoModule(search)
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(pub.Sections) != 1 {
		t.Fatalf("expected one embed section, got %d", len(pub.Sections))
	}
	markup := pub.Sections[0].Elements[0].HTML
	if !strings.Contains(markup, "<iframe") || !strings.Contains(markup, "a=b&amp;c=d") {
		t.Fatalf("unexpected embed markup: %s", markup)
	}
}

func TestVideoModuleNoMatchIsNotAnError(t *testing.T) {
	t.Parallel()

	module := NewVideoModule(&scriptedSearch{})
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err != nil {
		t.Fatalf("no match must be silent, got %v", err)
	}
	if len(pub.Sections) != 0 {
		t.Fatalf("no sections expected, got %d", len(pub.Sections))
	}
}

func TestSocialModuleSetsTeaserAndDescription(t *testing.T) {
	t.Parallel()

	module := NewSocialModule(&scriptedChat{reply: "  A crisp teaser.  "})
	pub := &domain.Publication{Title: "Title"}

	if err := module.Handle(context.Background(), pub, enabled(nil)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if pub.Extras.Custom["social_teaser"] != "A crisp teaser." {
		t.Fatalf("teaser = %q", pub.Extras.Custom["social_teaser"])
	}
	if pub.Extras.SEO.Description != "A crisp teaser." {
		t.Fatalf("description fallback = %q", pub.Extras.SEO.Description)
	}
}

func TestRegistryPipelinePreservesOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(NewSocialModule(&scriptedChat{}))
	registry.Register(NewTextModule(&scriptedChat{}, sections.Config{}))

	steps, err := registry.Pipeline([]domain.ModuleSettings{
		{Name: "text", Enabled: true},
		{Name: "social", Enabled: false},
	})
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if len(steps) != 2 || steps[0].Module.Name() != "text" || steps[1].Module.Name() != "social" {
		t.Fatalf("unexpected steps: %+v", steps)
	}
}

func TestRegistryPipelineUnknownModule(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, err := registry.Pipeline([]domain.ModuleSettings{{Name: "ghost"}})
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected unknown-module error, got %v", err)
	}
}
