package modules

import (
	"context"
	"fmt"
	"io"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/infrastructure/llm"
	"AutoPublisher/internal/ports"
)

// ImageModule generates a thumbnail image into the extras bag; the
// orchestrator uploads it during the document-store write.
type ImageModule struct {
	media ports.MediaGenerator
}

var _ ports.GenerationModule = (*ImageModule)(nil)

// NewImageModule wires the media generation backend.
func NewImageModule(media ports.MediaGenerator) *ImageModule {
	return &ImageModule{media: media}
}

// Name identifies the module inside the registry.
func (m *ImageModule) Name() string { return "image" }

// IsEnabled follows the per-project module switch.
func (m *ImageModule) IsEnabled(_ *domain.Publication, settings domain.ModuleSettings) bool {
	return settings.Enabled
}

// Handle generates the thumbnail and stores the raw bytes for upload.
func (m *ImageModule) Handle(ctx context.Context, pub *domain.Publication, settings domain.ModuleSettings) error {
	template := settings.Options["prompt"]
	if strings.TrimSpace(template) == "" {
		template = "A featured illustration for an article titled {title}"
	}
	prompt := llm.BuildPrompt(template, map[string]string{"title": pub.Title})

	blob, err := m.media.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate thumbnail: %w", err)
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return fmt.Errorf("read thumbnail: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("media backend returned an empty thumbnail")
	}

	pub.Extras.ThumbnailData = data
	return nil
}
