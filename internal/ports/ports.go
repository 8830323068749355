package ports

import (
	"context"
	"io"
	"time"

	"AutoPublisher/internal/domain"
)

// GenerationModule is one step of the publication pipeline. Handle may mutate
// the publication's section tree and extras bag; a returned error is fatal for
// the remaining pipeline.
type GenerationModule interface {
	Name() string
	IsEnabled(pub *domain.Publication, settings domain.ModuleSettings) bool
	Handle(ctx context.Context, pub *domain.Publication, settings domain.ModuleSettings) error
}

// DocumentHandle identifies a document inside the target store.
type DocumentHandle struct {
	ID        string
	Permalink string
}

// DocumentStore is the write path towards the target document platform.
// Every operation besides FindOrCreateDocument is independently failable and
// treated as non-fatal by the orchestrator.
type DocumentStore interface {
	FindOrCreateDocument(ctx context.Context, pub *domain.Publication) (DocumentHandle, error)
	WriteContent(ctx context.Context, handle DocumentHandle, content string) error
	AttachMedia(ctx context.Context, handle DocumentHandle, name string, blob io.Reader) (string, error)
	SetTaxonomy(ctx context.Context, handle DocumentHandle, categories, tags []string) error
	SetSEOFields(ctx context.Context, handle DocumentHandle, seo domain.SEOFields) error
	SetCustomField(ctx context.Context, handle DocumentHandle, key, value string) error
}

// FeedItem is one entry returned by a feed or search source.
type FeedItem struct {
	Title       string
	URL         string
	GUID        string
	PublishedAt time.Time
}

// FeedSource searches an external feed/news backend for the autopilot poller.
type FeedSource interface {
	Search(ctx context.Context, query, language string) ([]FeedItem, error)
}

// ChatClient sends a prompt payload to a text-generation backend.
type ChatClient interface {
	Chat(ctx context.Context, payload string) (string, error)
}

// MediaGenerator produces binary media (thumbnails, video stills) for modules.
type MediaGenerator interface {
	Generate(ctx context.Context, prompt string) (io.ReadCloser, error)
}

// Entitlement gates whether the orchestrator may publish at all.
type Entitlement interface {
	IsPremium() bool
	IsTrial() bool
}

// PublicationRepository persists projects, publications and their logs.
type PublicationRepository interface {
	Project(ctx context.Context, id string) (domain.Project, error)
	EnabledProjects(ctx context.Context) ([]domain.Project, error)

	Create(ctx context.Context, pub *domain.Publication) error
	Get(ctx context.Context, id string) (*domain.Publication, error)
	Parent(ctx context.Context, pub *domain.Publication) (*domain.Publication, error)
	ListDue(ctx context.Context, now time.Time) ([]*domain.Publication, error)

	// ClaimPending transitions idle -> pending atomically and reports whether
	// this caller won the claim.
	ClaimPending(ctx context.Context, id string) (bool, error)
	SetStatus(ctx context.Context, id string, status domain.Status) error

	ClearLogs(ctx context.Context, id string) error
	AppendLog(ctx context.Context, id string, entry domain.LogEntry) error
	LastLog(ctx context.Context, id string) (domain.LogEntry, error)

	CountQueuedToday(ctx context.Context, projectID string, now time.Time) (int, error)
	ExistsByDedupKey(ctx context.Context, projectID, key string) (bool, error)
	ListStuckPending(ctx context.Context, olderThan time.Time) ([]*domain.Publication, error)

	// ListRecentPublished returns the newest successful publications of a
	// project, used as related-link candidates.
	ListRecentPublished(ctx context.Context, projectID string, limit int) ([]*domain.Publication, error)
}

// LinkRuleRepository exposes operator-curated link rules read-only.
type LinkRuleRepository interface {
	ListRules(ctx context.Context) ([]domain.LinkRule, error)
}

// Scheduler controls when the orchestrator tick executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
