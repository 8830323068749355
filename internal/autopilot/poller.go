package autopilot

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/infrastructure/llm"
	"AutoPublisher/internal/planner"
	"AutoPublisher/internal/ports"
)

// Poller turns external feed items into queued publications on a cadence.
// The whole path is best-effort: a feed hiccup is logged and skipped so one
// project can never block the tick for the others.
type Poller struct {
	repo ports.PublicationRepository
	// feed serves feed-kind projects (query is the feed URL); news serves
	// news-kind projects (query is a search term).
	feed   ports.FeedSource
	news   ports.FeedSource
	chat   ports.ChatClient
	logger *slog.Logger
	now    func() time.Time
}

// NewPoller wires the per-kind feed sources, repository, and title-rewrite
// backend.
func NewPoller(repo ports.PublicationRepository, feed, news ports.FeedSource, chat ports.ChatClient, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{repo: repo, feed: feed, news: news, chat: chat, logger: logger, now: time.Now}
}

// PollAll runs the cadence check and poll for every enabled feed/news project.
func (p *Poller) PollAll(ctx context.Context) {
	projects, err := p.repo.EnabledProjects(ctx)
	if err != nil {
		p.logger.Warn("list projects", "error", err)
		return
	}
	for _, project := range projects {
		p.Poll(ctx, project)
	}
}

// Poll enqueues at most one new publication for the project when its next
// publish slot is due.
func (p *Poller) Poll(ctx context.Context, project domain.Project) {
	source := p.sourceFor(project.Kind)
	if source == nil {
		return
	}
	if !project.Enabled || project.Autopilot.Query == "" {
		return
	}

	now := p.now()
	queued, err := p.repo.CountQueuedToday(ctx, project.ID, now)
	if err != nil {
		p.logger.Warn("count queued", "project", project.ID, "error", err)
		return
	}

	window := planner.Window{
		StartMinute: project.Autopilot.WindowStart,
		EndMinute:   project.Autopilot.WindowEnd,
	}
	slot, ok := planner.NextSlot(now, queued, project.Autopilot.PerDay, window)
	if !ok || now.Before(slot) {
		return
	}

	items, err := source.Search(ctx, project.Autopilot.Query, project.Autopilot.Language)
	if err != nil {
		p.logger.Warn("search feed", "project", project.ID, "error", err)
		return
	}

	for _, item := range items {
		key := DedupKey(item)
		if key == "" {
			continue
		}
		exists, err := p.repo.ExistsByDedupKey(ctx, project.ID, key)
		if err != nil {
			p.logger.Warn("dedup lookup", "project", project.ID, "error", err)
			return
		}
		if exists {
			continue
		}

		pub := &domain.Publication{
			ID:          uuid.NewString(),
			ProjectID:   project.ID,
			Title:       p.rewriteTitle(ctx, project, item.Title),
			ContentType: "post",
			Source: domain.SourceMeta{
				URL:      item.URL,
				GUID:     item.GUID,
				DedupKey: key,
			},
			PublishedAt: slot,
			Status:      domain.StatusIdle,
		}
		if err := p.repo.Create(ctx, pub); err != nil {
			p.logger.Warn("enqueue publication", "project", project.ID, "error", err)
			return
		}

		p.logger.Info("publication queued", "project", project.ID, "publication", pub.ID, "slot", slot)
		return
	}
}

func (p *Poller) sourceFor(kind domain.SourceKind) ports.FeedSource {
	switch kind {
	case domain.SourceFeed:
		return p.feed
	case domain.SourceNews:
		return p.news
	default:
		return nil
	}
}

// rewriteTitle runs the configured rewrite prompt; any failure keeps the raw
// feed title.
func (p *Poller) rewriteTitle(ctx context.Context, project domain.Project, title string) string {
	template := strings.TrimSpace(project.Autopilot.RewritePrompt)
	if template == "" || p.chat == nil {
		return title
	}

	prompt := llm.BuildPrompt(template, map[string]string{
		"title":    title,
		"language": project.Autopilot.Language,
		"query":    project.Autopilot.Query,
	})

	rewritten, err := p.chat.Chat(ctx, prompt)
	if err != nil {
		p.logger.Warn("rewrite title", "project", project.ID, "error", err)
		return title
	}
	rewritten = strings.TrimSpace(strings.Trim(strings.TrimSpace(rewritten), `"`))
	if rewritten == "" {
		return title
	}
	return rewritten
}

var schemeExpr = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)

// DedupKey derives the stable identifier used to reject duplicate feed items:
// the explicit GUID when present, otherwise the item URL, scheme-stripped,
// lower-cased, and without a trailing slash.
func DedupKey(item ports.FeedItem) string {
	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = strings.TrimSpace(item.URL)
	}
	if id == "" {
		return ""
	}
	id = schemeExpr.ReplaceAllString(id, "")
	return strings.TrimSuffix(strings.ToLower(id), "/")
}
