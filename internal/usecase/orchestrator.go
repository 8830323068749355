package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/links"
	"AutoPublisher/internal/modules"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/sections"
)

const stoppedByServer = "stopped by the server"

// OrchestratorDeps wires collaborators into the publication state machine.
type OrchestratorDeps struct {
	Repository    ports.PublicationRepository
	Registry      *modules.Registry
	Store         ports.DocumentStore
	Entitlement   ports.Entitlement
	Rules         ports.LinkRuleRepository
	AutoLinks     *links.AutoConfig
	RunBudget     time.Duration
	MaxConcurrent int
	Logger        *slog.Logger
	Now           func() time.Time
}

// Orchestrator drives publications from idle to success or failed. At most
// one pipeline execution runs per publication; the idle->pending claim is the
// sole entry point.
type Orchestrator struct {
	repo          ports.PublicationRepository
	registry      *modules.Registry
	store         ports.DocumentStore
	entitlement   ports.Entitlement
	rules         ports.LinkRuleRepository
	autoLinks     *links.AutoConfig
	runBudget     time.Duration
	maxConcurrent int
	logger        *slog.Logger
	now           func() time.Time
}

// NewOrchestrator constructs the state machine.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	budget := deps.RunBudget
	if budget <= 0 {
		budget = 30 * time.Minute
	}
	concurrent := deps.MaxConcurrent
	if concurrent <= 0 {
		concurrent = 4
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		repo:          deps.Repository,
		registry:      deps.Registry,
		store:         deps.Store,
		entitlement:   deps.Entitlement,
		rules:         deps.Rules,
		autoLinks:     deps.AutoLinks,
		runBudget:     budget,
		maxConcurrent: concurrent,
		logger:        logger,
		now:           now,
	}
}

// Tick scans for due idle publications, dispatches each as an independent
// unit of work, then sweeps for runs that outlived their budget.
func (o *Orchestrator) Tick(ctx context.Context, now time.Time) {
	due, err := o.repo.ListDue(ctx, now)
	if err != nil {
		o.logger.Error("list due publications", "error", err)
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.maxConcurrent)
	for _, pub := range due {
		pub := pub
		group.Go(func() error {
			o.Run(groupCtx, pub)
			return nil
		})
	}
	_ = group.Wait()

	o.Sweep(ctx, now)
}

// Run executes one publication pipeline end to end. Gate failures are silent
// no-ops; every other outcome ends in a terminal status.
func (o *Orchestrator) Run(ctx context.Context, pub *domain.Publication) {
	project, err := o.repo.Project(ctx, pub.ProjectID)
	if err != nil {
		o.logger.Warn("load project", "publication", pub.ID, "error", err)
		return
	}

	if !o.gate(ctx, project, pub) {
		return
	}

	won, err := o.repo.ClaimPending(ctx, pub.ID)
	if err != nil {
		o.logger.Warn("claim publication", "publication", pub.ID, "error", err)
		return
	}
	if !won {
		// A concurrent tick got here first.
		return
	}
	pub.Status = domain.StatusPending

	// The run owns a generous wall-clock budget: it may wait on several
	// sequential network-bound services.
	runCtx, cancel := context.WithTimeout(ctx, o.runBudget)
	defer cancel()

	if err := o.repo.ClearLogs(runCtx, pub.ID); err != nil {
		o.logger.Warn("clear logs", "publication", pub.ID, "error", err)
	}
	pub.Logs = nil
	o.log(runCtx, pub, domain.LogStart, "run started", nil)

	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, pub, fmt.Sprintf("unexpected termination: %v", r))
		}
	}()

	steps, err := o.registry.Pipeline(project.Modules)
	if err != nil {
		o.fail(runCtx, pub, err.Error())
		return
	}

	for _, step := range steps {
		if !step.Module.IsEnabled(pub, step.Settings) {
			continue
		}
		if err := step.Module.Handle(runCtx, pub, step.Settings); err != nil {
			o.fail(runCtx, pub, fmt.Sprintf("module %s: %v", step.Module.Name(), err))
			return
		}
	}

	content := sections.Serialize(pub.Sections)
	if strings.TrimSpace(content) == "" {
		o.fail(runCtx, pub, "no content produced")
		return
	}

	o.commit(runCtx, pub, content)

	if err := o.repo.SetStatus(runCtx, pub.ID, domain.StatusSuccess); err != nil {
		o.logger.Error("mark success", "publication", pub.ID, "error", err)
		return
	}
	pub.Status = domain.StatusSuccess
	o.log(runCtx, pub, domain.LogSuccess, "run completed", map[string]string{
		"elapsed": o.now().Sub(started).String(),
	})
}

// gate checks every precondition for leaving idle. Failures are silent: the
// publication simply stays idle until the next tick.
func (o *Orchestrator) gate(ctx context.Context, project domain.Project, pub *domain.Publication) bool {
	if !project.Enabled {
		return false
	}
	if pub.Status != domain.StatusIdle {
		return false
	}
	if pub.PublishedAt.After(o.now()) {
		return false
	}
	if pub.ParentID != "" {
		parent, err := o.repo.Parent(ctx, pub)
		if err != nil || parent == nil || parent.Status != domain.StatusSuccess {
			return false
		}
	}
	if o.entitlement != nil && !o.entitlement.IsPremium() && !o.entitlement.IsTrial() {
		return false
	}
	return true
}

// commit writes the finished publication to the document store. Each
// sub-write is independently failable and only logged as a warning.
func (o *Orchestrator) commit(ctx context.Context, pub *domain.Publication, content string) {
	handle, err := o.store.FindOrCreateDocument(ctx, pub)
	if err != nil {
		o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("find or create document: %v", err), nil)
		return
	}
	if pub.Permalink == "" {
		pub.Permalink = handle.Permalink
	}

	content = o.decorate(ctx, pub, content)

	if err := o.store.WriteContent(ctx, handle, content); err != nil {
		o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("write content: %v", err), nil)
	}

	if len(pub.Extras.ThumbnailData) > 0 {
		ref, err := o.store.AttachMedia(ctx, handle, pub.ID+"-thumbnail", bytes.NewReader(pub.Extras.ThumbnailData))
		if err != nil {
			o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("attach thumbnail: %v", err), nil)
		} else {
			pub.Extras.ThumbnailRef = ref
		}
	}

	if len(pub.Extras.Categories) > 0 || len(pub.Extras.Tags) > 0 {
		if err := o.store.SetTaxonomy(ctx, handle, pub.Extras.Categories, pub.Extras.Tags); err != nil {
			o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("set taxonomy: %v", err), nil)
		}
	}

	seo := pub.Extras.SEO
	if seo.Title != "" || seo.Description != "" || len(seo.Keywords) > 0 {
		if err := o.store.SetSEOFields(ctx, handle, seo); err != nil {
			o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("set seo fields: %v", err), nil)
		}
	}

	for key, value := range pub.Extras.Custom {
		if err := o.store.SetCustomField(ctx, handle, key, value); err != nil {
			o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("set custom field %s: %v", key, err), nil)
		}
	}
}

// decorate runs the link rewrite over the serialized content. Any failure
// keeps the undecorated content; links never block a publication.
func (o *Orchestrator) decorate(ctx context.Context, pub *domain.Publication, content string) string {
	if o.rules == nil && o.autoLinks == nil {
		return content
	}

	var rules []domain.LinkRule
	if o.rules != nil {
		loaded, err := o.rules.ListRules(ctx)
		if err != nil {
			o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("load link rules: %v", err), nil)
		} else {
			rules = loaded
		}
	}

	docCtx := links.DocContext{Permalink: pub.Permalink, ContentType: pub.ContentType}

	var related []links.RelatedItem
	if o.autoLinks != nil && o.autoLinks.Total > 0 {
		related = o.relatedItems(ctx, pub, docCtx)
	}

	rewritten, err := links.NewInjector(rules).Rewrite(content, docCtx, o.autoLinks, related)
	if err != nil {
		o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("inject links: %v", err), nil)
		return content
	}
	return rewritten
}

// relatedItems gathers related-link candidates: the parent chain first, then
// the project's recent successes as topical fill.
func (o *Orchestrator) relatedItems(ctx context.Context, pub *domain.Publication, docCtx links.DocContext) []links.RelatedItem {
	var structural []links.RelatedItem
	if parent, err := o.repo.Parent(ctx, pub); err == nil && parent != nil &&
		parent.Status == domain.StatusSuccess && parent.Permalink != "" {
		structural = append(structural, links.RelatedItem{Title: parent.Title, URL: parent.Permalink})
	}

	var topical []links.RelatedItem
	recent, err := o.repo.ListRecentPublished(ctx, pub.ProjectID, o.autoLinks.Total*2)
	if err != nil {
		o.log(ctx, pub, domain.LogWarning, fmt.Sprintf("list related publications: %v", err), nil)
	}
	for _, candidate := range recent {
		if candidate.ID == pub.ID || candidate.Permalink == "" {
			continue
		}
		topical = append(topical, links.RelatedItem{Title: candidate.Title, URL: candidate.Permalink})
	}

	return links.SelectCandidates(docCtx, structural, topical, o.autoLinks.Total)
}

// Sweep force-fails publications stuck in pending past their run budget,
// pulling a diagnostic from their own log when one exists.
func (o *Orchestrator) Sweep(ctx context.Context, now time.Time) {
	stuck, err := o.repo.ListStuckPending(ctx, now.Add(-o.runBudget))
	if err != nil {
		o.logger.Error("list stuck publications", "error", err)
		return
	}

	for _, pub := range stuck {
		message := stoppedByServer
		if last, err := o.repo.LastLog(ctx, pub.ID); err == nil &&
			last.Kind == domain.LogError && last.Message != "" {
			message = last.Message
		}
		o.fail(ctx, pub, message)
	}
}

// fail records the diagnostic and moves the publication to failed.
func (o *Orchestrator) fail(ctx context.Context, pub *domain.Publication, message string) {
	o.log(ctx, pub, domain.LogError, message, nil)
	if err := o.repo.SetStatus(ctx, pub.ID, domain.StatusFailed); err != nil {
		o.logger.Error("mark failed", "publication", pub.ID, "error", err)
		return
	}
	pub.Status = domain.StatusFailed
}

// log appends to the publication's own audit log, in memory and persisted.
func (o *Orchestrator) log(ctx context.Context, pub *domain.Publication, kind domain.LogKind, message string, extra map[string]string) {
	entry := pub.AppendLog(kind, message, extra)
	if err := o.repo.AppendLog(ctx, pub.ID, entry); err != nil {
		o.logger.Warn("persist log entry", "publication", pub.ID, "error", err)
	}
}
