package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/planner"
	"AutoPublisher/internal/ports"
)

// BatchScheduler enqueues a batch of manually drafted publications, spreading
// their publish timestamps over the project's cadence settings.
type BatchScheduler struct {
	repo ports.PublicationRepository
	now  func() time.Time
}

// NewBatchScheduler wires the repository.
func NewBatchScheduler(repo ports.PublicationRepository) *BatchScheduler {
	return &BatchScheduler{repo: repo, now: time.Now}
}

// Enqueue assigns a planned slot to each draft in order and persists them as
// idle publications. Drafts keep their own titles and content types; only
// identity, project binding, status, and timing are filled in here.
func (s *BatchScheduler) Enqueue(ctx context.Context, project domain.Project, drafts []*domain.Publication) error {
	if len(drafts) == 0 {
		return nil
	}

	window := planner.Window{
		StartMinute: project.Autopilot.WindowStart,
		EndMinute:   project.Autopilot.WindowEnd,
	}
	slots := planner.Plan(s.now(), len(drafts), project.Autopilot.PerDay,
		project.Autopilot.Weekdays, window)

	for i, draft := range drafts {
		if draft.ID == "" {
			draft.ID = uuid.NewString()
		}
		draft.ProjectID = project.ID
		draft.Status = domain.StatusIdle
		draft.PublishedAt = slots[i]
		if draft.ContentType == "" {
			draft.ContentType = "post"
		}

		if err := s.repo.Create(ctx, draft); err != nil {
			return fmt.Errorf("enqueue draft %d of %d: %w", i+1, len(drafts), err)
		}
	}
	return nil
}
