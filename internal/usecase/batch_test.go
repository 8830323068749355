package usecase

import (
	"context"
	"testing"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/planner"
)

func TestBatchEnqueueAssignsPlannedSlots(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	scheduler := NewBatchScheduler(repo)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) // Tuesday
	scheduler.now = func() time.Time { return now }

	project := domain.Project{
		ID:      "proj",
		Enabled: true,
		Autopilot: domain.AutopilotSettings{
			PerDay:      2,
			WindowStart: 9 * 60,
			WindowEnd:   18 * 60,
			Weekdays:    []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		},
	}

	drafts := []*domain.Publication{
		{Title: "First"},
		{Title: "Second"},
		{Title: "Third", ContentType: "page"},
	}
	if err := scheduler.Enqueue(context.Background(), project, drafts); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	expected := planner.Plan(now, 3, 2, project.Autopilot.Weekdays,
		planner.Window{StartMinute: 9 * 60, EndMinute: 18 * 60})

	for i, draft := range drafts {
		if draft.ID == "" || draft.ProjectID != "proj" || draft.Status != domain.StatusIdle {
			t.Fatalf("draft %d not prepared: %+v", i, draft)
		}
		if !draft.PublishedAt.Equal(expected[i]) {
			t.Fatalf("draft %d slot = %v, want %v", i, draft.PublishedAt, expected[i])
		}
		if _, ok := repo.pubs[draft.ID]; !ok {
			t.Fatalf("draft %d not persisted", i)
		}
	}
	if drafts[0].ContentType != "post" || drafts[2].ContentType != "page" {
		t.Fatalf("content-type defaulting wrong: %q, %q", drafts[0].ContentType, drafts[2].ContentType)
	}
	if drafts[0].PublishedAt.Weekday() != time.Wednesday {
		t.Fatalf("first chunk must land on the next enabled weekday, got %v", drafts[0].PublishedAt.Weekday())
	}
}

func TestBatchEnqueueEmptyIsNoOp(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	if err := NewBatchScheduler(repo).Enqueue(context.Background(), domain.Project{ID: "proj"}, nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(repo.pubs) != 0 {
		t.Fatalf("no publications expected, got %d", len(repo.pubs))
	}
}
