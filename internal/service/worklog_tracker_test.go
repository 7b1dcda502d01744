package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

func TestStartOnAssignmentIsIdempotent(t *testing.T) {
	repo := newFakeWorkLogRepo()
	tracker := NewWorkLogTracker(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := tracker.StartOnAssignment(ctx, "tck-1", "tech-7"); err != nil {
			t.Fatalf("StartOnAssignment failed: %v", err)
		}
	}
	if open := repo.openFor("tck-1", "tech-7"); len(open) != 1 {
		t.Fatalf("expected a single open log, got %d", len(open))
	}
}

func TestCloseOnReassignmentAnnotatesReason(t *testing.T) {
	repo := newFakeWorkLogRepo()
	tracker := NewWorkLogTracker(repo)
	ctx := context.Background()

	if err := tracker.StartOnAssignment(ctx, "tck-1", "tech-7"); err != nil {
		t.Fatalf("StartOnAssignment failed: %v", err)
	}
	if err := tracker.CloseOnReassignment(ctx, "tck-1", "tech-7", "shift change"); err != nil {
		t.Fatalf("CloseOnReassignment failed: %v", err)
	}

	logs, _ := repo.ListByTicket(ctx, "tck-1")
	if len(logs) != 1 {
		t.Fatalf("expected one log, got %d", len(logs))
	}
	if logs[0].EndedAt == nil {
		t.Fatal("log not closed")
	}
	if want := "assigned - work started; transferred: shift change"; logs[0].Description != want {
		t.Fatalf("unexpected description %q", logs[0].Description)
	}
}

func TestCloseOnReassignmentWithoutOpenLogIsNoOp(t *testing.T) {
	repo := newFakeWorkLogRepo()
	tracker := NewWorkLogTracker(repo)

	if err := tracker.CloseOnReassignment(context.Background(), "tck-1", "tech-7", "whatever"); err != nil {
		t.Fatalf("expected nil error for missing open log, got %v", err)
	}
}

func TestCloseOnReassignmentTruncatesDescription(t *testing.T) {
	repo := newFakeWorkLogRepo()
	tracker := NewWorkLogTracker(repo)
	ctx := context.Background()

	if err := tracker.StartOnAssignment(ctx, "tck-1", "tech-7"); err != nil {
		t.Fatalf("StartOnAssignment failed: %v", err)
	}
	reason := strings.Repeat("x", domain.WorkLogDescriptionLimit)
	if err := tracker.CloseOnReassignment(ctx, "tck-1", "tech-7", reason); err != nil {
		t.Fatalf("CloseOnReassignment failed: %v", err)
	}

	logs, _ := repo.ListByTicket(ctx, "tck-1")
	if got := len(logs[0].Description); got != domain.WorkLogDescriptionLimit {
		t.Fatalf("description length %d, want %d", got, domain.WorkLogDescriptionLimit)
	}
}

func TestCloseAllOnTerminalStatusClosesEveryOwner(t *testing.T) {
	repo := newFakeWorkLogRepo()
	tracker := NewWorkLogTracker(repo)
	ctx := context.Background()

	for _, tech := range []string{"tech-7", "tech-9"} {
		if err := tracker.StartOnAssignment(ctx, "tck-1", tech); err != nil {
			t.Fatalf("StartOnAssignment failed: %v", err)
		}
	}
	// an open log on another ticket must survive
	if err := tracker.StartOnAssignment(ctx, "tck-2", "tech-7"); err != nil {
		t.Fatalf("StartOnAssignment failed: %v", err)
	}

	if err := tracker.CloseAllOnTerminalStatus(ctx, "tck-1", domain.TicketStatusCancelled); err != nil {
		t.Fatalf("CloseAllOnTerminalStatus failed: %v", err)
	}

	open, _ := repo.ListOpenByTicket(ctx, "tck-1")
	if len(open) != 0 {
		t.Fatalf("ticket still has %d open logs", len(open))
	}
	logs, _ := repo.ListByTicket(ctx, "tck-1")
	for _, entry := range logs {
		if !strings.HasSuffix(entry.Description, "; closed: ticket CANCELLED") {
			t.Fatalf("closed log missing annotation: %q", entry.Description)
		}
	}
	if other := repo.openFor("tck-2", "tech-7"); len(other) != 1 {
		t.Fatal("closure leaked onto a different ticket")
	}
}
