package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedEvent(t *testing.T, m *Memory, id string, max int) *model.Event {
	t.Helper()
	e := &model.Event{
		ID:                   id,
		Title:                "Event " + id,
		Category:             model.CategoryWorkshop,
		Status:               model.EventUpcoming,
		StartDate:            testNow.Add(72 * time.Hour),
		EndDate:              testNow.Add(80 * time.Hour),
		RegistrationDeadline: testNow.Add(48 * time.Hour),
		MaxParticipants:      max,
	}
	if err := m.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func admitAt(now time.Time) AdmitFunc {
	return func(e *model.Event, occ lifecycle.Occupancy) error {
		return lifecycle.CheckAdmission(e, occ, lifecycle.TeamRequest{}, now)
	}
}

func TestMemory_ListEventsByEffectiveStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedEvent(t, m, "a", 1)
	past := seedEvent(t, m, "b", 1)
	past.StartDate = testNow.Add(-10 * time.Hour)
	past.EndDate = testNow.Add(-2 * time.Hour)
	past.RegistrationDeadline = testNow.Add(-20 * time.Hour)
	if err := m.UpdateEvent(ctx, past); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, total, err := m.ListEvents(ctx, EventFilter{Status: model.EventCompleted, Now: testNow, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("want only b completed, got %d %+v", total, got)
	}

	n, err := m.SyncEventStatuses(ctx, testNow)
	if err != nil || n != 1 {
		t.Fatalf("want one synced event, got %d %v", n, err)
	}
	e, _ := m.GetEventByID(ctx, "b")
	if e.Status != model.EventCompleted {
		t.Fatalf("want stored status completed, got %s", e.Status)
	}
}

func TestMemory_Pagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		seedEvent(t, m, fmt.Sprintf("e%d", i), 1)
	}
	page, total, _ := m.ListEvents(ctx, EventFilter{Page: 3, Limit: 2, Now: testNow})
	if total != 5 || len(page) != 1 || page[0].ID != "e4" {
		t.Fatalf("unexpected last page: total=%d %+v", total, page)
	}
	page, _, _ = m.ListEvents(ctx, EventFilter{Page: 4, Limit: 2, Now: testNow})
	if len(page) != 0 {
		t.Fatalf("want empty page past the end, got %d", len(page))
	}
}
