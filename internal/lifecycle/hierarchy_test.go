package lifecycle

import (
	"errors"
	"testing"
	"time"

	"eventhub/internal/model"
)

func TestAttachSubEvents(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	page := []model.Event{
		{ID: "fest", IsMainEvent: true},
		{ID: "talk"},
		{ID: "expo", IsMainEvent: true},
	}
	children := []model.Event{
		{ID: "c3", MainEventID: "fest", StartDate: base.Add(3 * time.Hour)},
		{ID: "c1", MainEventID: "fest", StartDate: base.Add(1 * time.Hour)},
		{ID: "c2", MainEventID: "fest", StartDate: base.Add(2 * time.Hour)},
		{ID: "orphan", MainEventID: "deleted", StartDate: base},
	}

	got := AttachSubEvents(page, children)

	var ids []string
	for _, s := range got[0].SubEvents {
		ids = append(ids, s.ID)
	}
	if len(ids) != 3 || ids[0] != "c1" || ids[1] != "c2" || ids[2] != "c3" {
		t.Errorf("fest children: want [c1 c2 c3], got %v", ids)
	}
	if got[1].SubEvents != nil {
		t.Errorf("plain event must not carry children")
	}
	if len(got[2].SubEvents) != 0 {
		t.Errorf("expo: want no children, got %d", len(got[2].SubEvents))
	}
	if mains := MainEventIDs(page); len(mains) != 2 || mains[0] != "fest" || mains[1] != "expo" {
		t.Errorf("main ids: got %v", mains)
	}
}

func TestValidateEvent(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	good := model.Event{
		StartDate:            start,
		EndDate:              start.Add(time.Hour),
		RegistrationDeadline: start.Add(-time.Hour),
		MaxParticipants:      1,
	}
	if err := ValidateEvent(&good); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(e *model.Event)
		want   error
	}{
		{"end equals start", func(e *model.Event) { e.EndDate = e.StartDate }, ErrInvalidDates},
		{"deadline at start", func(e *model.Event) { e.RegistrationDeadline = e.StartDate }, ErrInvalidDeadline},
		{"zero capacity", func(e *model.Event) { e.MaxParticipants = 0 }, ErrInvalidCapacity},
		{"main with parent", func(e *model.Event) { e.IsMainEvent = true; e.MainEventID = "x" }, ErrInvalidHierarchy},
	}
	for _, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := ValidateEvent(&e); !errors.Is(err, tc.want) {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidateParent(t *testing.T) {
	if err := ValidateParent(nil); !errors.Is(err, ErrParentNotFound) {
		t.Errorf("nil parent: got %v", err)
	}
	if err := ValidateParent(&model.Event{}); !errors.Is(err, ErrInvalidHierarchy) {
		t.Errorf("non-main parent: got %v", err)
	}
	if err := ValidateParent(&model.Event{IsMainEvent: true}); err != nil {
		t.Errorf("main parent: %v", err)
	}
}

func TestBuildAnalytics(t *testing.T) {
	events := []model.Event{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	rows, total := BuildAnalytics(events, map[string]int{"a": 4, "zzz": 9})
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].RegistrationCount != 4 || rows[1].RegistrationCount != 0 {
		t.Errorf("counts: got %d, %d", rows[0].RegistrationCount, rows[1].RegistrationCount)
	}
	if total != 4 {
		t.Errorf("total: want 4, got %d", total)
	}
}
