package lifecycle

import (
	"errors"
	"testing"
	"time"

	"eventhub/internal/model"
)

func openEvent(now time.Time) *model.Event {
	return &model.Event{
		ID:                   "ev-1",
		Status:               model.EventUpcoming,
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(56 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		MaxParticipants:      2,
	}
}

func TestCheckAdmission_Order(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	team := TeamRequest{IsTeam: true}

	open := func() *model.Event { return openEvent(now) }

	cases := []struct {
		name  string
		event func() *model.Event
		occ   Occupancy
		team  TeamRequest
		now   time.Time
		want  error
	}{
		{"missing event", func() *model.Event { return nil }, Occupancy{}, TeamRequest{}, now, ErrEventNotFound},
		{"cancelled beats everything", func() *model.Event {
			e := openEvent(now)
			e.Status = model.EventCancelled
			return e
		}, Occupancy{HasActive: true, Active: 5}, team, now, ErrNotOpen},
		{"ongoing", open, Occupancy{}, TeamRequest{}, now.Add(50 * time.Hour), ErrNotOpen},
		{"deadline before duplicate", open, Occupancy{HasActive: true}, TeamRequest{}, now.Add(25 * time.Hour), ErrDeadlinePassed},
		{"duplicate before full", open, Occupancy{HasActive: true, Active: 2}, TeamRequest{}, now, ErrDuplicateRegistration},
		{"full before team", open, Occupancy{Active: 2}, team, now, ErrEventFull},
		{"incomplete team", open, Occupancy{Active: 1}, team, now, ErrIncompleteTeam},
		{"ok at deadline", open, Occupancy{Active: 1}, TeamRequest{}, now.Add(24 * time.Hour), nil},
		{"ok", open, Occupancy{}, TeamRequest{}, now, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckAdmission(tc.event(), tc.occ, tc.team, tc.now)
			if !errors.Is(err, tc.want) {
				t.Errorf("want %v, got %v", tc.want, err)
			}
		})
	}
}

// TestCheckAdmission_DeadlineAlwaysWins checks that a late attempt is refused
// no matter how much room is left.
func TestCheckAdmission_DeadlineAlwaysWins(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	e := openEvent(now)
	e.MaxParticipants = 1000
	for _, late := range []time.Duration{time.Second, time.Hour, 23 * time.Hour} {
		err := CheckAdmission(e, Occupancy{}, TeamRequest{}, e.RegistrationDeadline.Add(late))
		if !errors.Is(err, ErrDeadlinePassed) {
			t.Errorf("late by %v: want deadline error, got %v", late, err)
		}
	}
}

func TestCheckTeam(t *testing.T) {
	full := model.TeamMember{Name: "Asha", RollNumber: "21CS001", Department: "CSE", Year: "3"}

	cases := []struct {
		name    string
		team    string
		members []model.TeamMember
		ok      bool
	}{
		{"complete", "Byte Me", []model.TeamMember{full}, true},
		{"no name", " ", []model.TeamMember{full}, false},
		{"no members", "Byte Me", nil, false},
		{"member missing year", "Byte Me", []model.TeamMember{full, {Name: "Ravi", RollNumber: "21CS002", Department: "CSE"}}, false},
		{"member missing roll", "Byte Me", []model.TeamMember{{Name: "Ravi", Department: "CSE", Year: "2"}}, false},
	}
	for _, tc := range cases {
		err := CheckTeam(tc.team, tc.members)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrIncompleteTeam) {
			t.Errorf("%s: want incomplete team, got %v", tc.name, err)
		}
	}
}

func TestSnapshot_Override(t *testing.T) {
	s := &model.Student{Name: "Asha", RollNumber: "21CS001", Department: "CSE", Year: "3", Email: "asha@college.edu", Phone: "111"}

	snap := Snapshot(s, "", "  ")
	if snap.Email != "asha@college.edu" || snap.Phone != "111" {
		t.Errorf("profile contact expected, got %+v", snap)
	}
	snap = Snapshot(s, "asha.k@gmail.com", "222")
	if snap.Email != "asha.k@gmail.com" || snap.Phone != "222" {
		t.Errorf("override expected, got %+v", snap)
	}

	s.Name = "Asha K"
	if snap.Name != "Asha" {
		t.Errorf("snapshot must not follow profile edits, got %q", snap.Name)
	}
}

func TestSpotsRemaining(t *testing.T) {
	if got := SpotsRemaining(5, 2); got != 3 {
		t.Errorf("want 3, got %d", got)
	}
	if got := SpotsRemaining(2, 3); got != 0 {
		t.Errorf("want 0, got %d", got)
	}
}
