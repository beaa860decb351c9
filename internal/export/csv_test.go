package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"eventhub/internal/model"
)

func TestWriteRegistrations_Rows(t *testing.T) {
	when := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	regs := []model.Registration{
		{
			Student:          model.StudentSnapshot{Name: "Asha", RollNumber: "21CS001", Department: "CSE", Year: "3", Email: "asha@college.edu", Phone: "9000000001"},
			RegistrationDate: when,
		},
		{
			Student:            model.StudentSnapshot{Name: "Ravi, Jr.", RollNumber: "21EC014", Department: "ECE", Year: "2", Email: "ravi@college.edu", Phone: "9000000002"},
			RegistrationDate:   when.Add(time.Hour),
			IsTeamRegistration: true,
			TeamName:           "Byte Me",
			TeamMembers: []model.TeamMember{
				{Name: "Meera", RollNumber: "21EC020", Department: "ECE", Year: "2", Email: "meera@college.edu", Phone: "9000000003"},
				{Name: "Kiran", RollNumber: "21ME007", Department: "MECH", Year: "2"},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteRegistrations(&buf, regs); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if want := 1 + len(regs) + 2; len(rows) != want {
		t.Fatalf("rows: want %d, got %d", want, len(rows))
	}

	want := [][]string{
		Header,
		{"21CS001", "Asha", "asha@college.edu", "9000000001", "CSE", "3", "2026-01-15T08:30:00Z"},
		{"21EC014", "Ravi, Jr.", "ravi@college.edu", "9000000002", "ECE", "2", "2026-01-15T09:30:00Z"},
		{"21EC020", "Meera (Team Member)", "meera@college.edu", "9000000003", "ECE", "2", "2026-01-15T09:30:00Z"},
		{"21ME007", "Kiran (Team Member)", "", "", "MECH", "2", "2026-01-15T09:30:00Z"},
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d: want %q, got %q", i, j, want[i][j], rows[i][j])
			}
		}
	}
}

func TestWriteRegistrations_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRegistrations(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "RollNumber,Name,Email,Phone,Department,Year,RegistrationDate\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(&model.Event{ID: "x", Title: "Code Sprint #2"}); got != "Code_Sprint_2_registrations.csv" {
		t.Errorf("got %q", got)
	}
	if got := Filename(&model.Event{ID: "x", Title: "!!"}); got != "registrations_x.csv" {
		t.Errorf("got %q", got)
	}
}
