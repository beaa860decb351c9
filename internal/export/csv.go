package export

import (
	"encoding/csv"
	"io"
	"time"

	"eventhub/internal/model"
)

var Header = []string{"RollNumber", "Name", "Email", "Phone", "Department", "Year", "RegistrationDate"}

const teamMemberSuffix = " (Team Member)"

// WriteRegistrations writes one row per registration and one extra row per
// team member, in input order.
func WriteRegistrations(w io.Writer, regs []model.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range regs {
		date := r.RegistrationDate.UTC().Format(time.RFC3339)
		s := r.Student
		if err := cw.Write([]string{s.RollNumber, s.Name, s.Email, s.Phone, s.Department, s.Year, date}); err != nil {
			return err
		}
		if !r.IsTeamRegistration {
			continue
		}
		for _, m := range r.TeamMembers {
			row := []string{m.RollNumber, m.Name + teamMemberSuffix, m.Email, m.Phone, m.Department, m.Year, date}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for an event export.
func Filename(e *model.Event) string {
	name := make([]rune, 0, len(e.Title))
	for _, r := range e.Title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			name = append(name, r)
		case r == ' ':
			name = append(name, '_')
		}
	}
	if len(name) == 0 {
		return "registrations_" + e.ID + ".csv"
	}
	return string(name) + "_registrations.csv"
}
