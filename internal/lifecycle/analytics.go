package lifecycle

import (
	"time"

	"eventhub/internal/model"
)

type EventCount struct {
	EventID           string    `json:"eventId"`
	Title             string    `json:"title"`
	Category          string    `json:"category"`
	StartDate         time.Time `json:"startDate"`
	RegistrationCount int       `json:"registrationCount"`
}

// BuildAnalytics pairs every event with its count. Events without
// registrations report zero.
func BuildAnalytics(events []model.Event, counts map[string]int) ([]EventCount, int) {
	out := make([]EventCount, 0, len(events))
	total := 0
	for _, e := range events {
		n := counts[e.ID]
		total += n
		out = append(out, EventCount{
			EventID:           e.ID,
			Title:             e.Title,
			Category:          e.Category,
			StartDate:         e.StartDate,
			RegistrationCount: n,
		})
	}
	return out, total
}
