// Package lifecycle holds the rules that decide an event's effective state and
// whether a registration may be created, moved or cancelled. Nothing here
// touches storage; callers pass in the records and the current time.
package lifecycle

import (
	"time"

	"eventhub/internal/model"
)

// EffectiveStatus derives the state an event is in at now. A stored
// cancellation always wins; otherwise the dates decide.
func EffectiveStatus(stored model.EventStatus, start, end, now time.Time) model.EventStatus {
	if stored == model.EventCancelled {
		return model.EventCancelled
	}
	if !now.Before(start) && !now.After(end) {
		return model.EventOngoing
	}
	if end.Before(now) {
		return model.EventCompleted
	}
	return model.EventUpcoming
}

// Derive overwrites e.Status with the effective status at now.
func Derive(e *model.Event, now time.Time) {
	e.Status = EffectiveStatus(e.Status, e.StartDate, e.EndDate, now)
	for i := range e.SubEvents {
		Derive(&e.SubEvents[i], now)
	}
}

// DeriveAll applies Derive to each event of a page.
func DeriveAll(events []model.Event, now time.Time) {
	for i := range events {
		Derive(&events[i], now)
	}
}

func ValidEventStatus(s model.EventStatus) bool {
	switch s {
	case model.EventUpcoming, model.EventOngoing, model.EventCompleted, model.EventCancelled:
		return true
	}
	return false
}
