package lifecycle

import (
	"sort"

	"eventhub/internal/model"
)

// MainEventIDs lists the ids of main events on a page.
func MainEventIDs(page []model.Event) []string {
	var ids []string
	for _, e := range page {
		if e.IsMainEvent {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// AttachSubEvents nests children under their main events, ordered by start
// date. Children whose parent is not on the page are dropped.
func AttachSubEvents(page []model.Event, children []model.Event) []model.Event {
	byParent := make(map[string][]model.Event)
	for _, c := range children {
		if c.MainEventID == "" {
			continue
		}
		byParent[c.MainEventID] = append(byParent[c.MainEventID], c)
	}
	for i := range page {
		if !page[i].IsMainEvent {
			continue
		}
		subs := byParent[page[i].ID]
		sort.SliceStable(subs, func(a, b int) bool {
			return subs[a].StartDate.Before(subs[b].StartDate)
		})
		page[i].SubEvents = subs
	}
	return page
}

// ValidateEvent checks the cross-field invariants of an event record.
func ValidateEvent(e *model.Event) error {
	if !e.EndDate.After(e.StartDate) {
		return ErrInvalidDates
	}
	if !e.RegistrationDeadline.Before(e.StartDate) {
		return ErrInvalidDeadline
	}
	if e.MaxParticipants < 1 {
		return ErrInvalidCapacity
	}
	if e.IsMainEvent && e.MainEventID != "" {
		return ErrInvalidHierarchy
	}
	if e.MainEventID != "" && e.MainEventID == e.ID {
		return ErrInvalidHierarchy
	}
	return nil
}

// ValidateParent checks that parent may own sub-events. The tree is one level
// deep, so a parent must not be a sub-event itself.
func ValidateParent(parent *model.Event) error {
	if parent == nil {
		return ErrParentNotFound
	}
	if !parent.IsMainEvent || parent.MainEventID != "" {
		return ErrInvalidHierarchy
	}
	return nil
}
