package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

// Memory is a mutex-guarded store. Every write holds the lock for its whole
// check-and-write, which gives the same atomicity the SQL transactions do.
// Records are copied on the way in and out.
type Memory struct {
	mu            sync.Mutex
	events        map[string]model.Event
	registrations map[string]model.Registration
	students      map[string]model.Student
	admins        map[string]model.Admin
}

func NewMemory() *Memory {
	return &Memory{
		events:        map[string]model.Event{},
		registrations: map[string]model.Registration{},
		students:      map[string]model.Student{},
		admins:        map[string]model.Admin{},
	}
}

func cloneEvent(e model.Event) model.Event {
	if e.AdditionalFields != nil {
		extra := make(map[string]any, len(e.AdditionalFields))
		for k, v := range e.AdditionalFields {
			extra[k] = v
		}
		e.AdditionalFields = extra
	}
	e.SubEvents = nil
	return e
}

func cloneRegistration(r model.Registration) model.Registration {
	if r.TeamMembers != nil {
		r.TeamMembers = append([]model.TeamMember(nil), r.TeamMembers...)
	}
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	if r.Payment != nil {
		p := *r.Payment
		r.Payment = &p
	}
	return r
}

func sortEvents(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
}

func (m *Memory) CreateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = cloneEvent(*e)
	return nil
}

func (m *Memory) GetEventByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	out := cloneEvent(e)
	return &out, nil
}

func (m *Memory) ListEvents(_ context.Context, f EventFilter) ([]model.Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.Event
	for _, e := range m.events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Status != "" && lifecycle.EffectiveStatus(e.Status, e.StartDate, e.EndDate, f.Now) != f.Status {
			continue
		}
		matched = append(matched, cloneEvent(e))
	}
	sortEvents(matched)

	total := len(matched)
	from := f.Offset()
	if from >= total {
		return nil, total, nil
	}
	to := total
	if f.Limit > 0 && from+f.Limit < total {
		to = from + f.Limit
	}
	return matched[from:to], total, nil
}

func (m *Memory) ListAllEvents(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, cloneEvent(e))
	}
	sortEvents(out)
	return out, nil
}

func (m *Memory) GetSubEvents(_ context.Context, mainIDs []string) ([]model.Event, error) {
	if len(mainIDs) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(mainIDs))
	for _, id := range mainIDs {
		want[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if e.MainEventID != "" && want[e.MainEventID] {
			out = append(out, cloneEvent(e))
		}
	}
	sortEvents(out)
	return out, nil
}

func (m *Memory) UpdateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[e.ID]
	if !ok {
		return ErrEventNotFound
	}
	next := cloneEvent(*e)
	next.Status = cur.Status
	next.MainEventID = cur.MainEventID
	next.IsMainEvent = cur.IsMainEvent
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	m.events[e.ID] = next
	return nil
}

func (m *Memory) CancelEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.Status = model.EventCancelled
	e.UpdatedAt = time.Now()
	m.events[id] = e
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrEventNotFound
	}
	for _, r := range m.registrations {
		if r.EventID == id {
			return ErrEventHasRegistrations
		}
	}
	delete(m.events, id)
	return nil
}

func (m *Memory) SyncEventStatuses(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.events {
		next := lifecycle.EffectiveStatus(e.Status, e.StartDate, e.EndDate, now)
		if next != e.Status {
			e.Status = next
			e.UpdatedAt = now
			m.events[id] = e
			n++
		}
	}
	return n, nil
}

func (m *Memory) occupancy(eventID, studentID string) lifecycle.Occupancy {
	var occ lifecycle.Occupancy
	for _, r := range m.registrations {
		if r.EventID != eventID {
			continue
		}
		if r.StudentID == studentID && r.Status != model.RegCancelled {
			occ.HasActive = true
		}
		if lifecycle.HoldsSeat(r.Status) {
			occ.Active++
		}
	}
	return occ
}

func (m *Memory) BookRegistrationTx(_ context.Context, reg *model.Registration, admit AdmitFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[reg.EventID]
	if !ok {
		return ErrEventNotFound
	}
	event := cloneEvent(e)
	if err := admit(&event, m.occupancy(reg.EventID, reg.StudentID)); err != nil {
		return err
	}
	m.registrations[reg.ID] = cloneRegistration(*reg)
	return nil
}

func (m *Memory) ChangeRegistrationStatusTx(_ context.Context, id string, next model.RegistrationStatus, allow ChangeFunc) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	e, ok := m.events[r.EventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	event := cloneEvent(e)
	reg := cloneRegistration(r)
	if err := allow(&event, &reg, m.occupancy(r.EventID, "").Active); err != nil {
		return nil, err
	}
	if reg.Status == next {
		return &reg, nil
	}
	if next != model.RegCancelled && r.Status == model.RegCancelled && m.occupancy(r.EventID, r.StudentID).HasActive {
		return nil, ErrDuplicateRegistration
	}
	reg.Status = next
	reg.UpdatedAt = time.Now()
	m.registrations[id] = cloneRegistration(reg)
	return &reg, nil
}

func (m *Memory) GetRegistrationByID(_ context.Context, id string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	out := cloneRegistration(r)
	return &out, nil
}

func (m *Memory) collect(keep func(r model.Registration) bool) []model.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, r := range m.registrations {
		if keep(r) {
			out = append(out, cloneRegistration(r))
		}
	}
	return out
}

func (m *Memory) GetRegistrationsByEventID(_ context.Context, eventID string) ([]model.Registration, error) {
	out := m.collect(func(r model.Registration) bool {
		return r.EventID == eventID && r.Status != model.RegCancelled
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.Before(out[j].RegistrationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetRegistrationsByStudentID(_ context.Context, studentID string) ([]model.Registration, error) {
	out := m.collect(func(r model.Registration) bool { return r.StudentID == studentID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.After(out[j].RegistrationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func statusSet(statuses []model.RegistrationStatus) map[model.RegistrationStatus]bool {
	set := make(map[model.RegistrationStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func (m *Memory) CountRegistrations(_ context.Context, eventID string, statuses []model.RegistrationStatus) (int, error) {
	set := statusSet(statuses)
	return len(m.collect(func(r model.Registration) bool { return r.EventID == eventID && set[r.Status] })), nil
}

func (m *Memory) CountRegistrationsByEvent(_ context.Context, statuses []model.RegistrationStatus) (map[string]int, error) {
	set := statusSet(statuses)
	counts := make(map[string]int)
	for _, r := range m.collect(func(r model.Registration) bool { return set[r.Status] }) {
		counts[r.EventID]++
	}
	return counts, nil
}

func (m *Memory) CreateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.students {
		if cur.RollNumber == s.RollNumber {
			return ErrAccountExists
		}
	}
	m.students[s.ID] = *s
	return nil
}

func (m *Memory) GetStudentByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	return &s, nil
}

func (m *Memory) GetStudentByRollNumber(_ context.Context, roll string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.RollNumber == roll {
			out := s
			return &out, nil
		}
	}
	return nil, ErrStudentNotFound
}

func (m *Memory) CreateAdmin(_ context.Context, a *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.admins {
		if strings.EqualFold(cur.Email, a.Email) {
			return ErrAccountExists
		}
	}
	m.admins[a.ID] = *a
	return nil
}

func (m *Memory) GetAdminByID(_ context.Context, id string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return &a, nil
}

func (m *Memory) GetAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			out := a
			return &out, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (m *Memory) UpdatePassword(_ context.Context, role, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == model.RoleAdmin {
		a, ok := m.admins[id]
		if !ok {
			return ErrAdminNotFound
		}
		a.PasswordHash = hash
		m.admins[id] = a
		return nil
	}
	s, ok := m.students[id]
	if !ok {
		return ErrStudentNotFound
	}
	s.PasswordHash = hash
	m.students[id] = s
	return nil
}
