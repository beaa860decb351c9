package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

// namespace prefixes ids so contract runs can share a database.
type namespace struct {
	store  Repository
	prefix string
	seq    int
}

func newNamespace(t *testing.T, store Repository) *namespace {
	t.Helper()
	return &namespace{store: store, prefix: uuid.NewString()[:8]}
}

func (ns *namespace) id(kind string) string {
	ns.seq++
	return fmt.Sprintf("%s-%s%d", ns.prefix, kind, ns.seq)
}

func (ns *namespace) event(t *testing.T, max int) string {
	t.Helper()
	id := ns.id("ev")
	e := &model.Event{
		ID:                   id,
		Title:                "Event " + id,
		Category:             model.CategoryWorkshop,
		Status:               model.EventUpcoming,
		StartDate:            testNow.Add(72 * time.Hour),
		EndDate:              testNow.Add(80 * time.Hour),
		RegistrationDeadline: testNow.Add(48 * time.Hour),
		MaxParticipants:      max,
		CreatedAt:            testNow,
		UpdatedAt:            testNow,
	}
	if err := ns.store.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return id
}

func (ns *namespace) students(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = ns.id("st")
		err := ns.store.CreateStudent(context.Background(), &model.Student{
			ID:           ids[i],
			RollNumber:   ids[i],
			Name:         "Student " + ids[i],
			PasswordHash: "x",
			CreatedAt:    testNow,
		})
		if err != nil {
			t.Fatalf("create student: %v", err)
		}
	}
	return ids
}

func registration(id, student, event string) *model.Registration {
	return &model.Registration{
		ID:               id,
		StudentID:        student,
		EventID:          event,
		Student:          model.StudentSnapshot{Name: "Student " + student, RollNumber: student},
		Status:           model.RegRegistered,
		RegistrationDate: testNow,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
}

type raceResult struct {
	ok, full, dup int
	other         []error
}

// raceBookings books every student in parallel, one goroutine per entry.
func raceBookings(ctx context.Context, store Repository, eventID string, students []string) raceResult {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res raceResult
	)
	for _, st := range students {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			err := store.BookRegistrationTx(ctx, registration(uuid.NewString(), st, eventID), admitAt(testNow))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.ok++
			case errors.Is(err, ErrEventFull):
				res.full++
			case errors.Is(err, ErrDuplicateRegistration):
				res.dup++
			default:
				res.other = append(res.other, err)
			}
		}(st)
	}
	wg.Wait()
	return res
}

func moveTo(next model.RegistrationStatus) ChangeFunc {
	return func(e *model.Event, reg *model.Registration, active int) error {
		return lifecycle.CheckStatusChange(e, reg, next, active)
	}
}

// runStoreContract checks the booking guarantees every Repository must give.
func runStoreContract(t *testing.T, open func(t *testing.T) Repository) {
	t.Run("parallel duplicate booking", func(t *testing.T) {
		store := open(t)
		ns := newNamespace(t, store)
		ev := ns.event(t, 100)
		st := ns.students(t, 1)[0]

		attempts := make([]string, 16)
		for i := range attempts {
			attempts[i] = st
		}
		res := raceBookings(context.Background(), store, ev, attempts)
		if len(res.other) > 0 {
			t.Fatalf("unexpected errors: %v", res.other)
		}
		if res.ok != 1 || res.dup != len(attempts)-1 {
			t.Fatalf("want 1 booked and %d duplicates, got %d and %d", len(attempts)-1, res.ok, res.dup)
		}
		n, err := store.CountRegistrations(context.Background(), ev, lifecycle.CapacityStatuses)
		if err != nil || n != 1 {
			t.Fatalf("want 1 stored registration, got %d (%v)", n, err)
		}
	})

	t.Run("capacity under concurrency", func(t *testing.T) {
		store := open(t)
		ns := newNamespace(t, store)
		ev := ns.event(t, 4)

		res := raceBookings(context.Background(), store, ev, ns.students(t, 20))
		if len(res.other) > 0 {
			t.Fatalf("unexpected errors: %v", res.other)
		}
		if res.ok != 4 || res.full != 16 {
			t.Fatalf("want 4 admitted and 16 full, got %d and %d", res.ok, res.full)
		}
		n, err := store.CountRegistrations(context.Background(), ev, lifecycle.CapacityStatuses)
		if err != nil || n != 4 {
			t.Fatalf("want 4 seats held, got %d (%v)", n, err)
		}
	})

	t.Run("rebook after cancel", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		ns := newNamespace(t, store)
		ev := ns.event(t, 1)
		st := ns.students(t, 1)[0]

		first := ns.id("reg")
		if err := store.BookRegistrationTx(ctx, registration(first, st, ev), admitAt(testNow)); err != nil {
			t.Fatalf("book: %v", err)
		}
		cancel := func(e *model.Event, reg *model.Registration, _ int) error {
			return lifecycle.CheckSelfCancel(e, reg, st, testNow)
		}
		reg, err := store.ChangeRegistrationStatusTx(ctx, first, model.RegCancelled, cancel)
		if err != nil || reg.Status != model.RegCancelled {
			t.Fatalf("cancel: %v %v", reg, err)
		}
		if err := store.BookRegistrationTx(ctx, registration(ns.id("reg"), st, ev), admitAt(testNow)); err != nil {
			t.Fatalf("rebook after cancel: %v", err)
		}
	})

	t.Run("promotion rechecks capacity", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		ns := newNamespace(t, store)
		ev := ns.event(t, 1)
		sts := ns.students(t, 2)

		first := ns.id("reg")
		if err := store.BookRegistrationTx(ctx, registration(first, sts[0], ev), admitAt(testNow)); err != nil {
			t.Fatalf("book: %v", err)
		}
		if _, err := store.ChangeRegistrationStatusTx(ctx, first, model.RegWaitlisted, moveTo(model.RegWaitlisted)); err != nil {
			t.Fatalf("waitlist: %v", err)
		}
		if err := store.BookRegistrationTx(ctx, registration(ns.id("reg"), sts[1], ev), admitAt(testNow)); err != nil {
			t.Fatalf("book freed seat: %v", err)
		}
		if _, err := store.ChangeRegistrationStatusTx(ctx, first, model.RegConfirmed, moveTo(model.RegConfirmed)); !errors.Is(err, ErrEventFull) {
			t.Fatalf("want ErrEventFull, got %v", err)
		}
		reg, err := store.GetRegistrationByID(ctx, first)
		if err != nil || reg.Status != model.RegWaitlisted {
			t.Fatalf("failed promotion must not change status, got %v (%v)", reg, err)
		}
		n, _ := store.CountRegistrations(ctx, ev, lifecycle.CapacityStatuses)
		if n != 1 {
			t.Fatalf("want 1 seat held, got %d", n)
		}
	})

	t.Run("delete guard", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)
		ns := newNamespace(t, store)
		busy := ns.event(t, 3)
		empty := ns.event(t, 3)
		st := ns.students(t, 1)[0]

		reg := ns.id("reg")
		if err := store.BookRegistrationTx(ctx, registration(reg, st, busy), admitAt(testNow)); err != nil {
			t.Fatalf("book: %v", err)
		}
		if _, err := store.ChangeRegistrationStatusTx(ctx, reg, model.RegCancelled, moveTo(model.RegCancelled)); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := store.DeleteEvent(ctx, busy); !errors.Is(err, ErrEventHasRegistrations) {
			t.Fatalf("want ErrEventHasRegistrations, got %v", err)
		}
		if err := store.DeleteEvent(ctx, empty); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.GetEventByID(ctx, empty); !errors.Is(err, ErrEventNotFound) {
			t.Fatalf("want ErrEventNotFound, got %v", err)
		}
	})
}

func TestMemory_StoreContract(t *testing.T) {
	runStoreContract(t, func(*testing.T) Repository { return NewMemory() })
}
