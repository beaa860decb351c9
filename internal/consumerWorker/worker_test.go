package consumerWorker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
	"eventhub/internal/repo"
)

type sentMail struct{ to, subject string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeSender) Send(to, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to, subject})
	return nil
}

type chanConsumer struct {
	bodies chan []byte
}

func (c chanConsumer) Consume(ctx context.Context, handler func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-c.bodies:
			_ = handler(b)
		}
	}
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*repo.Memory, *fakeSender, *Reader) {
	t.Helper()
	ctx := context.Background()
	m := repo.NewMemory()
	_ = m.CreateEvent(ctx, &model.Event{
		ID:                   "ev",
		Title:                "Go Workshop",
		Status:               model.EventUpcoming,
		StartDate:            now.Add(24 * time.Hour),
		EndDate:              now.Add(26 * time.Hour),
		RegistrationDeadline: now.Add(12 * time.Hour),
		MaxParticipants:      10,
	})
	for _, r := range []model.Registration{
		{ID: "r1", StudentID: "s1", EventID: "ev", Status: model.RegRegistered, Student: model.StudentSnapshot{Name: "A", Email: "a@college.edu"}},
		{ID: "r2", StudentID: "s2", EventID: "ev", Status: model.RegRegistered, Student: model.StudentSnapshot{Name: "B", Email: "b@college.edu"}},
	} {
		r := r
		if err := m.BookRegistrationTx(ctx, &r, func(*model.Event, lifecycle.Occupancy) error { return nil }); err != nil {
			t.Fatalf("seed registration: %v", err)
		}
	}
	sender := &fakeSender{}
	log := zerolog.Nop()
	reader := NewReader(nil, m, sender, &log)
	reader.now = func() time.Time { return now }
	return m, sender, reader
}

func message(t *testing.T, msg dto.NotificationMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandle_Registered(t *testing.T) {
	_, sender, reader := setup(t)
	err := reader.Handle(context.Background(), message(t, dto.NotificationMessage{Kind: dto.NotifyRegistered, RegistrationID: "r1", EventID: "ev"}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "a@college.edu" {
		t.Fatalf("unexpected mail: %+v", sender.sent)
	}
}

func TestHandle_SkipsCancelledRegistration(t *testing.T) {
	m, sender, reader := setup(t)
	_, err := m.ChangeRegistrationStatusTx(context.Background(), "r1", model.RegCancelled,
		func(*model.Event, *model.Registration, int) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	_ = reader.Handle(context.Background(), message(t, dto.NotificationMessage{Kind: dto.NotifyReminder, RegistrationID: "r1", EventID: "ev"}))
	if len(sender.sent) != 0 {
		t.Fatalf("want no mail, got %+v", sender.sent)
	}
}

func TestHandle_StaleReminder(t *testing.T) {
	_, sender, reader := setup(t)
	reader.now = func() time.Time { return now.Add(25 * time.Hour) }
	_ = reader.Handle(context.Background(), message(t, dto.NotificationMessage{Kind: dto.NotifyReminder, RegistrationID: "r2", EventID: "ev"}))
	if len(sender.sent) != 0 {
		t.Fatalf("want no reminder for a started event, got %+v", sender.sent)
	}
}

func TestHandle_EventCancelled(t *testing.T) {
	m, sender, reader := setup(t)
	msg := message(t, dto.NotificationMessage{Kind: dto.NotifyEventCancelled, EventID: "ev"})

	_ = reader.Handle(context.Background(), msg)
	if len(sender.sent) != 0 {
		t.Fatalf("event not cancelled yet, want no mail, got %+v", sender.sent)
	}

	if err := m.CancelEvent(context.Background(), "ev"); err != nil {
		t.Fatal(err)
	}
	_ = reader.Handle(context.Background(), msg)
	if len(sender.sent) != 2 {
		t.Fatalf("want 2 cancellation mails, got %+v", sender.sent)
	}
}

func TestHandle_Malformed(t *testing.T) {
	_, _, reader := setup(t)
	if err := reader.Handle(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed messages must be dropped, got %v", err)
	}
}

func TestReader_StartStop(t *testing.T) {
	_, sender, reader := setup(t)
	bodies := make(chan []byte, 1)
	reader.consumer = chanConsumer{bodies: bodies}
	reader.Start(context.Background())

	bodies <- message(t, dto.NotificationMessage{Kind: dto.NotifyRegistered, RegistrationID: "r2", EventID: "ev"})
	deadline := time.After(2 * time.Second)
	for {
		sender.mu.Lock()
		n := len(sender.sent)
		sender.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("message was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	reader.Stop()
}
