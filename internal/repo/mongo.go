package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

// eventDoc adds the counters the document store keeps next to each event.
// active_count tracks seat-holding registrations and is only ever moved by
// conditional updates; registration_total counts every registration ever
// written and guards deletion.
type eventDoc struct {
	model.Event       `bson:",inline"`
	ActiveCount       int `bson:"active_count"`
	RegistrationTotal int `bson:"registration_total"`
}

// registrationDoc carries active_key while the registration is not cancelled.
// A unique partial index on it enforces one live registration per pair.
type registrationDoc struct {
	model.Registration `bson:",inline"`
	ActiveKey          string `bson:"active_key,omitempty"`
}

func activeKey(studentID, eventID string) string {
	return studentID + ":" + eventID
}

type Mongo struct {
	db  *mongo.Database
	log *zerolog.Logger
}

func NewMongo(client *mongo.Client, dbName string, log *zerolog.Logger) *Mongo {
	return &Mongo{db: client.Database(dbName), log: log}
}

func (m *Mongo) events() *mongo.Collection        { return m.db.Collection("events") }
func (m *Mongo) registrations() *mongo.Collection { return m.db.Collection("registrations") }
func (m *Mongo) students() *mongo.Collection      { return m.db.Collection("students") }
func (m *Mongo) admins() *mongo.Collection        { return m.db.Collection("admins") }

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if _, err := m.events().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "main_event_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "start_date", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}
	if _, err := m.registrations().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "active_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active_key": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "student_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create registration indexes: %w", err)
	}
	if _, err := m.students().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roll_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create student index: %w", err)
	}
	if _, err := m.admins().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create admin index: %w", err)
	}
	m.log.Info().Msg("MongoDB indexes ensured")
	return nil
}

func (m *Mongo) CreateEvent(ctx context.Context, e *model.Event) error {
	if _, err := m.events().InsertOne(ctx, eventDoc{Event: *e}); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (m *Mongo) findEvent(ctx context.Context, id string) (*eventDoc, error) {
	var doc eventDoc
	err := m.events().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &doc, nil
}

func (m *Mongo) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	doc, err := m.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &doc.Event, nil
}

func statusFilter(status model.EventStatus, now time.Time) bson.M {
	notCancelled := bson.M{"$ne": string(model.EventCancelled)}
	switch status {
	case model.EventCancelled:
		return bson.M{"status": string(model.EventCancelled)}
	case model.EventOngoing:
		return bson.M{"status": notCancelled, "start_date": bson.M{"$lte": now}, "end_date": bson.M{"$gte": now}}
	case model.EventCompleted:
		return bson.M{"status": notCancelled, "end_date": bson.M{"$lt": now}}
	case model.EventUpcoming:
		return bson.M{"status": notCancelled, "start_date": bson.M{"$gt": now}}
	}
	return bson.M{}
}

var byStartDate = bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}

func (m *Mongo) findEvents(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]model.Event, error) {
	cursor, err := m.events().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	events := make([]model.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.Event)
	}
	return events, nil
}

func (m *Mongo) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, int, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter = statusFilter(f.Status, f.Now)
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	total, err := m.events().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}
	opts := options.Find().SetSort(byStartDate).SetSkip(int64(f.Offset()))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	events, err := m.findEvents(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return events, int(total), nil
}

func (m *Mongo) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	return m.findEvents(ctx, bson.M{}, options.Find().SetSort(byStartDate))
}

func (m *Mongo) GetSubEvents(ctx context.Context, mainIDs []string) ([]model.Event, error) {
	if len(mainIDs) == 0 {
		return nil, nil
	}
	return m.findEvents(ctx, bson.M{"main_event_id": bson.M{"$in": mainIDs}}, options.Find().SetSort(byStartDate))
}

func (m *Mongo) UpdateEvent(ctx context.Context, e *model.Event) error {
	res, err := m.events().UpdateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"title":                  e.Title,
		"description":            e.Description,
		"category":               e.Category,
		"sub_category":           e.SubCategory,
		"domain":                 e.Domain,
		"poster_url":             e.PosterURL,
		"start_date":             e.StartDate,
		"end_date":               e.EndDate,
		"duration":               e.Duration,
		"coordinator_name":       e.CoordinatorName,
		"coordinator_email":      e.CoordinatorEmail,
		"coordinator_phone":      e.CoordinatorPhone,
		"venue":                  e.Venue,
		"max_participants":       e.MaxParticipants,
		"registration_deadline":  e.RegistrationDeadline,
		"event_type":             e.EventType,
		"certification_provided": e.CertificationProvided,
		"additional_fields":      e.AdditionalFields,
		"updated_at":             e.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (m *Mongo) CancelEvent(ctx context.Context, id string) error {
	res, err := m.events().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     string(model.EventCancelled),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to cancel event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (m *Mongo) DeleteEvent(ctx context.Context, id string) error {
	res, err := m.events().DeleteOne(ctx, bson.M{"_id": id, "registration_total": 0})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if res.DeletedCount == 1 {
		return nil
	}
	if _, err := m.findEvent(ctx, id); err != nil {
		return err
	}
	return ErrEventHasRegistrations
}

func (m *Mongo) SyncEventStatuses(ctx context.Context, now time.Time) (int64, error) {
	sweeps := []struct {
		to     model.EventStatus
		filter bson.M
	}{
		{model.EventOngoing, bson.M{"start_date": bson.M{"$lte": now}, "end_date": bson.M{"$gte": now}}},
		{model.EventCompleted, bson.M{"end_date": bson.M{"$lt": now}}},
		{model.EventUpcoming, bson.M{"start_date": bson.M{"$gt": now}}},
	}
	var total int64
	for _, s := range sweeps {
		s.filter["status"] = bson.M{"$nin": []string{string(model.EventCancelled), string(s.to)}}
		res, err := m.events().UpdateMany(ctx, s.filter, bson.M{"$set": bson.M{
			"status":     string(s.to),
			"updated_at": now,
		}})
		if err != nil {
			return total, fmt.Errorf("failed to sync event statuses: %w", err)
		}
		total += res.ModifiedCount
	}
	return total, nil
}

// seatFilter matches the event only while a seat is free.
func seatFilter(eventID string, max int) bson.M {
	return bson.M{"_id": eventID, "active_count": bson.M{"$lt": max}}
}

func counterUpdate(active, total int) bson.M {
	return bson.M{"$inc": bson.M{"active_count": active, "registration_total": total}}
}

// seatDelta is the change to active_count when a registration moves from one
// status to another: +1 when it starts holding a seat, -1 when it stops.
func seatDelta(from, to model.RegistrationStatus) int {
	switch {
	case lifecycle.HoldsSeat(to) && !lifecycle.HoldsSeat(from):
		return 1
	case !lifecycle.HoldsSeat(to) && lifecycle.HoldsSeat(from):
		return -1
	}
	return 0
}

// statusChangeUpdate sets the new status and drops active_key on cancel so
// the student may register again.
func statusChangeUpdate(next model.RegistrationStatus, now time.Time) bson.M {
	update := bson.M{"$set": bson.M{"status": string(next), "updated_at": now}}
	if next == model.RegCancelled {
		update["$unset"] = bson.M{"active_key": ""}
	}
	return update
}

// reserveSeat increments active_count only while it is below capacity.
func (m *Mongo) reserveSeat(ctx context.Context, eventID string, max int, total int) (bool, error) {
	res, err := m.events().UpdateOne(ctx, seatFilter(eventID, max), counterUpdate(1, total))
	if err != nil {
		return false, fmt.Errorf("failed to reserve seat: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (m *Mongo) adjustCounters(ctx context.Context, eventID string, active, total int) {
	_, err := m.events().UpdateOne(ctx, bson.M{"_id": eventID}, counterUpdate(active, total))
	if err != nil {
		m.log.Error().Err(err).Str("event_id", eventID).Msg("failed to adjust event counters")
	}
}

// BookRegistrationTx runs the admission rules against the event document,
// then claims a seat with a conditional increment and relies on the unique
// active_key index for duplicates. A failed insert gives the seat back.
func (m *Mongo) BookRegistrationTx(ctx context.Context, reg *model.Registration, admit AdmitFunc) error {
	doc, err := m.findEvent(ctx, reg.EventID)
	if err != nil {
		return err
	}
	key := activeKey(reg.StudentID, reg.EventID)
	dup, err := m.registrations().CountDocuments(ctx, bson.M{"active_key": key})
	if err != nil {
		return fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	occ := lifecycle.Occupancy{HasActive: dup > 0, Active: doc.ActiveCount}
	if err := admit(&doc.Event, occ); err != nil {
		return err
	}

	ok, err := m.reserveSeat(ctx, reg.EventID, doc.MaxParticipants, 1)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEventFull
	}

	_, err = m.registrations().InsertOne(ctx, registrationDoc{Registration: *reg, ActiveKey: key})
	if err != nil {
		m.adjustCounters(ctx, reg.EventID, -1, -1)
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateRegistration
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (m *Mongo) findRegistration(ctx context.Context, id string) (*model.Registration, error) {
	var doc registrationDoc
	err := m.registrations().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &doc.Registration, nil
}

func (m *Mongo) ChangeRegistrationStatusTx(ctx context.Context, id string, next model.RegistrationStatus, allow ChangeFunc) (*model.Registration, error) {
	reg, err := m.findRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := m.findEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if err := allow(&doc.Event, reg, doc.ActiveCount); err != nil {
		return nil, err
	}
	if reg.Status == next {
		return reg, nil
	}

	delta := seatDelta(reg.Status, next)
	if delta == 1 {
		ok, err := m.reserveSeat(ctx, reg.EventID, doc.MaxParticipants, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrEventFull
		}
	}

	now := time.Now().UTC()
	res, err := m.registrations().UpdateOne(ctx, bson.M{"_id": id, "status": string(reg.Status)}, statusChangeUpdate(next, now))
	if err != nil || res.MatchedCount == 0 {
		if delta == 1 {
			m.adjustCounters(ctx, reg.EventID, -1, 0)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update registration status: %w", err)
		}
		return nil, ErrConcurrentUpdate
	}
	if delta == -1 {
		m.adjustCounters(ctx, reg.EventID, -1, 0)
	}

	reg.Status = next
	reg.UpdatedAt = now
	return reg, nil
}

func (m *Mongo) GetRegistrationByID(ctx context.Context, id string) (*model.Registration, error) {
	return m.findRegistration(ctx, id)
}

func (m *Mongo) findRegistrations(ctx context.Context, filter bson.M, sort bson.D) ([]model.Registration, error) {
	cursor, err := m.registrations().Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []registrationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode registrations: %w", err)
	}
	regs := make([]model.Registration, 0, len(docs))
	for _, d := range docs {
		regs = append(regs, d.Registration)
	}
	return regs, nil
}

func (m *Mongo) GetRegistrationsByEventID(ctx context.Context, eventID string) ([]model.Registration, error) {
	return m.findRegistrations(ctx,
		bson.M{"event_id": eventID, "status": bson.M{"$ne": string(model.RegCancelled)}},
		bson.D{{Key: "registration_date", Value: 1}, {Key: "_id", Value: 1}},
	)
}

func (m *Mongo) GetRegistrationsByStudentID(ctx context.Context, studentID string) ([]model.Registration, error) {
	return m.findRegistrations(ctx,
		bson.M{"student_id": studentID},
		bson.D{{Key: "registration_date", Value: -1}, {Key: "_id", Value: 1}},
	)
}

func (m *Mongo) CountRegistrations(ctx context.Context, eventID string, statuses []model.RegistrationStatus) (int, error) {
	n, err := m.registrations().CountDocuments(ctx, bson.M{
		"event_id": eventID,
		"status":   bson.M{"$in": statusStrings(statuses)},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) CountRegistrationsByEvent(ctx context.Context, statuses []model.RegistrationStatus) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": statusStrings(statuses)}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$event_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := m.registrations().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		EventID string `bson:"_id"`
		Count   int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Count
	}
	return counts, nil
}

func (m *Mongo) CreateStudent(ctx context.Context, s *model.Student) error {
	_, err := m.students().InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (m *Mongo) findStudent(ctx context.Context, filter bson.M) (*model.Student, error) {
	var s model.Student
	err := m.students().FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

func (m *Mongo) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	return m.findStudent(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetStudentByRollNumber(ctx context.Context, roll string) (*model.Student, error) {
	return m.findStudent(ctx, bson.M{"roll_number": roll})
}

// Admin emails are stored lower-cased so the unique index is case-insensitive.
func (m *Mongo) CreateAdmin(ctx context.Context, a *model.Admin) error {
	doc := *a
	doc.Email = strings.ToLower(doc.Email)
	_, err := m.admins().InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (m *Mongo) findAdmin(ctx context.Context, filter bson.M) (*model.Admin, error) {
	var a model.Admin
	err := m.admins().FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

func (m *Mongo) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	return m.findAdmin(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return m.findAdmin(ctx, bson.M{"email": strings.ToLower(email)})
}

func (m *Mongo) UpdatePassword(ctx context.Context, role, id, hash string) error {
	coll, missing := m.students(), ErrStudentNotFound
	if role == model.RoleAdmin {
		coll, missing = m.admins(), ErrAdminNotFound
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return missing
	}
	return nil
}
