package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/lifecycle"
	"eventhub/internal/model"
)

const eventColumns = `id, title, description, category, sub_category, domain, poster_url,
	start_date, end_date, duration, coordinator_name, coordinator_email, coordinator_phone,
	venue, max_participants, registration_deadline, intra_dept, inter_dept, online, offline,
	certification_provided, status, main_event_id, is_main_event, additional_fields,
	created_by, created_at, updated_at`

const registrationColumns = `id, student_id, event_id, student_name, roll_number, department,
	year, email, phone, status, is_team_registration, team_name, team_members,
	registration_date, result, payment, created_at, updated_at`

type Postgres struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

func (r *Postgres) MigrateUp(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.up.sql", false)
}

func (r *Postgres) MigrateDown(migrationsDir string) error {
	return r.runMigrations(migrationsDir, "*.down.sql", true)
}

func (r *Postgres) runMigrations(dir, pattern string, reverse bool) error {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Int("files", len(files)).Msgf("Migrations %s applied from %s", pattern, dir)
	return nil
}

// withTx runs fn in a transaction on the master, rolling back on error or
// panic.
func (r *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e      model.Event
		status string
		mainID sql.NullString
		extra  []byte
	)
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.SubCategory, &e.Domain, &e.PosterURL,
		&e.StartDate, &e.EndDate, &e.Duration, &e.CoordinatorName, &e.CoordinatorEmail, &e.CoordinatorPhone,
		&e.Venue, &e.MaxParticipants, &e.RegistrationDeadline,
		&e.EventType.IntraDept, &e.EventType.InterDept, &e.EventType.Online, &e.EventType.Offline,
		&e.CertificationProvided, &status, &mainID, &e.IsMainEvent, &extra,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	e.MainEventID = mainID.String
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &e.AdditionalFields); err != nil {
			return nil, fmt.Errorf("decode additional_fields: %w", err)
		}
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		reg            model.Registration
		status         string
		members        []byte
		result, paymnt []byte
	)
	if err := row.Scan(
		&reg.ID, &reg.StudentID, &reg.EventID,
		&reg.Student.Name, &reg.Student.RollNumber, &reg.Student.Department,
		&reg.Student.Year, &reg.Student.Email, &reg.Student.Phone,
		&status, &reg.IsTeamRegistration, &reg.TeamName, &members,
		&reg.RegistrationDate, &result, &paymnt, &reg.CreatedAt, &reg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationStatus(status)
	if len(members) > 0 {
		if err := json.Unmarshal(members, &reg.TeamMembers); err != nil {
			return nil, fmt.Errorf("decode team_members: %w", err)
		}
	}
	if len(result) > 0 && string(result) != "null" {
		reg.Result = &model.Result{}
		if err := json.Unmarshal(result, reg.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	if len(paymnt) > 0 && string(paymnt) != "null" {
		reg.Payment = &model.Payment{}
		if err := json.Unmarshal(paymnt, reg.Payment); err != nil {
			return nil, fmt.Errorf("decode payment: %w", err)
		}
	}
	return &reg, nil
}

func scanRegistrations(rows *sql.Rows) ([]model.Registration, error) {
	defer rows.Close()
	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonOrNull encodes v for a nullable JSONB column. JSON goes over the wire
// as text so lib/pq does not send it as bytea.
func jsonOrNull(v any, isNil bool) (any, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Postgres) CreateEvent(ctx context.Context, e *model.Event) error {
	extra := e.AdditionalFields
	if extra == nil {
		extra = map[string]any{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encode additional_fields: %w", err)
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Category, e.SubCategory, e.Domain, e.PosterURL,
		e.StartDate, e.EndDate, e.Duration, e.CoordinatorName, e.CoordinatorEmail, e.CoordinatorPhone,
		e.Venue, e.MaxParticipants, e.RegistrationDeadline,
		e.EventType.IntraDept, e.EventType.InterDept, e.EventType.Online, e.EventType.Offline,
		e.CertificationProvided, string(e.Status), nullString(e.MainEventID), e.IsMainEvent, string(extraJSON),
		e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *Postgres) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// statusClause renders the effective-status filter; placeholder is the
// parameter holding now.
func statusClause(status model.EventStatus, placeholder string) string {
	switch status {
	case model.EventCancelled:
		return "status = 'cancelled'"
	case model.EventOngoing:
		return "status <> 'cancelled' AND start_date <= " + placeholder + " AND end_date >= " + placeholder
	case model.EventCompleted:
		return "status <> 'cancelled' AND end_date < " + placeholder
	case model.EventUpcoming:
		return "status <> 'cancelled' AND start_date > " + placeholder
	}
	return ""
}

func (r *Postgres) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Now)
		where = append(where, statusClause(f.Status, fmt.Sprintf("$%d", len(args))))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY start_date ASC, id ASC LIMIT $%d OFFSET $%d`,
		eventColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *Postgres) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return scanEvents(rows)
}

func (r *Postgres) GetSubEvents(ctx context.Context, mainIDs []string) ([]model.Event, error) {
	if len(mainIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE main_event_id = ANY($1)
		ORDER BY start_date ASC, id ASC
	`, pq.Array(mainIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-events: %w", err)
	}
	return scanEvents(rows)
}

func (r *Postgres) UpdateEvent(ctx context.Context, e *model.Event) error {
	extra := e.AdditionalFields
	if extra == nil {
		extra = map[string]any{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encode additional_fields: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = $2, description = $3, category = $4, sub_category = $5, domain = $6,
		    poster_url = $7, start_date = $8, end_date = $9, duration = $10,
		    coordinator_name = $11, coordinator_email = $12, coordinator_phone = $13,
		    venue = $14, max_participants = $15, registration_deadline = $16,
		    intra_dept = $17, inter_dept = $18, online = $19, offline = $20,
		    certification_provided = $21, additional_fields = $22, updated_at = $23
		WHERE id = $1
	`,
		e.ID, e.Title, e.Description, e.Category, e.SubCategory, e.Domain,
		e.PosterURL, e.StartDate, e.EndDate, e.Duration,
		e.CoordinatorName, e.CoordinatorEmail, e.CoordinatorPhone,
		e.Venue, e.MaxParticipants, e.RegistrationDeadline,
		e.EventType.IntraDept, e.EventType.InterDept, e.EventType.Online, e.EventType.Offline,
		e.CertificationProvided, string(extraJSON), e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectOne(res, ErrEventNotFound)
}

func expectOne(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func (r *Postgres) CancelEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to cancel event: %w", err)
	}
	return expectOne(res, ErrEventNotFound)
}

func (r *Postgres) DeleteEvent(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		var refs int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, id).Scan(&refs); err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if refs > 0 {
			return ErrEventHasRegistrations
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

func (r *Postgres) SyncEventStatuses(ctx context.Context, now time.Time) (int64, error) {
	sweeps := []string{
		`UPDATE events SET status = 'ongoing', updated_at = NOW()
		 WHERE status NOT IN ('cancelled', 'ongoing') AND start_date <= $1 AND end_date >= $1`,
		`UPDATE events SET status = 'completed', updated_at = NOW()
		 WHERE status NOT IN ('cancelled', 'completed') AND end_date < $1`,
		`UPDATE events SET status = 'upcoming', updated_at = NOW()
		 WHERE status NOT IN ('cancelled', 'upcoming') AND start_date > $1`,
	}
	var total int64
	for _, q := range sweeps {
		res, err := r.db.ExecContext(ctx, q, now)
		if err != nil {
			return total, fmt.Errorf("failed to sync event statuses: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func lockEvent(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	return e, nil
}

func countActive(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = ANY($2)
	`, eventID, pq.Array(statusStrings(lifecycle.CapacityStatuses))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}

// BookRegistrationTx serialises admissions per event through the event row
// lock, so the count it reads cannot go stale before the insert.
func (r *Postgres) BookRegistrationTx(ctx context.Context, reg *model.Registration, admit AdmitFunc) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		event, err := lockEvent(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}

		var occ lifecycle.Occupancy
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM registrations
				WHERE event_id = $1 AND student_id = $2 AND status <> 'cancelled'
			)
		`, reg.EventID, reg.StudentID).Scan(&occ.HasActive)
		if err != nil {
			return fmt.Errorf("failed to check duplicate registration: %w", err)
		}
		if occ.Active, err = countActive(ctx, tx, reg.EventID); err != nil {
			return err
		}

		if err := admit(event, occ); err != nil {
			return err
		}

		members, err := json.Marshal(teamMembersOrEmpty(reg.TeamMembers))
		if err != nil {
			return fmt.Errorf("encode team_members: %w", err)
		}
		result, err := jsonOrNull(reg.Result, reg.Result == nil)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		payment, err := jsonOrNull(reg.Payment, reg.Payment == nil)
		if err != nil {
			return fmt.Errorf("encode payment: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO registrations (`+registrationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`,
			reg.ID, reg.StudentID, reg.EventID,
			reg.Student.Name, reg.Student.RollNumber, reg.Student.Department,
			reg.Student.Year, reg.Student.Email, reg.Student.Phone,
			string(reg.Status), reg.IsTeamRegistration, reg.TeamName, string(members),
			reg.RegistrationDate, result, payment, reg.CreatedAt, reg.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return ErrDuplicateRegistration
		}
		if err != nil {
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})
}

func teamMembersOrEmpty(m []model.TeamMember) []model.TeamMember {
	if m == nil {
		return []model.TeamMember{}
	}
	return m
}

func (r *Postgres) ChangeRegistrationStatusTx(ctx context.Context, id string, next model.RegistrationStatus, allow ChangeFunc) (*model.Registration, error) {
	var out *model.Registration
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var eventID string
		err := tx.QueryRowContext(ctx, `SELECT event_id FROM registrations WHERE id = $1`, id).Scan(&eventID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}

		// event first, same order as booking
		event, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		reg, err := scanRegistration(tx.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return fmt.Errorf("failed to lock registration: %w", err)
		}
		active, err := countActive(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if err := allow(event, reg, active); err != nil {
			return err
		}
		if reg.Status == next {
			out = reg
			return nil
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE registrations
			SET status = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING updated_at
		`, string(next), id).Scan(&reg.UpdatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicateRegistration
		}
		if err != nil {
			return fmt.Errorf("failed to update registration status: %w", err)
		}
		reg.Status = next
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Postgres) GetRegistrationByID(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (r *Postgres) GetRegistrationsByEventID(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE event_id = $1 AND status <> 'cancelled'
		ORDER BY registration_date ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	return scanRegistrations(rows)
}

func (r *Postgres) GetRegistrationsByStudentID(ctx context.Context, studentID string) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE student_id = $1
		ORDER BY registration_date DESC, id ASC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	return scanRegistrations(rows)
}

func (r *Postgres) CountRegistrations(ctx context.Context, eventID string, statuses []model.RegistrationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = ANY($2)
	`, eventID, pq.Array(statusStrings(statuses))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *Postgres) CountRegistrationsByEvent(ctx context.Context, statuses []model.RegistrationStatus) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, COUNT(*)
		FROM registrations
		WHERE status = ANY($1)
		GROUP BY event_id
	`, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *Postgres) CreateStudent(ctx context.Context, s *model.Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, roll_number, name, department, year, email, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.RollNumber, s.Name, s.Department, s.Year, s.Email, s.Phone, s.PasswordHash, s.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (r *Postgres) getStudent(ctx context.Context, where string, arg any) (*model.Student, error) {
	var s model.Student
	err := r.db.QueryRowContext(ctx, `
		SELECT id, roll_number, name, department, year, email, phone, password_hash, created_at
		FROM students WHERE `+where, arg).Scan(
		&s.ID, &s.RollNumber, &s.Name, &s.Department, &s.Year, &s.Email, &s.Phone, &s.PasswordHash, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

func (r *Postgres) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	return r.getStudent(ctx, "id = $1", id)
}

func (r *Postgres) GetStudentByRollNumber(ctx context.Context, roll string) (*model.Student, error) {
	return r.getStudent(ctx, "roll_number = $1", roll)
}

func (r *Postgres) CreateAdmin(ctx context.Context, a *model.Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *Postgres) getAdmin(ctx context.Context, where string, arg any) (*model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM admins WHERE `+where, arg).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

func (r *Postgres) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	return r.getAdmin(ctx, "id = $1", id)
}

func (r *Postgres) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.getAdmin(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *Postgres) UpdatePassword(ctx context.Context, role, id, hash string) error {
	table, missing := "students", ErrStudentNotFound
	if role == model.RoleAdmin {
		table, missing = "admins", ErrAdminNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOne(res, missing)
}
