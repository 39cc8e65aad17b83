/*
Package sqlite provides a SQLite-backed implementation of forecast.Store.

PURPOSE:
  Persists projects, phases, holidays, and calendar events. Day estimates
  are deliberately NOT persisted anywhere in this schema: they are derived
  data, recomputed by the engine on every read.

KEY TABLES:
  projects:  Hour budget, date range, weekday mask, continuous flag
  phases:    FK -> projects with ON DELETE CASCADE (exclusive ownership)
  holidays:  Inclusive non-working spans
  events:    Scheduled calendar time, optionally linked to a project

LEGACY NORMALIZATION:
  Older exports stored the phase budget under `time_allocation`. Migration
  folds that column into the canonical `allocation_hours` once, at the
  boundary. Calculation code never branches on field presence.

DATE ENCODING:
  Day-granularity dates are stored as "2006-01-02" text (lexicographic
  order == chronological order, so range scans use plain comparisons).
  Event instants are RFC 3339 text. Hour quantities are decimal strings.

WAL MODE:
  Opened with WAL and foreign keys on. Multiple readers don't block; the
  single-writer-per-project discipline is enforced above this layer.

USAGE:
  store, err := sqlite.New("./forecast.db")  // ":memory:" for tests
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vault/forecast-engine/forecast"
)

// Store implements forecast.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database and migrates the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		estimated_hours TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		continuous BOOLEAN NOT NULL DEFAULT FALSE,
		working_days TEXT NOT NULL DEFAULT '1111111',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS phases (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT NOT NULL,
		allocation_hours TEXT,
		time_allocation TEXT, -- legacy column, folded into allocation_hours
		recurrence_type TEXT,
		recurrence_interval INTEGER,
		weekly_day INTEGER,
		monthly_pattern TEXT,
		monthly_date INTEGER,
		monthly_week INTEGER,
		monthly_weekday INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_phases_project
		ON phases(project_id, end_date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_span
		ON holidays(start_date, end_date);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		title TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_project_time
		ON events(project_id, start_time);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// One-time legacy normalization: fold time_allocation into the
	// canonical allocation_hours. Calculation code never sees the old name.
	_, err := s.db.Exec(`
		UPDATE phases
		SET allocation_hours = time_allocation
		WHERE allocation_hours IS NULL AND time_allocation IS NOT NULL`)
	return err
}

// Reset clears all tables. Used by the demo scenario loaders.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"phases", "projects", "holidays", "events"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func encodeDay(d forecast.Day) string { return d.String() }

func decodeDay(s string) (forecast.Day, error) { return forecast.ParseDay(s) }

func encodeMask(m forecast.WeekdayMask) string {
	var b strings.Builder
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if m.Enabled(wd) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func decodeMask(s string) forecast.WeekdayMask {
	if len(s) != 7 {
		return forecast.DefaultWeekdayMask()
	}
	var m forecast.WeekdayMask
	for i := 0; i < 7; i++ {
		m[i] = s[i] == '1'
	}
	return m
}

func decodeHours(s string) (forecast.Hours, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return forecast.Hours{}, fmt.Errorf("malformed hour value %q: %w", s, err)
	}
	return forecast.Hours{Value: v}, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) CreateProject(ctx context.Context, p forecast.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end sql.NullString
	if !p.Continuous {
		end = sql.NullString{String: encodeDay(p.EndDate), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, estimated_hours, start_date, end_date, continuous, working_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.Name, p.EstimatedHours.String(), encodeDay(p.StartDate),
		end, p.Continuous, encodeMask(p.WorkingDays), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetProject(ctx context.Context, id forecast.ProjectID) (forecast.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, estimated_hours, start_date, end_date, continuous, working_days
		FROM projects WHERE id = ?`, string(id))
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return forecast.Project{}, forecast.ErrProjectNotFound
	}
	return p, err
}

func (s *Store) UpdateProject(ctx context.Context, p forecast.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end sql.NullString
	if !p.Continuous {
		end = sql.NullString{String: encodeDay(p.EndDate), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, estimated_hours = ?, start_date = ?, end_date = ?, continuous = ?, working_days = ?
		WHERE id = ?`,
		p.Name, p.EstimatedHours.String(), encodeDay(p.StartDate), end,
		p.Continuous, encodeMask(p.WorkingDays), string(p.ID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrProjectNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id forecast.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Phases go with the project via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrProjectNotFound
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]forecast.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, estimated_hours, start_date, end_date, continuous, working_days
		FROM projects ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecast.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (forecast.Project, error) {
	var (
		id, name, hours, start, mask string
		end                          sql.NullString
		continuous                   bool
	)
	if err := row.Scan(&id, &name, &hours, &start, &end, &continuous, &mask); err != nil {
		return forecast.Project{}, err
	}

	p := forecast.Project{
		ID:          forecast.ProjectID(id),
		Name:        name,
		Continuous:  continuous,
		WorkingDays: decodeMask(mask),
	}
	var err error
	if p.EstimatedHours, err = decodeHours(hours); err != nil {
		return forecast.Project{}, err
	}
	if p.StartDate, err = decodeDay(start); err != nil {
		return forecast.Project{}, err
	}
	if end.Valid {
		if p.EndDate, err = decodeDay(end.String); err != nil {
			return forecast.Project{}, err
		}
	}
	return p, nil
}

// =============================================================================
// PHASES
// =============================================================================

func (s *Store) CreatePhase(ctx context.Context, ph forecast.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, insertPhaseSQL, phaseArgs(ph)...)
	return err
}

const insertPhaseSQL = `
	INSERT INTO phases (id, project_id, name, start_date, end_date, allocation_hours,
		recurrence_type, recurrence_interval, weekly_day, monthly_pattern, monthly_date, monthly_week, monthly_weekday,
		created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func phaseArgs(ph forecast.Phase) []interface{} {
	var start sql.NullString
	if ph.StartDate != nil {
		start = sql.NullString{String: encodeDay(*ph.StartDate), Valid: true}
	}

	var (
		recType, monPattern     sql.NullString
		interval, weeklyDay     sql.NullInt64
		monDate, monWeek, monWD sql.NullInt64
	)
	if cfg := ph.Recurring; cfg != nil {
		recType = sql.NullString{String: string(cfg.Type), Valid: true}
		interval = sql.NullInt64{Int64: int64(cfg.Interval), Valid: true}
		switch cfg.Type {
		case forecast.RecurWeekly:
			weeklyDay = sql.NullInt64{Int64: int64(cfg.WeeklyDay), Valid: true}
		case forecast.RecurMonthly:
			monPattern = sql.NullString{String: string(cfg.MonthlyPattern), Valid: true}
			if cfg.MonthlyPattern == forecast.MonthlyByDate {
				monDate = sql.NullInt64{Int64: int64(cfg.MonthlyDate), Valid: true}
			} else {
				monWeek = sql.NullInt64{Int64: int64(cfg.MonthlyWeek), Valid: true}
				monWD = sql.NullInt64{Int64: int64(cfg.MonthlyWeekday), Valid: true}
			}
		}
	}

	return []interface{}{
		string(ph.ID), string(ph.ProjectID), ph.Name, start, encodeDay(ph.EndDate),
		ph.Allocation.String(), recType, interval, weeklyDay, monPattern, monDate, monWeek, monWD,
		time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Store) GetPhase(ctx context.Context, id forecast.PhaseID) (forecast.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, start_date, end_date, allocation_hours,
			recurrence_type, recurrence_interval, weekly_day, monthly_pattern, monthly_date, monthly_week, monthly_weekday
		FROM phases WHERE id = ?`, string(id))
	ph, err := scanPhase(row)
	if err == sql.ErrNoRows {
		return forecast.Phase{}, forecast.ErrPhaseNotFound
	}
	return ph, err
}

func (s *Store) UpdatePhase(ctx context.Context, ph forecast.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Delete+insert inside one transaction keeps the recurrence columns
	// consistent when a phase flips between ordinary and recurring.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, string(ph.ID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrPhaseNotFound
	}

	if _, err := tx.ExecContext(ctx, insertPhaseSQL, phaseArgs(ph)...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeletePhase(ctx context.Context, id forecast.PhaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrPhaseNotFound
	}
	return nil
}

// ListPhases returns the project's phases in end-date order.
func (s *Store) ListPhases(ctx context.Context, projectID forecast.ProjectID) ([]forecast.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, start_date, end_date, allocation_hours,
			recurrence_type, recurrence_interval, weekly_day, monthly_pattern, monthly_date, monthly_week, monthly_weekday
		FROM phases WHERE project_id = ? ORDER BY end_date, id`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecast.Phase
	for rows.Next() {
		ph, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

func scanPhase(row rowScanner) (forecast.Phase, error) {
	var (
		id, projectID, name, end string
		start, hours             sql.NullString
		recType, monPattern      sql.NullString
		interval, weeklyDay      sql.NullInt64
		monDate, monWeek, monWD  sql.NullInt64
	)
	if err := row.Scan(&id, &projectID, &name, &start, &end, &hours,
		&recType, &interval, &weeklyDay, &monPattern, &monDate, &monWeek, &monWD); err != nil {
		return forecast.Phase{}, err
	}

	ph := forecast.Phase{
		ID:        forecast.PhaseID(id),
		ProjectID: forecast.ProjectID(projectID),
		Name:      name,
	}
	var err error
	if ph.EndDate, err = decodeDay(end); err != nil {
		return forecast.Phase{}, err
	}
	if start.Valid {
		d, derr := decodeDay(start.String)
		if derr != nil {
			return forecast.Phase{}, derr
		}
		ph.StartDate = &d
	}
	if hours.Valid {
		if ph.Allocation, err = decodeHours(hours.String); err != nil {
			return forecast.Phase{}, err
		}
	}
	if recType.Valid {
		cfg := &forecast.RecurringConfig{
			Type:     forecast.RecurrenceType(recType.String),
			Interval: int(interval.Int64),
		}
		if weeklyDay.Valid {
			cfg.WeeklyDay = time.Weekday(weeklyDay.Int64)
		}
		if monPattern.Valid {
			cfg.MonthlyPattern = forecast.MonthlyPattern(monPattern.String)
		}
		if monDate.Valid {
			cfg.MonthlyDate = int(monDate.Int64)
		}
		if monWeek.Valid {
			cfg.MonthlyWeek = int(monWeek.Int64)
		}
		if monWD.Valid {
			cfg.MonthlyWeekday = time.Weekday(monWD.Int64)
		}
		ph.Recurring = cfg
	}
	return ph, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) CreateHoliday(ctx context.Context, h forecast.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, name, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(h.ID), h.Name, encodeDay(h.Start), encodeDay(h.End),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id forecast.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrHolidayNotFound
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context, r forecast.DateRange) ([]forecast.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Span intersection: holiday starts before the range ends and ends
	// after the range starts.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date FROM holidays
		WHERE start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`,
		encodeDay(r.End), encodeDay(r.Start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecast.Holiday
	for rows.Next() {
		var (
			h                    forecast.Holiday
			id, name, start, end string
		)
		if err := rows.Scan(&id, &name, &start, &end); err != nil {
			return nil, err
		}
		h.ID = forecast.HolidayID(id)
		h.Name = name
		if h.Start, err = decodeDay(start); err != nil {
			return nil, err
		}
		if h.End, err = decodeDay(end); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// EVENTS
// =============================================================================

func (s *Store) CreateEvent(ctx context.Context, e forecast.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var projectID sql.NullString
	if e.ProjectID != "" {
		projectID = sql.NullString{String: string(e.ProjectID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, project_id, title, start_time, end_time, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), projectID, e.Title,
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339),
		e.Completed, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id forecast.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forecast.ErrEventNotFound
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, projectID forecast.ProjectID, r forecast.DateRange) ([]forecast.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rangeStart := r.Start.Time.UTC().Format(time.RFC3339)
	rangeEnd := r.End.AddDays(1).Time.UTC().Format(time.RFC3339)

	// Unlinked events are stored with a NULL project_id; an empty projectID
	// selects exactly those, matching the in-memory store.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, title, start_time, end_time, completed FROM events
		WHERE ((? = '' AND project_id IS NULL) OR project_id = ?)
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time, id`,
		string(projectID), string(projectID), rangeEnd, rangeStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecast.CalendarEvent
	for rows.Next() {
		var (
			e          forecast.CalendarEvent
			id, title  string
			pid        sql.NullString
			start, end string
		)
		if err := rows.Scan(&id, &pid, &title, &start, &end, &e.Completed); err != nil {
			return nil, err
		}
		e.ID = forecast.EventID(id)
		e.Title = title
		if pid.Valid {
			e.ProjectID = forecast.ProjectID(pid.String)
		}
		if e.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		if e.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
