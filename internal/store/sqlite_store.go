package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

const liteSlotColumns = `id, slot_date, start_time, end_time, slot_type,
	is_assigned, team_id, team_name, rink, source, version`

const liteSchema = `
CREATE TABLE IF NOT EXISTS teams (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	manager_name  TEXT NOT NULL,
	manager_email TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ice_slots (
	id          TEXT PRIMARY KEY,
	slot_date   TEXT NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	slot_type   TEXT NOT NULL,
	is_assigned INTEGER NOT NULL DEFAULT 0,
	team_id     TEXT NOT NULL DEFAULT '',
	team_name   TEXT NOT NULL DEFAULT '',
	rink        TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	version     INTEGER NOT NULL DEFAULT 1,
	updated_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS ice_slots_date_idx ON ice_slots (slot_date);
CREATE INDEX IF NOT EXISTS ice_slots_team_idx ON ice_slots (team_id, slot_date);
`

// OpenSQLite opens the database file at path with WAL and a busy timeout.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// SQLiteStore persists slots and teams in a single SQLite file. Writes are
// conditional UPDATEs so concurrent assigns of the same slot cannot both win.
type SQLiteStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db, Now: time.Now}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, liteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FetchWeek(ctx context.Context, week schedule.Week) ([]schedule.IceSlot, error) {
	q := `SELECT ` + liteSlotColumns + `
	      FROM ice_slots
	      WHERE slot_date >= ? AND slot_date <= ?
	      ORDER BY rowid`
	return s.querySlots(ctx, q, schedule.FormatDate(week.Start), schedule.FormatDate(week.End()))
}

func (s *SQLiteStore) GetSlot(ctx context.Context, id string) (schedule.IceSlot, error) {
	q := `SELECT ` + liteSlotColumns + ` FROM ice_slots WHERE id=?`
	slot, err := scanSlot(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.IceSlot{}, unknownSlot("get slot", id)
	}
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed("get slot", err)
	}
	return slot, nil
}

func (s *SQLiteStore) CreateSlot(ctx context.Context, slot schedule.IceSlot) (schedule.IceSlot, error) {
	if err := slot.Validate(); err != nil {
		return schedule.IceSlot{}, schedule.Invalid(err)
	}
	q := `INSERT INTO ice_slots
	      (id, slot_date, start_time, end_time, slot_type, is_assigned, team_id, team_name, rink, source, version)
	      VALUES (?,?,?,?,?,?,?,?,?,?,1)
	      ON CONFLICT (id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, q,
		slot.ID, slot.Date, slot.StartTime, slot.EndTime, string(slot.Type),
		slot.IsAssigned, slot.TeamID, slot.TeamName, slot.Rink, slot.Source)
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed("create slot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.IceSlot{}, schedule.Failed("create slot", fmt.Errorf("%w: %s", ErrDuplicateSlot, slot.ID))
	}
	slot.Version = 1
	return slot, nil
}

func (s *SQLiteStore) UpsertSlots(ctx context.Context, slots []schedule.IceSlot) (int, error) {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return 0, schedule.Invalid(err)
		}
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, schedule.Failed("upsert slots", err)
	}
	defer tx.Rollback()

	q := `INSERT INTO ice_slots
	      (id, slot_date, start_time, end_time, slot_type, is_assigned, team_id, team_name, rink, source, version)
	      VALUES (?,?,?,?,?,?,?,?,?,?,1)
	      ON CONFLICT (id) DO UPDATE
	      SET slot_date=excluded.slot_date, start_time=excluded.start_time, end_time=excluded.end_time,
	          slot_type=excluded.slot_type, rink=excluded.rink, source=excluded.source,
	          version=ice_slots.version+1, updated_at=CURRENT_TIMESTAMP
	      WHERE ice_slots.is_assigned = 0
	        AND (ice_slots.slot_date, ice_slots.start_time, ice_slots.end_time, ice_slots.slot_type, ice_slots.rink, ice_slots.source)
	            IS NOT (excluded.slot_date, excluded.start_time, excluded.end_time, excluded.slot_type, excluded.rink, excluded.source)`

	changed := 0
	for _, slot := range slots {
		res, err := tx.ExecContext(ctx, q,
			slot.ID, slot.Date, slot.StartTime, slot.EndTime, string(slot.Type),
			slot.IsAssigned, slot.TeamID, slot.TeamName, slot.Rink, slot.Source)
		if err != nil {
			return 0, schedule.Failed("upsert slots", err)
		}
		n, _ := res.RowsAffected()
		changed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, schedule.Failed("upsert slots", err)
	}
	return changed, nil
}

func (s *SQLiteStore) Assign(ctx context.Context, slotID string, team schedule.TeamRef, expectedVersion int64) (schedule.IceSlot, error) {
	q := `UPDATE ice_slots
	      SET is_assigned=1, team_id=?, team_name=?, version=version+1, updated_at=CURRENT_TIMESTAMP
	      WHERE id=? AND is_assigned=0 AND (?=0 OR version=?)
	      RETURNING ` + liteSlotColumns
	return s.mutate(ctx, "assign", slotID, expectedVersion, false, q,
		team.ID, team.Name, slotID, expectedVersion, expectedVersion)
}

func (s *SQLiteStore) Unassign(ctx context.Context, slotID string, expectedVersion int64) (schedule.IceSlot, error) {
	q := `UPDATE ice_slots
	      SET is_assigned=0, team_id='', team_name='', version=version+1, updated_at=CURRENT_TIMESTAMP
	      WHERE id=? AND is_assigned=1 AND (?=0 OR version=?)
	      RETURNING ` + liteSlotColumns
	return s.mutate(ctx, "unassign", slotID, expectedVersion, true, q,
		slotID, expectedVersion, expectedVersion)
}

// mutate runs a guarded UPDATE. When no row matched, the stored slot is
// re-read to report which precondition failed.
func (s *SQLiteStore) mutate(ctx context.Context, op, slotID string, expectedVersion int64, wantAssigned bool, q string, args ...any) (schedule.IceSlot, error) {
	updated, err := scanSlot(s.DB.QueryRowContext(ctx, q, args...))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return schedule.IceSlot{}, schedule.Failed(op, err)
	}

	current, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return schedule.IceSlot{}, err
	}
	if err := checkMutation(op, current, expectedVersion, wantAssigned); err != nil {
		return schedule.IceSlot{}, err
	}
	// the row changed between the update and the re-read
	return schedule.IceSlot{}, schedule.Failed(op, fmt.Errorf("%w: %s", schedule.ErrVersionConflict, slotID))
}

func (s *SQLiteStore) ListAssigned(ctx context.Context, teamID string, from, to time.Time) ([]schedule.IceSlot, error) {
	q := `SELECT ` + liteSlotColumns + `
	      FROM ice_slots
	      WHERE team_id=? AND is_assigned=1 AND slot_date >= ? AND slot_date <= ?
	      ORDER BY slot_date, start_time`
	return s.querySlots(ctx, q, teamID, schedule.FormatDate(from), schedule.FormatDate(to))
}

func (s *SQLiteStore) querySlots(ctx context.Context, q string, args ...any) ([]schedule.IceSlot, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, schedule.Failed("query slots", err)
	}
	defer rows.Close()

	out := []schedule.IceSlot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, schedule.Failed("query slots", err)
		}
		out = append(out, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, schedule.Failed("query slots", err)
	}
	return out, nil
}

// created_at is kept as RFC 3339 text.
func scanLiteTeam(row rowScanner) (teams.Team, error) {
	var (
		t       teams.Team
		created string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.ManagerName, &t.ManagerEmail, &created); err != nil {
		return teams.Team{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return teams.Team{}, fmt.Errorf("team %s: bad created_at %q", t.ID, created)
	}
	t.CreatedAt = ts
	return t, nil
}

func (s *SQLiteStore) ListTeams(ctx context.Context) ([]teams.Team, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []teams.Team{}
	for rows.Next() {
		t, err := scanLiteTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ResolveTeam(ctx context.Context, id string) (teams.Team, error) {
	t, err := scanLiteTeam(s.DB.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return teams.Team{}, fmt.Errorf("%w: %s", teams.ErrNotFound, id)
	}
	return t, err
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, team teams.Team) (teams.Team, error) {
	if err := team.Validate(); err != nil {
		return teams.Team{}, err
	}
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = s.Now().UTC()
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES (?,?,?,?,?) ON CONFLICT (id) DO NOTHING`,
		team.ID, team.Name, team.ManagerName, team.ManagerEmail,
		team.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return teams.Team{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return teams.Team{}, fmt.Errorf("%w: %s", teams.ErrDuplicate, team.ID)
	}
	return team, nil
}
