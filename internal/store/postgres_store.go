package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

const pgSlotColumns = `id, to_char(slot_date, 'YYYY-MM-DD'), start_time, end_time, slot_type,
	is_assigned, team_id, team_name, rink, source, version`

const pgSchema = `
CREATE TABLE IF NOT EXISTS teams (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	manager_name  TEXT NOT NULL,
	manager_email TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ice_slots (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	slot_date   DATE NOT NULL,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	slot_type   TEXT NOT NULL,
	is_assigned BOOLEAN NOT NULL DEFAULT false,
	team_id     TEXT NOT NULL DEFAULT '',
	team_name   TEXT NOT NULL DEFAULT '',
	rink        TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	version     BIGINT NOT NULL DEFAULT 1,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (is_assigned = (team_id <> ''))
);

CREATE INDEX IF NOT EXISTS ice_slots_date_idx ON ice_slots (slot_date, seq);
CREATE INDEX IF NOT EXISTS ice_slots_team_idx ON ice_slots (team_id, slot_date);
`

// PostgresStore persists slots and teams in PostgreSQL.
type PostgresStore struct {
	DB  *pgxpool.Pool
	Now func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: pool, Now: time.Now}
}

// Migrate creates the tables when they do not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.DB.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (p *PostgresStore) FetchWeek(ctx context.Context, week schedule.Week) ([]schedule.IceSlot, error) {
	q := `SELECT ` + pgSlotColumns + `
	      FROM ice_slots
	      WHERE slot_date >= $1 AND slot_date <= $2
	      ORDER BY seq`
	return p.querySlots(ctx, q, week.Start, week.End())
}

func (p *PostgresStore) GetSlot(ctx context.Context, id string) (schedule.IceSlot, error) {
	q := `SELECT ` + pgSlotColumns + ` FROM ice_slots WHERE id=$1`
	slot, err := scanSlot(p.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.IceSlot{}, unknownSlot("get slot", id)
	}
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed("get slot", err)
	}
	return slot, nil
}

func (p *PostgresStore) CreateSlot(ctx context.Context, slot schedule.IceSlot) (schedule.IceSlot, error) {
	if err := slot.Validate(); err != nil {
		return schedule.IceSlot{}, schedule.Invalid(err)
	}
	date, _ := schedule.ParseDate(slot.Date)
	q := `INSERT INTO ice_slots
	      (id, slot_date, start_time, end_time, slot_type, is_assigned, team_id, team_name, rink, source, version)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
	      ON CONFLICT (id) DO NOTHING
	      RETURNING ` + pgSlotColumns
	created, err := scanSlot(p.DB.QueryRow(ctx, q,
		slot.ID, date, slot.StartTime, slot.EndTime, string(slot.Type),
		slot.IsAssigned, slot.TeamID, slot.TeamName, slot.Rink, slot.Source))
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.IceSlot{}, schedule.Failed("create slot", fmt.Errorf("%w: %s", ErrDuplicateSlot, slot.ID))
	}
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed("create slot", err)
	}
	return created, nil
}

func (p *PostgresStore) UpsertSlots(ctx context.Context, slots []schedule.IceSlot) (int, error) {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return 0, schedule.Invalid(err)
		}
	}
	tx, err := p.DB.Begin(ctx)
	if err != nil {
		return 0, schedule.Failed("upsert slots", err)
	}
	defer tx.Rollback(ctx)

	// assigned rows are left alone; unassigned rows only change when their shape does
	q := `INSERT INTO ice_slots
	      (id, slot_date, start_time, end_time, slot_type, is_assigned, team_id, team_name, rink, source, version)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
	      ON CONFLICT (id) DO UPDATE
	      SET slot_date=EXCLUDED.slot_date, start_time=EXCLUDED.start_time, end_time=EXCLUDED.end_time,
	          slot_type=EXCLUDED.slot_type, rink=EXCLUDED.rink, source=EXCLUDED.source,
	          version=ice_slots.version+1, updated_at=now()
	      WHERE NOT ice_slots.is_assigned
	        AND (ice_slots.slot_date, ice_slots.start_time, ice_slots.end_time, ice_slots.slot_type, ice_slots.rink, ice_slots.source)
	            IS DISTINCT FROM
	            (EXCLUDED.slot_date, EXCLUDED.start_time, EXCLUDED.end_time, EXCLUDED.slot_type, EXCLUDED.rink, EXCLUDED.source)`

	changed := 0
	for _, slot := range slots {
		date, _ := schedule.ParseDate(slot.Date)
		tag, err := tx.Exec(ctx, q,
			slot.ID, date, slot.StartTime, slot.EndTime, string(slot.Type),
			slot.IsAssigned, slot.TeamID, slot.TeamName, slot.Rink, slot.Source)
		if err != nil {
			return 0, schedule.Failed("upsert slots", err)
		}
		changed += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, schedule.Failed("upsert slots", err)
	}
	return changed, nil
}

func (p *PostgresStore) Assign(ctx context.Context, slotID string, team schedule.TeamRef, expectedVersion int64) (schedule.IceSlot, error) {
	q := `UPDATE ice_slots
	      SET is_assigned=true, team_id=$2, team_name=$3, version=version+1, updated_at=now()
	      WHERE id=$1
	      RETURNING ` + pgSlotColumns
	return p.mutate(ctx, "assign", slotID, expectedVersion, false, q, slotID, team.ID, team.Name)
}

func (p *PostgresStore) Unassign(ctx context.Context, slotID string, expectedVersion int64) (schedule.IceSlot, error) {
	q := `UPDATE ice_slots
	      SET is_assigned=false, team_id='', team_name='', version=version+1, updated_at=now()
	      WHERE id=$1
	      RETURNING ` + pgSlotColumns
	return p.mutate(ctx, "unassign", slotID, expectedVersion, true, q, slotID)
}

// mutate locks the slot row, checks its preconditions and applies update
// inside a single transaction.
func (p *PostgresStore) mutate(ctx context.Context, op, slotID string, expectedVersion int64, wantAssigned bool, update string, args ...any) (schedule.IceSlot, error) {
	tx, err := p.DB.Begin(ctx)
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed(op, err)
	}
	defer tx.Rollback(ctx)

	lockQ := `SELECT ` + pgSlotColumns + ` FROM ice_slots WHERE id=$1 FOR UPDATE`
	current, err := scanSlot(tx.QueryRow(ctx, lockQ, slotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.IceSlot{}, unknownSlot(op, slotID)
	}
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed(op, err)
	}
	if err := checkMutation(op, current, expectedVersion, wantAssigned); err != nil {
		return schedule.IceSlot{}, err
	}

	updated, err := scanSlot(tx.QueryRow(ctx, update, args...))
	if err != nil {
		return schedule.IceSlot{}, schedule.Failed(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return schedule.IceSlot{}, schedule.Failed(op, err)
	}
	return updated, nil
}

func (p *PostgresStore) ListAssigned(ctx context.Context, teamID string, from, to time.Time) ([]schedule.IceSlot, error) {
	q := `SELECT ` + pgSlotColumns + `
	      FROM ice_slots
	      WHERE team_id=$1 AND is_assigned AND slot_date >= $2 AND slot_date <= $3
	      ORDER BY slot_date, start_time`
	return p.querySlots(ctx, q, teamID, from, to)
}

func (p *PostgresStore) querySlots(ctx context.Context, q string, args ...any) ([]schedule.IceSlot, error) {
	rows, err := p.DB.Query(ctx, q, args...)
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

func (p *PostgresStore) ListTeams(ctx context.Context) ([]teams.Team, error) {
	rows, err := p.DB.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []teams.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ResolveTeam(ctx context.Context, id string) (teams.Team, error) {
	t, err := scanTeam(p.DB.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return teams.Team{}, fmt.Errorf("%w: %s", teams.ErrNotFound, id)
	}
	return t, err
}

func (p *PostgresStore) CreateTeam(ctx context.Context, team teams.Team) (teams.Team, error) {
	if err := team.Validate(); err != nil {
		return teams.Team{}, err
	}
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = p.Now().UTC()
	}
	_, err := p.DB.Exec(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		team.ID, team.Name, team.ManagerName, team.ManagerEmail, team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return teams.Team{}, fmt.Errorf("%w: %s", teams.ErrDuplicate, team.ID)
		}
		return teams.Team{}, err
	}
	return team, nil
}

// unique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
