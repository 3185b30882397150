package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a Store backed by the sessions table. Version
// checks are pushed into the UPDATE/DELETE predicates so concurrent
// writers race on the database row, not on process memory.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

type sessionRow struct {
	Workflow string `db:"workflow"`
	State    string `db:"state"`
	Scratch  []byte `db:"scratch"`
	Version  int64  `db:"version"`
}

func (p *postgresStore) Get(ctx context.Context, externalID int64) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row,
		`SELECT workflow, state, scratch, version FROM sessions WHERE external_id = $1`,
		externalID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return rowToSession(row)
}

func (p *postgresStore) Begin(ctx context.Context, externalID int64, workflow string, initial State) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row, `
		INSERT INTO sessions (external_id, workflow, state, scratch, version, updated_at)
		VALUES ($1, $2, $3, '{}'::jsonb, 1, now())
		ON CONFLICT (external_id) DO UPDATE SET
			workflow = EXCLUDED.workflow,
			state = EXCLUDED.state,
			scratch = '{}'::jsonb,
			version = sessions.version + 1,
			updated_at = now()
		RETURNING workflow, state, scratch, version`,
		externalID, workflow, string(initial),
	)
	if err != nil {
		return nil, fmt.Errorf("session begin: %w", err)
	}
	return rowToSession(row)
}

func (p *postgresStore) Advance(ctx context.Context, externalID int64, fromVersion int64, next State, updates map[string]any) (*Session, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	patch, err := json.Marshal(updates)
	if err != nil {
		return nil, fmt.Errorf("session advance: encode scratch: %w", err)
	}

	var row sessionRow
	err = p.db.GetContext(ctx, &row, `
		UPDATE sessions SET
			state = $3,
			scratch = scratch || $4::jsonb,
			version = version + 1,
			updated_at = now()
		WHERE external_id = $1 AND version = $2
		RETURNING workflow, state, scratch, version`,
		externalID, fromVersion, string(next), patch,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("session advance: %w", err)
	}
	return rowToSession(row)
}

func (p *postgresStore) Complete(ctx context.Context, externalID int64, fromVersion int64) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE external_id = $1 AND version = $2`,
		externalID, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("session complete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session complete: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (p *postgresStore) Clear(ctx context.Context, externalID int64) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE external_id = $1`, externalID,
	); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func rowToSession(row sessionRow) (*Session, error) {
	scratch := make(map[string]any)
	if len(row.Scratch) > 0 {
		if err := json.Unmarshal(row.Scratch, &scratch); err != nil {
			return nil, fmt.Errorf("session: decode scratch: %w", err)
		}
	}
	return &Session{
		Workflow: row.Workflow,
		State:    State(row.State),
		Scratch:  scratch,
		Version:  row.Version,
	}, nil
}
