// Package identity implements the user directory consumed by the
// dispatch engine, backed by the users table.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/logger"
)

// ErrAlreadyRegistered is returned when Create is called for an external
// id the directory already knows.
var ErrAlreadyRegistered = errors.New("identity: already registered")

// Service implements dispatch.Directory over Postgres and adds the
// listing and role management used by the admin flows.
type Service struct {
	db *sqlx.DB
}

// NewService wraps the database handle.
func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

type userRow struct {
	ExternalID int64          `db:"external_id"`
	Username   sql.NullString `db:"username"`
	FirstName  sql.NullString `db:"first_name"`
	LastName   sql.NullString `db:"last_name"`
	Role       string         `db:"role"`
	Active     bool           `db:"is_active"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r userRow) toIdentity() *dispatch.Identity {
	return &dispatch.Identity{
		ExternalID: r.ExternalID,
		Username:   r.Username.String,
		FirstName:  r.FirstName.String,
		LastName:   r.LastName.String,
		Role:       access.Role(r.Role),
		Active:     r.Active,
	}
}

// FindByExternalID returns nil, nil for unknown users.
func (s *Service) FindByExternalID(ctx context.Context, externalID int64) (*dispatch.Identity, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT external_id, username, first_name, last_name, role, is_active, created_at
		 FROM users WHERE external_id = $1`,
		externalID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity find: %w", err)
	}
	return row.toIdentity(), nil
}

// Create registers a new identity with the selected role.
func (s *Service) Create(ctx context.Context, profile dispatch.Profile, role access.Role) (*dispatch.Identity, error) {
	if !access.Known(role) {
		return nil, fmt.Errorf("identity: unknown role %q", role)
	}

	existing, err := s.FindByExternalID(ctx, profile.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	var row userRow
	err = s.db.GetContext(ctx, &row, `
		INSERT INTO users (external_id, username, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING external_id, username, first_name, last_name, role, is_active, created_at`,
		profile.ExternalID, nullable(profile.Username), nullable(profile.FirstName), nullable(profile.LastName), string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("identity create: %w", err)
	}

	logger.Info(ctx, "service.identity", "user.registered",
		slog.Int64("user_id", profile.ExternalID),
		slog.String("role", string(role)),
	)
	return row.toIdentity(), nil
}

// Update applies a partial profile update. Idempotent: applying the same
// fields twice leaves the row unchanged and still reports success.
func (s *Service) Update(ctx context.Context, externalID int64, fields dispatch.IdentityUpdate) (bool, error) {
	if fields.Empty() {
		return false, nil
	}

	set := make([]string, 0, 3)
	args := []any{externalID}
	add := func(col string, val *string) {
		if val == nil {
			return
		}
		args = append(args, nullable(*val))
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("username", fields.Username)
	add("first_name", fields.FirstName)
	add("last_name", fields.LastName)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE external_id = $1`, strings.Join(set, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("identity update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("identity update: %w", err)
	}
	return affected > 0, nil
}

// ListActive returns all active identities ordered by role then name,
// used by the role-assignment flow.
func (s *Service) ListActive(ctx context.Context) ([]*dispatch.Identity, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT external_id, username, first_name, last_name, role, is_active, created_at
		 FROM users WHERE is_active ORDER BY role, first_name, external_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("identity list: %w", err)
	}
	out := make([]*dispatch.Identity, len(rows))
	for i, r := range rows {
		out[i] = r.toIdentity()
	}
	return out, nil
}

// AssignRole changes a user's role. The capability check belongs to the
// caller; the service only validates the role value itself.
func (s *Service) AssignRole(ctx context.Context, externalID int64, role access.Role) (bool, error) {
	if !access.Known(role) {
		return false, fmt.Errorf("identity: unknown role %q", role)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE external_id = $1 AND is_active`,
		externalID, string(role),
	)
	if err != nil {
		return false, fmt.Errorf("identity assign role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("identity assign role: %w", err)
	}
	if affected > 0 {
		logger.Info(ctx, "service.identity", "role.assigned",
			slog.Int64("user_id", externalID),
			slog.String("role", string(role)),
		)
	}
	return affected > 0, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
