package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a Repository over the companies table.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Insert(ctx context.Context, c Company) (*Company, error) {
	var out Company
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO companies (name, description, created_by, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, created_by, created_at, is_active`,
		c.Name, c.Description, c.CreatedBy, c.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("company insert: %w", err)
	}
	return &out, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Company, error) {
	var out Company
	err := r.db.GetContext(ctx, &out,
		`SELECT id, name, description, created_by, created_at, is_active
		 FROM companies WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("company get: %w", err)
	}
	return &out, nil
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]Company, error) {
	var out []Company
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, description, created_by, created_at, is_active
		 FROM companies WHERE is_active ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("company list: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) FindByName(ctx context.Context, name string) (*Company, error) {
	var out Company
	err := r.db.GetContext(ctx, &out,
		`SELECT id, name, description, created_by, created_at, is_active
		 FROM companies WHERE is_active AND lower(name) = lower($1)`,
		name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("company find by name: %w", err)
	}
	return &out, nil
}

func (r *postgresRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE companies SET is_active = $2 WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return false, fmt.Errorf("company set active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("company set active: %w", err)
	}
	return affected > 0, nil
}
