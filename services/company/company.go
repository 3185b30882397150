// Package company manages company records created through the bot.
package company

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Company is one company record.
type Company struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedBy   int64     `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	Active      bool      `db:"is_active"`
}

var (
	// ErrNotFound signals a missing company id.
	ErrNotFound = errors.New("company: not found")
	// ErrDuplicateName signals a name already in use (case-insensitive).
	ErrDuplicateName = errors.New("company: name already exists")
)

// Repository is the storage consumed by the service.
type Repository interface {
	Insert(ctx context.Context, c Company) (*Company, error)
	GetByID(ctx context.Context, id int64) (*Company, error)
	ListActive(ctx context.Context) ([]Company, error)
	// FindByName matches active companies only; a deactivated company
	// frees its name for reuse.
	FindByName(ctx context.Context, name string) (*Company, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
}

const (
	nameMinLen = 2
	nameMaxLen = 100
	descMaxLen = 500
)

const forbiddenNameChars = `<>"'&`

// ValidateName checks the company name rules: 2-100 characters and none
// of < > " ' &.
func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < nameMinLen || len([]rune(name)) > nameMaxLen {
		return false
	}
	return !strings.ContainsAny(name, forbiddenNameChars)
}

// ValidateDescription checks the optional description length.
func ValidateDescription(desc string) bool {
	return len([]rune(strings.TrimSpace(desc))) <= descMaxLen
}
