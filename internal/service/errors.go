package service

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type (
	// ValidationError reports malformed or illegal input.
	ValidationError struct {
		Reason string
	}

	// ConflictError reports a duplicate membership row.
	ConflictError struct {
		Reason string
	}

	// NotFoundError reports a referenced entity or membership that does not exist.
	NotFoundError struct {
		Entity string
		ID     uint64
		Reason string
	}
)

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func notFound(entity string, id uint64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// isUniqueViolation recognises a rejected duplicate insert regardless of
// which driver produced it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
