package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects the write
	ErrDuplicate = errors.New("record already exists")

	// ErrForeignKey is returned when a referenced record does not exist
	ErrForeignKey = errors.New("referenced record not found")

	// ErrInvalidInput is returned when the store cannot parse a value, e.g. a malformed uuid
	ErrInvalidInput = errors.New("invalid input value")
)

// mapError translates PostgreSQL errors into repository sentinels
func mapError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, ErrDuplicate)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, ErrForeignKey)
		case pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%s: %w", op, ErrInvalidInput)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
