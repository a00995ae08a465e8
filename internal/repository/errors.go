package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate means a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrForeignKey means a foreign key rejected the write: the referenced row
	// is missing, or a RESTRICT reference still points at the deleted row.
	ErrForeignKey = errors.New("foreign key constraint violated")
	// ErrCheckViolation means a CHECK constraint rejected the row.
	ErrCheckViolation = errors.New("check constraint violated")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps driver-specific constraint failures onto the sentinels above
// and leaves every other error untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return ErrDuplicate
	case isForeignKey(err):
		return ErrForeignKey
	case isCheck(err):
		return ErrCheckViolation
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKey(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || pgCode(err) == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheck(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || pgCode(err) == pgCheckViolation {
		return true
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}
