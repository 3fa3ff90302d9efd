package repo

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStale is returned when a compare-and-set update matched no row
	// because another writer changed the status first.
	ErrStale = errors.New("stale state")
	// ErrInvalidParent is returned for a reply whose parent is on another movie.
	ErrInvalidParent = errors.New("invalid parent comment")
)

const pgUniqueViolation = "23505"

func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func duplicateOr(err error) error {
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}
