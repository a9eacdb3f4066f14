// Package store holds every query the service layer runs against the
// relational database.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle, bound to the current transaction when
// the store was handed out by WithTx.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Calling WithTx on a store that is
// already transactional opens a savepoint.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) dialect() string {
	return s.db.Dialector.Name()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive LIKE pattern for use with
// ESCAPE '!'.
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}
