package models

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/talentwire/points-service/tests"
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := tests.SetupMockStore(t)

	store := NewStore(db)

	return store, mock, cleanup
}
