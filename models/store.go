package models

import (
	"gorm.io/gorm"

	"github.com/talentwire/points-service/config/database"
)

type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db: db,
	}
}

func (store *Store) Conn() *gorm.DB {
	return store.db.Connection
}
