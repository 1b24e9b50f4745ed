package postgres

import (
	"github.com/gaze-network/brc8888-indexer/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db postgres.DB
	q  postgres.BatchQueryable // db, or tx when a transaction is open
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
		q:  db,
	}
}
