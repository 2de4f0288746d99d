package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres-backed store.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }
