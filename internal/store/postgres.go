package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/likering/backend/internal/auth"
	"github.com/likering/backend/internal/models"
)

const accountColumns = `id, nombre, correo, username, password_hash, imagen_url, tipo, seguidores, created_at`

// AccountStore handles account CRUD against PostgreSQL. The UNIQUE
// constraints on username and correo are the authoritative duplicate guard.
type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Migrate creates the usuarios table if it doesn't exist.
func (s *AccountStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS usuarios (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			nombre        VARCHAR(100) NOT NULL,
			correo        VARCHAR(255) UNIQUE NOT NULL,
			username      VARCHAR(50)  UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			imagen_url    TEXT         NOT NULL DEFAULT '',
			tipo          VARCHAR(20)  NOT NULL DEFAULT 'personal',
			seguidores    INTEGER      NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

// Create inserts the account and fills in the store-assigned fields. A
// unique violation maps to auth.ErrDuplicateAccount.
func (s *AccountStore) Create(ctx context.Context, acc *models.Account) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usuarios (nombre, correo, username, password_hash, imagen_url, tipo)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, seguidores, created_at`,
		acc.Nombre, acc.Correo, acc.Username, acc.PasswordHash, acc.ImagenURL, acc.Tipo,
	).Scan(&acc.ID, &acc.Seguidores, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrDuplicateAccount
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// FindByUsernameOrEmail matches each candidate key against its own column,
// for the registration uniqueness pre-check.
func (s *AccountStore) FindByUsernameOrEmail(ctx context.Context, username, correo string) (*models.Account, error) {
	return s.findOne(ctx,
		`SELECT `+accountColumns+` FROM usuarios WHERE username = $1 OR correo = $2`,
		username, correo)
}

// FindByIdentifier matches one identifier against both username and correo,
// for login.
func (s *AccountStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	return s.findOne(ctx,
		`SELECT `+accountColumns+` FROM usuarios WHERE username = $1 OR correo = $1`,
		identifier)
}

// FindByUsername matches the exact username, for profile search.
func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findOne(ctx,
		`SELECT `+accountColumns+` FROM usuarios WHERE username = $1`,
		username)
}

// List returns all accounts, newest first.
func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM usuarios ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accs []models.Account
	for rows.Next() {
		var a models.Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		accs = append(accs, a)
	}
	return accs, rows.Err()
}

func (s *AccountStore) findOne(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var a models.Account
	err := scanAccount(s.pool.QueryRow(ctx, query, args...), &a)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &a, nil
}

func scanAccount(row pgx.Row, a *models.Account) error {
	return row.Scan(&a.ID, &a.Nombre, &a.Correo, &a.Username, &a.PasswordHash,
		&a.ImagenURL, &a.Tipo, &a.Seguidores, &a.CreatedAt)
}
