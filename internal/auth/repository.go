package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountStore provides read access to accounts plus the single-admin
// bootstrap. Account creation beyond the bootstrap happens at setup time and
// is owned by the credential-management flows, not this subsystem.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	UpsertAdminAccount(ctx context.Context, email, plainPassword, role string) error
}

// Repository is the Postgres-backed AccountStore.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Role, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account by email: %w", err)
	}

	return account, nil
}

// UpsertAdminAccount makes email the only account in the system, creating or
// updating it with the given password and role.
func (r *Repository) UpsertAdminAccount(ctx context.Context, email, plainPassword, role string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate account id: %w", err)
	}

	hash, err := HashPassword(plainPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM accounts ORDER BY created_at ASC LIMIT 1`).Scan(&existingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existingID = id.String()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
			`, existingID, email, hash, role, now); err != nil {
				return fmt.Errorf("insert admin account: %w", err)
			}
		} else {
			return fmt.Errorf("select existing account: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET email = $2, password_hash = $3, role = $4, updated_at = $5
			WHERE id = $1
		`, existingID, email, hash, role, now); err != nil {
			return fmt.Errorf("update admin account: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id <> $1`, existingID); err != nil {
		return fmt.Errorf("cleanup extra accounts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
