package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/storage"
)

const userColumns = `id, email, display_name, password_hash, provider, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := insertUser(ctx, s.db, user); err != nil {
		return err
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	provider := user.Provider
	if provider == "" {
		provider = models.ProviderPassword
	}

	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		provider,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns nil, nil if no user has that email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
// Returns nil, nil if the user does not exist.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Provider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateApprovalCode stores a new, unused approval code.
func (s *SQLiteStore) CreateApprovalCode(ctx context.Context, code *models.ApprovalCode) error {
	if code.CreatedAt == 0 {
		code.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO approval_codes (code, created_at) VALUES (?, ?)",
		code.Code, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert approval code: %w", err)
	}

	return nil
}

// GetApprovalCode retrieves an approval code.
func (s *SQLiteStore) GetApprovalCode(ctx context.Context, code string) (*models.ApprovalCode, error) {
	var (
		result models.ApprovalCode
		usedAt sql.NullInt64
		usedBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT code, created_at, used_at, used_by FROM approval_codes WHERE code = ?",
		code,
	).Scan(&result.Code, &result.CreatedAt, &usedAt, &usedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("approval code: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval code: %w", err)
	}

	result.UsedAt = usedAt.Int64
	result.UsedBy = usedBy.String
	return &result, nil
}

// CreateUserWithApprovalCode inserts the user and consumes the code
// atomically.
func (s *SQLiteStore) CreateUserWithApprovalCode(ctx context.Context, user *models.User, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE approval_codes SET used_at = ?, used_by = ? WHERE code = ? AND used_at IS NULL",
		time.Now().Unix(), user.ID, code,
	)
	if err != nil {
		return fmt.Errorf("failed to consume approval code: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrCodeUnavailable
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
