// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/worklog/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCodeUnavailable is returned when an approval code is unknown or
	// already used.
	ErrCodeUnavailable = errors.New("approval code is invalid or already used")
)

// RecordStore defines work record persistence.
// Every operation is atomic for a single record.
type RecordStore interface {
	// ListRecords returns all records ordered by date descending, then
	// creation time descending.
	ListRecords(ctx context.Context) ([]models.WorkRecord, error)

	// GetRecord retrieves a record by ID.
	// Returns ErrNotFound if the record does not exist.
	GetRecord(ctx context.Context, id string) (*models.WorkRecord, error)

	// CreateRecord persists a new record.
	// The record.ID and record.CreatedAt fields are populated by the store.
	CreateRecord(ctx context.Context, record *models.WorkRecord) error

	// UpdateRecord replaces the editable fields of an existing record.
	// ID, UserID and CreatedAt are preserved; record is refreshed with the
	// stored values. Returns ErrNotFound if the record does not exist.
	UpdateRecord(ctx context.Context, record *models.WorkRecord) error

	// DeleteRecord removes a record.
	// Returns ErrNotFound if the record does not exist.
	DeleteRecord(ctx context.Context, id string) error
}

// ApprovalCodeStore defines approval code persistence.
type ApprovalCodeStore interface {
	CreateApprovalCode(ctx context.Context, code *models.ApprovalCode) error

	// GetApprovalCode retrieves a code.
	// Returns ErrNotFound if the code does not exist.
	GetApprovalCode(ctx context.Context, code string) (*models.ApprovalCode, error)

	// CreateUserWithApprovalCode inserts user and marks code as used by
	// that user in one transaction. Returns ErrCodeUnavailable, and inserts
	// nothing, if the code is unknown or already used.
	CreateUserWithApprovalCode(ctx context.Context, user *models.User, code string) error
}

// Store is the full storage backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	RecordStore
	ApprovalCodeStore

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
