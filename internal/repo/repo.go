// Package repo defines the data access interfaces for the API and their
// PostgreSQL implementations. Handlers depend on the interfaces only, so
// tests can swap in the in-memory versions from repo/mock.
package repo

import (
	"context"
	"errors"

	"github.com/promptpix/api/models"
)

var (
	ErrNotFound       = errors.New("repo: record not found")
	ErrDuplicateEmail = errors.New("repo: email already registered")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, page, perPage int) ([]models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// GenerationListOptions controls filtering and ordering of a user's
// generation listing. Sort must be one of the whitelisted column names;
// Search is matched case-insensitively against the generated prompt.
type GenerationListOptions struct {
	Search  string
	Sort    string
	Desc    bool
	Page    int
	PerPage int
}

type GenerationRepository interface {
	Create(ctx context.Context, gen *models.Generation) error
	ListByUser(ctx context.Context, userID uint, opts GenerationListOptions) ([]models.Generation, int64, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByEmailAndHash(ctx context.Context, email, tokenHash string) (*models.PasswordReset, error)
	DeleteByEmail(ctx context.Context, email string) error
}
