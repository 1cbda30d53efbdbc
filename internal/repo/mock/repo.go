// Package mock provides in-memory repository implementations used by the
// handler tests.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/promptpix/api/internal/repo"
	"github.com/promptpix/api/models"
)

type UserRepository struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	nextID uint
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *UserRepository) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return repo.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *UserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return user, nil
}

func (m *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *UserRepository) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

type PostRepository struct {
	mu     sync.RWMutex
	posts  map[uint]*models.Post
	nextID uint
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[uint]*models.Post), nextID: 1}
}

func (m *PostRepository) Create(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post.ID = m.nextID
	m.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *PostRepository) GetByID(_ context.Context, id uint) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (m *PostRepository) List(_ context.Context, page, perPage int) ([]models.Post, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, page, perPage), int64(len(all)), nil
}

func (m *PostRepository) Update(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.posts[post.ID]
	if !ok {
		return repo.ErrNotFound
	}
	existing.Title = post.Title
	existing.Body = post.Body
	existing.UpdatedAt = time.Now()
	*post = *existing
	return nil
}

func (m *PostRepository) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

type GenerationRepository struct {
	mu     sync.RWMutex
	gens   map[uint]*models.Generation
	nextID uint
}

func NewGenerationRepository() *GenerationRepository {
	return &GenerationRepository{gens: make(map[uint]*models.Generation), nextID: 1}
}

func (m *GenerationRepository) Create(_ context.Context, gen *models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gen.ID = m.nextID
	m.nextID++
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now()
	}
	gen.UpdatedAt = gen.CreatedAt
	cp := *gen
	m.gens[gen.ID] = &cp
	return nil
}

func (m *GenerationRepository) ListByUser(_ context.Context, userID uint, opts repo.GenerationListOptions) ([]models.Generation, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Generation
	needle := strings.ToLower(opts.Search)
	for _, g := range m.gens {
		if g.UserID != userID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(g.GeneratedPrompt), needle) {
			continue
		}
		matched = append(matched, *g)
	}

	sort.Slice(matched, func(i, j int) bool {
		if opts.Desc {
			return lessOn(matched[j], matched[i], opts.Sort)
		}
		return lessOn(matched[i], matched[j], opts.Sort)
	})

	return paginate(matched, opts.Page, opts.PerPage), int64(len(matched)), nil
}

func lessOn(a, b models.Generation, key string) bool {
	switch key {
	case "file_size":
		return a.FileSize < b.FileSize
	case "original_filename":
		return a.OriginalFilename < b.OriginalFilename
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

type PasswordResetRepository struct {
	mu     sync.Mutex
	resets []*models.PasswordReset
}

func NewPasswordResetRepository() *PasswordResetRepository {
	return &PasswordResetRepository{}
}

func (m *PasswordResetRepository) Create(_ context.Context, reset *models.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *reset
	cp.CreatedAt = time.Now()
	m.resets = append(m.resets, &cp)
	return nil
}

func (m *PasswordResetRepository) GetByEmailAndHash(_ context.Context, email, tokenHash string) (*models.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.resets {
		if r.Email == email && r.TokenHash == tokenHash {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *PasswordResetRepository) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.resets[:0]
	for _, r := range m.resets {
		if r.Email != email {
			kept = append(kept, r)
		}
	}
	m.resets = kept
	return nil
}

func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage
	if offset >= len(items) {
		return []T{}
	}
	end := offset + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
