package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/promptpix/api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// generationSortColumns is the whitelist for the listing sort key. Anything
// else falls back to created_at.
var generationSortColumns = map[string]bool{
	"created_at":        true,
	"file_size":         true,
	"original_filename": true,
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *GormPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *GormPostRepository) List(ctx context.Context, page, perPage int) ([]models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Select("title", "body").Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type GormGenerationRepository struct {
	db *gorm.DB
}

func NewGormGenerationRepository(db *gorm.DB) *GormGenerationRepository {
	return &GormGenerationRepository{db: db}
}

func (r *GormGenerationRepository) Create(ctx context.Context, gen *models.Generation) error {
	return r.db.WithContext(ctx).Create(gen).Error
}

func (r *GormGenerationRepository) ListByUser(ctx context.Context, userID uint, opts GenerationListOptions) ([]models.Generation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Generation{}).Where("user_id = ?", userID)
	if opts.Search != "" {
		pattern := "%" + escapeLike(opts.Search) + "%"
		q = q.Where("generated_prompt ILIKE ?", pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col := opts.Sort
	if !generationSortColumns[col] {
		col = "created_at"
	}

	var gens []models.Generation
	err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: opts.Desc}).
		Offset((opts.Page - 1) * opts.PerPage).
		Limit(opts.PerPage).
		Find(&gens).Error
	if err != nil {
		return nil, 0, err
	}
	return gens, total, nil
}

type GormPasswordResetRepository struct {
	db *gorm.DB
}

func NewGormPasswordResetRepository(db *gorm.DB) *GormPasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

func (r *GormPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

func (r *GormPasswordResetRepository) GetByEmailAndHash(ctx context.Context, email, tokenHash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.WithContext(ctx).
		Where("email = ? AND token_hash = ?", email, tokenHash).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reset, nil
}

func (r *GormPasswordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.PasswordReset{}).Error
}

// escapeLike neutralizes LIKE metacharacters in user supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
