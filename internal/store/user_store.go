package store

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/feedback-app/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicate reports a unique-constraint violation from the database.
var ErrDuplicate = errors.New("duplicate_key")

// UserStore is the persistence contract the user workflow depends on.
type UserStore interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	Save(ctx context.Context, u *models.User) error
	DeleteByID(ctx context.Context, id uint) error
}

type gormUserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore { return &gormUserStore{db: db} }

func (s *gormUserStore) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormUserStore) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save upserts the record: a zero ID creates and assigns one, a non-zero ID
// updates the existing row. UpdatedAt is refreshed either way.
func (s *gormUserStore) Save(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteByID removes the row if present; a missing id is not an error.
func (s *gormUserStore) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// isDuplicate matches the constraint-violation shapes the supported drivers
// produce (sqlite: "UNIQUE constraint failed", postgres: "duplicate key value").
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
