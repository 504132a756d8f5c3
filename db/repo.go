package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"material_lending/lending"
	"material_lending/models"

	"gorm.io/gorm"
)

// Repo 是 lending.Store 的 gorm 实现；事务内的 Repo 持有 tx
type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

var _ lending.Store = (*Repo)(nil)

func (r *Repo) Transaction(ctx context.Context, fn func(tx lending.Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

// gorm.ErrRecordNotFound -> lending 的 not_found，其余错误带上实体信息
func wrap(err error, entity string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lending.NewNotFoundError(entity, id)
	}
	return fmt.Errorf("%s %d: %w", entity, id, err)
}

// Users

func (r *Repo) TouchUserSeen(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", gorm.Expr("NOW()")).Error
}

func (r *Repo) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "user", id)
	}
	return &u, nil
}

func (r *Repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = ?", email).First(&u).Error; err != nil {
		return nil, wrap(err, "user", 0)
	}
	return &u, nil
}

func (r *Repo) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var us []models.User
	if err := r.DB.WithContext(ctx).Where("role = ?", role).Order("id").Find(&us).Error; err != nil {
		return nil, err
	}
	return us, nil
}

// 按邮箱查找，不存在则创建；已存在的用户角色不变
func (r *Repo) FindOrCreateUser(ctx context.Context, name, email string, role models.Role) (*models.User, error) {
	u, err := r.FindUserByEmail(ctx, email)
	if errors.Is(err, lending.ErrNotFound) {
		u = &models.User{Name: name, Email: strings.ToLower(strings.TrimSpace(email)), Role: role}
		if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
			return nil, err
		}
		return u, nil
	}
	return u, err
}
