package repository

import (
	"context"

	"datalens/models"

	"gorm.io/gorm/clause"
)

// UserStore 登录用户存储
type UserStore struct {
	db Provider
}

// NewUserStore 创建用户存储
func NewUserStore(db Provider) *UserStore {
	return &UserStore{db: db}
}

// Upsert 按身份提供方 id 写入或覆盖用户资料，并发重复登录时最后一次写入生效
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	db, err := s.db.Get()
	if err != nil {
		return &StoreUnavailableError{Op: "upsert user", Err: err}
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "picture", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return &StoreUnavailableError{Op: "upsert user", Err: err}
	}
	return nil
}
