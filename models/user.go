package models

import "time"

// User 登录用户，主键为身份提供方的 subject id
// 每次登录成功都会 upsert，冲突字段以最后一次登录为准
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:128"`
	Name      string    `json:"name" gorm:"size:255"`
	Email     string    `json:"email" gorm:"size:255;index"`
	Picture   string    `json:"picture" gorm:"size:1024"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
