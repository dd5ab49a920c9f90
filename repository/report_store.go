package repository

import (
	"context"
	"time"

	"datalens/models"

	"gorm.io/gorm"
)

const (
	// DefaultListLimit 历史查询默认条数
	DefaultListLimit = 10
	// MaxListLimit 历史查询最大条数
	MaxListLimit = 100
)

// Provider 提供数据库连接，database.Handle 实现了该接口
type Provider interface {
	Get() (*gorm.DB, error)
}

// ReportStore 用户维度的分析报告存储，只追加不修改
type ReportStore struct {
	db  Provider
	now func() time.Time
}

// NewReportStore 创建报告存储
func NewReportStore(db Provider) *ReportStore {
	return &ReportStore{db: db, now: time.Now}
}

// Append 写入一条新报告，CreatedAt 由服务端赋值
func (s *ReportStore) Append(ctx context.Context, report *models.Report) error {
	db, err := s.db.Get()
	if err != nil {
		return &StoreUnavailableError{Op: "append", Err: err}
	}

	report.Seq = 0
	report.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := db.WithContext(ctx).Omit("User").Create(report).Error; err != nil {
		return classify("append", err)
	}
	return nil
}

// ListByUser 按创建时间倒序返回用户最近的 limit 条报告，同一时间按写入顺序倒序
// 未知用户返回空切片
func (s *ReportStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	db, err := s.db.Get()
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list", Err: err}
	}

	reports := make([]models.Report, 0, limit)
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, classify("list", err)
	}
	return reports, nil
}
