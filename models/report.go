package models

import (
	"time"

	"gorm.io/datatypes"
)

// Report 一次分析结果的持久化记录，写入后不可修改
// Result 存为 longtext 而不是 JSON 列，保证序列化字节原样往返
type Report struct {
	ID        string         `json:"id" gorm:"primaryKey;size:128"`
	Seq       uint64         `json:"-" gorm:"autoIncrement;uniqueIndex"`
	UserID    string         `json:"userId" gorm:"size:128;index;not null"`
	Query     string         `json:"query" gorm:"type:text"`
	Context   string         `json:"context" gorm:"type:text"`
	Result    datatypes.JSON `json:"result" gorm:"type:longtext;not null"`
	CreatedAt time.Time      `json:"createdAt" gorm:"type:datetime(3);index"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName 设置表名
func (Report) TableName() string {
	return "reports"
}

// AnalysisResult 解码 Result 字段
func (r *Report) AnalysisResult() (AnalysisResult, error) {
	return DecodeAnalysisResult(r.Result)
}
