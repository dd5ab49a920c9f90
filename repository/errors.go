package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateID 报告 ID 已存在，原记录不受影响
	ErrDuplicateID = errors.New("report id already exists")
	// ErrUnknownUser 报告所属用户不存在
	ErrUnknownUser = errors.New("report owner is not a known user")
)

// MySQL 错误码
const (
	mysqlDuplicateEntry     = 1062
	mysqlNoReferencedRow    = 1452
	mysqlNoReferencedRowOld = 1216
)

// StoreUnavailableError 底层存储 I/O 失败或数据库不可用
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable 判断是否为存储不可用错误
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

// classify 将驱动错误映射为仓储层错误
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicateID
		case mysqlNoReferencedRow, mysqlNoReferencedRowOld:
			return ErrUnknownUser
		}
	}
	return &StoreUnavailableError{Op: op, Err: err}
}
