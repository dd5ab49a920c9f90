package database

import (
	"errors"
	"fmt"
	"sync"

	"datalens/config"
	"datalens/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// State 数据库句柄状态
type State int

const (
	// Uninitialized 尚未尝试初始化
	Uninitialized State = iota
	// Unconfigured 未配置或连接失败，错误保存在句柄中
	Unconfigured
	// Ready 可用
	Ready
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Unconfigured:
		return "unconfigured"
	default:
		return "uninitialized"
	}
}

// ErrNotConfigured 未配置数据库连接信息
var ErrNotConfigured = errors.New("database is not configured")

// Handle 进程级数据库句柄：首次使用时初始化一次，之后只读
type Handle struct {
	mu    sync.Mutex
	state State
	db    *gorm.DB
	err   error
	cfg   func() *config.Config
}

// Default 全局句柄，首次 Get 时按 config.GlobalConfig 初始化
var Default = NewHandle(func() *config.Config { return config.GlobalConfig })

// NewHandle 创建句柄，cfg 在首次初始化时才会被调用
func NewHandle(cfg func() *config.Config) *Handle {
	return &Handle{cfg: cfg}
}

// Get 返回可用的连接；首次调用时建立连接并迁移表结构
func (h *Handle) Get() (*gorm.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Uninitialized {
		h.db, h.err = open(h.cfg())
		if h.err != nil {
			h.state = Unconfigured
			config.LogError("database", "Get", "初始化数据库失败", nil, h.err)
		} else {
			h.state = Ready
			config.Logger().Info("数据库初始化成功")
		}
	}
	if h.state != Ready {
		return nil, h.err
	}
	return h.db, nil
}

// State 当前状态，不会触发初始化
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Ready 是否已就绪，不会触发初始化
func (h *Handle) Ready() bool {
	return h.State() == Ready
}

// Use 直接注入已打开的连接（测试与 migrate 命令使用）
func (h *Handle) Use(db *gorm.DB) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.db, h.err = db, nil
	h.state = Ready
	if db == nil {
		h.err = ErrNotConfigured
		h.state = Unconfigured
	}
}

// Reset 回到未初始化状态
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.db, h.err, h.state = nil, nil, Uninitialized
}

func open(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil || !cfg.Database.Configured() {
		return nil, ErrNotConfigured
	}

	level := logger.Warn
	if cfg.Server.Mode == "debug" {
		level = logger.Info
	}
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("迁移数据库失败: %w", err)
	}
	return db, nil
}

// Migrate 自动迁移数据库表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Report{},
	)
}
