package sqldb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parley/internal/config"
)

// New 打开 SQLite 数据库（纯 Go 驱动，无需 cgo）
// WAL + busy_timeout 让并发的读与串行写可以共存
func New(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite 同一时刻只有一个写者
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zerologWriter 将 gorm 日志转发到全局 zerolog
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...interface{}) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(zerologWriter{}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
