// Package storage 基于 SQLite 的持久化：文章、网络校验信息与拦截事件日志。
package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"appscheme/internal/logger"
)

// Options 数据库配置
type Options struct {
	Dsn    string
	Prefix string
	Logger logger.Logger
}

// Open 打开数据库并完成表结构迁移
func Open(opts Options) (*gorm.DB, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(opts.Dsn), &gorm.Config{
		Logger:         NewGormLogger(opts.Logger),
		NamingStrategy: schema.NamingStrategy{TablePrefix: opts.Prefix},
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", opts.Dsn, err)
	}
	if err := db.AutoMigrate(&ArticleRecord{}, &ValidatorRecord{}, &EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
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
