package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm/logger"

	applog "appscheme/internal/logger"
)

// GormLogger 将 GORM 日志转发到应用日志器
type GormLogger struct {
	applog.Logger
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger 创建新的GormLogger实例
func NewGormLogger(l applog.Logger) *GormLogger {
	return &GormLogger{
		Logger:        l,
		LogLevel:      logger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// LogMode 设置日志级别
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info 打印info级别日志
func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Info {
		l.Logger.Info(msg, "data", data)
	}
}

// Warn 打印warn级别日志
func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Warn {
		l.Logger.Warn(msg, "data", data)
	}
}

// Error 打印error级别日志
func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Error {
		l.Logger.Error(msg, "data", data)
	}
}

// Trace 打印SQL日志
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []any{
		"sql", sql,
		"rows", rows,
		"timeMs", float64(elapsed.Nanoseconds()) / 1e6,
	}

	switch {
	case err != nil && !errors.Is(err, logger.ErrRecordNotFound) && l.LogLevel >= logger.Error:
		l.Logger.Err(err, "SQL执行错误", fields...)
	case elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn:
		l.Logger.Warn("慢SQL查询", append(fields, "threshold", l.SlowThreshold.String())...)
	case l.LogLevel == logger.Info:
		l.Logger.Debug("SQL执行", fields...)
	}
}
