package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 键值对风格的日志接口
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	// Err 记录携带错误的 error 级别日志
	Err(err error, msg string, kv ...any)
	// With 返回附带固定字段的子日志器
	With(kv ...any) Logger
}

// Options 日志配置
type Options struct {
	Level      string
	Writer     []string // console / file
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New 根据配置创建 zerolog 日志器
func New(opts Options) (Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := make([]io.Writer, 0, len(opts.Writer))
	for _, w := range opts.Writer {
		switch w {
		case "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
		case "file":
			if opts.File == "" {
				return nil, fmt.Errorf("log writer file: missing file path")
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
				Compress:   true,
			})
		default:
			return nil, fmt.Errorf("unknown log writer %q", w)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return &zeroLogger{zl: zl}, nil
}

// NewWriter 创建输出到指定 writer 的日志器，主要用于测试
func NewWriter(w io.Writer, level zerolog.Level) Logger {
	return &zeroLogger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewNop 创建丢弃所有输出的日志器
func NewNop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func (l *zeroLogger) Debug(msg string, kv ...any) { l.zl.Debug().Fields(kv).Msg(msg) }

func (l *zeroLogger) Info(msg string, kv ...any) { l.zl.Info().Fields(kv).Msg(msg) }

func (l *zeroLogger) Warn(msg string, kv ...any) { l.zl.Warn().Fields(kv).Msg(msg) }

func (l *zeroLogger) Error(msg string, kv ...any) { l.zl.Error().Fields(kv).Msg(msg) }

func (l *zeroLogger) Err(err error, msg string, kv ...any) {
	l.zl.Error().Err(err).Fields(kv).Msg(msg)
}

func (l *zeroLogger) With(kv ...any) Logger {
	return &zeroLogger{zl: l.zl.With().Fields(kv).Logger()}
}
