package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// New 创建一个新的 Logger 实例
//
// config - 日志配置，如果为 nil 会使用默认配置
func New(config *Config) (Logger, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	handler, err := newHandler(config)
	if err != nil {
		return nil, err
	}

	return &loggerImpl{handler: handler}, nil
}

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// Default 返回进程级默认 Logger（console 格式、info 级别、stdout）
func Default() Logger {
	defaultOnce.Do(func() {
		defaultLogger, _ = New(&Config{})
	})
	return defaultLogger
}

// newHandler 根据配置构建 slog.Handler（内部使用）
func newHandler(config *Config) (slog.Handler, error) {
	var w io.Writer
	switch config.Output {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		w = f
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     level.slogLevel(),
		AddSource: config.AddSource,
	}

	if strings.ToLower(config.Format) == "json" {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler slog.Handler
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

func (l *loggerImpl) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &loggerImpl{handler: l.handler.WithAttrs(fields)}
}

// log 构造带有正确调用位置的 slog.Record 并交给 handler（内部使用）
func (l *loggerImpl) log(level Level, msg string, fields ...Field) {
	ctx := context.Background()
	slogLevel := level.slogLevel()

	if !l.handler.Enabled(ctx, slogLevel) {
		return
	}

	// skip: runtime.Callers, log, Debug/Info/Warn/Error
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), slogLevel, msg, pcs[0])
	record.AddAttrs(fields...)

	_ = l.handler.Handle(ctx, record)
}
