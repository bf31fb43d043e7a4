// Package clog 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 仅依赖 Go 标准库
//   - 采用函数式选项之外的最小配置面：Config + 字段辅助函数
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("generator created", clog.Int64("node_id", 1))
package clog

// Logger 日志接口，提供结构化日志记录功能
//
// 支持四个日志级别：Debug、Info、Warn、Error。
//
// 创建子 Logger：
//
//	childLogger := logger.With(clog.String("component", "snowid"))
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	//
	// 预设的字段会出现在所有日志中。
	With(fields ...Field) Logger
}
