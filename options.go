package snowid

import (
	"github.com/ceyewan/snowid/clog"
	"github.com/ceyewan/snowid/metrics"
)

// Option 生成器初始化选项函数
type Option func(*options)

// options 生成器初始化选项配置
type options struct {
	layout          *Layout
	logger          clog.Logger
	meter           metrics.Meter
	clock           Clock
	initialSequence int64
}

// WithLayout 设置位分配，默认使用 DefaultLayout
func WithLayout(layout Layout) Option {
	return func(o *options) {
		o.layout = &layout
	}
}

// WithLogger 设置 Logger，默认静默
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeter 设置 Meter，启用生成计数与耗时指标
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithClock 注入时钟源，仅用于测试
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithInitialSequence 设置起始序列号，范围 [0, MaxSequence]
func WithInitialSequence(seq int64) Option {
	return func(o *options) {
		o.initialSequence = seq
	}
}
