package snowid

// Metrics 指标常量定义
const (
	// MetricGenerated 雪花 ID 生成总数 (Counter)，按 outcome 标签区分成功与失败
	MetricGenerated = "snowid_generated_total"

	// MetricNextDuration 单次生成耗时 (Histogram，秒)
	MetricNextDuration = "snowid_next_duration_seconds"
)
