package metrics

// Label 指标标签结构体
// 用于为指标添加维度信息，实现指标的细粒度分组和筛选
//
// 标签命名规范：
//   - 使用小写字母和下划线
//   - 标签值相对稳定，避免高基数标签（如请求 ID）
type Label struct {
	// Key 标签键，必须符合 Prometheus 标签命名规范
	Key string

	// Value 标签值
	Value string
}

// L 便捷构造函数，创建一个 Label 实例
//
//	counter.Inc(ctx, metrics.L("outcome", "success"))
func L(key, value string) Label {
	return Label{
		Key:   key,
		Value: value,
	}
}
