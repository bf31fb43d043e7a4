package snowid

import "time"

// DateTimeFormat ParsedID.DateTime 使用的时间格式
const DateTimeFormat = "2006-01-02 15:04:05"

// ParsedID 雪花 ID 的解析结果
type ParsedID struct {
	// Timestamp 绝对毫秒时间戳（已加回 Epoch）
	Timestamp int64 `json:"timestamp"`

	// ClusterID 集群 ID
	ClusterID int64 `json:"cluster_id"`

	// NodeID 节点 ID
	NodeID int64 `json:"node_id"`

	// Sequence 毫秒内序列号
	Sequence int64 `json:"sequence"`
}

// Time 返回 ID 的生成时间
func (p ParsedID) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// DateTime 返回格式化的生成时间字符串
func (p ParsedID) DateTime() string {
	return p.Time().Format(DateTimeFormat)
}

// Parse 解析雪花 ID，获取其包含的详细信息
//
// 纯位运算，不修改任何状态；掩码保证各分量都在合法范围内，
// 对任何非负整数都不会失败。
func (l Layout) Parse(id int64) ParsedID {
	return ParsedID{
		Timestamp: id>>l.timestampShift + l.epoch,
		ClusterID: id >> l.clusterShift & l.clusterMask,
		NodeID:    id >> l.nodeShift & l.nodeMask,
		Sequence:  id & l.sequenceMask,
	}
}

// Compose 按位分配重新组合 ParsedID，是 Parse 的精确逆运算
func (l Layout) Compose(p ParsedID) int64 {
	return (p.Timestamp-l.epoch)<<l.timestampShift |
		p.ClusterID<<l.clusterShift |
		p.NodeID<<l.nodeShift |
		p.Sequence
}

// Parse 使用默认位分配解析雪花 ID
func Parse(id int64) ParsedID {
	return DefaultLayout().Parse(id)
}
