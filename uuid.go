package snowid

import "github.com/google/uuid"

// UUID 生成 UUID v7 字符串（时间排序）
//
// 需要字符串主键或会话标识时的替代方案，与雪花 ID 互补。
//
// 使用示例:
//
//	uid := snowid.UUID()
func UUID() string {
	v7, _ := uuid.NewV7()
	return v7.String()
}

// UUIDv4 生成 UUID v4 字符串（随机）
// 适用于不需要时间排序的场景
func UUIDv4() string {
	return uuid.New().String()
}
