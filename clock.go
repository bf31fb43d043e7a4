package snowid

import "time"

// Clock 返回当前 Unix 毫秒时间戳
//
// 生产环境使用系统时钟；测试中通过 WithClock 注入假时钟，
// 以便确定性地驱动回拨、序列号耗尽等路径。
type Clock func() int64

// systemClock 系统墙上时钟（内部使用）
func systemClock() int64 {
	return time.Now().UnixMilli()
}
