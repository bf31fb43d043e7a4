package snowid

import "github.com/ceyewan/snowid/xerrors"

var (
	// ErrInvalidInput 无效的输入（集群/节点编号越界、起始序列号越界等）
	ErrInvalidInput = xerrors.New("snowid: invalid input")

	// ErrLayoutTooWide 位宽总和超过 53 位安全范围
	ErrLayoutTooWide = xerrors.New("snowid: bit layout exceeds 53 bits")

	// ErrClockBackwards 检测到系统时钟回拨
	ErrClockBackwards = xerrors.New("snowid: clock moved backwards")

	// ErrTimestampOverflow 相对时间戳超出分配的位宽
	ErrTimestampOverflow = xerrors.New("snowid: timestamp exceeds allotted bits")

	// ErrUnsafeInteger 组合出的 ID 超出 JavaScript 安全整数范围
	ErrUnsafeInteger = xerrors.New("snowid: id exceeds safe integer range")
)
