package snowid

import (
	"github.com/ceyewan/snowid/xerrors"
)

const (
	// SafeIntegerBits IEEE-754 双精度浮点数能精确表示的整数位宽
	// ID 的总位宽不得超过该值，否则经 JSON/JS 传输会丢失精度
	SafeIntegerBits = 53

	// 默认位分配: 37 bit 时间戳 + 3 bit 集群 + 3 bit 节点 + 10 bit 序列号
	// 37 位毫秒时间戳可表示约 137 年
	DefaultTimestampBits = 37
	DefaultClusterBits   = 3
	DefaultNodeBits      = 3
	DefaultSequenceBits  = 10

	// DefaultEpoch 元年时间戳（2025-01-01 00:00:00 +08:00，毫秒）
	// 较新的起始时间可减少时间戳位数占用
	DefaultEpoch int64 = 1735660800000
)

// maxSafeInteger 2^53，组合结果必须严格小于该值
const maxSafeInteger = int64(1) << SafeIntegerBits

// LayoutConfig 位分配配置
//
// 四个位宽全部为零时使用默认分配，Epoch 为零时使用 DefaultEpoch。
type LayoutConfig struct {
	// TimestampBits 时间戳位数
	TimestampBits int `yaml:"timestamp_bits" json:"timestamp_bits"`

	// ClusterBits 集群 ID 位数
	ClusterBits int `yaml:"cluster_bits" json:"cluster_bits"`

	// NodeBits 节点 ID 位数
	NodeBits int `yaml:"node_bits" json:"node_bits"`

	// SequenceBits 序列号位数
	SequenceBits int `yaml:"sequence_bits" json:"sequence_bits"`

	// Epoch 元年时间戳（毫秒），从所有时钟读数中减去以压缩存储位数
	Epoch int64 `yaml:"epoch" json:"epoch"`
}

func (c *LayoutConfig) setDefaults() {
	if c.TimestampBits == 0 && c.ClusterBits == 0 && c.NodeBits == 0 && c.SequenceBits == 0 {
		c.TimestampBits = DefaultTimestampBits
		c.ClusterBits = DefaultClusterBits
		c.NodeBits = DefaultNodeBits
		c.SequenceBits = DefaultSequenceBits
	}
	if c.Epoch == 0 {
		c.Epoch = DefaultEpoch
	}
}

func (c *LayoutConfig) validate() error {
	if c.TimestampBits < 0 || c.ClusterBits < 0 || c.NodeBits < 0 || c.SequenceBits < 0 {
		return xerrors.WithCode(ErrInvalidInput, "negative_bit_width")
	}
	if c.Epoch < 0 {
		return xerrors.WithCode(ErrInvalidInput, "negative_epoch")
	}

	total := c.TimestampBits + c.ClusterBits + c.NodeBits + c.SequenceBits
	if total > SafeIntegerBits {
		return xerrors.Wrapf(ErrLayoutTooWide, "total: %d bits", total)
	}
	return nil
}

// Layout 不可变的位分配，掩码与位移在创建时一次性计算
//
// 布局从高位到低位依次为: 相对时间戳 | 集群 ID | 节点 ID | 序列号。
// 只能通过 NewLayout 构造，保证派生值与位宽一致。
type Layout struct {
	timestampBits int
	clusterBits   int
	nodeBits      int
	sequenceBits  int
	epoch         int64

	sequenceMask int64
	nodeMask     int64
	clusterMask  int64

	nodeShift      uint
	clusterShift   uint
	timestampShift uint

	// maxTimestamp 2^timestampBits，相对时间戳必须严格小于该值
	maxTimestamp int64
}

// NewLayout 创建位分配
//
// cfg 为 nil 时使用默认分配 (37/3/3/10, DefaultEpoch)。
// 位宽总和超过 53 位时返回 ErrLayoutTooWide。
func NewLayout(cfg *LayoutConfig) (Layout, error) {
	c := LayoutConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return Layout{}, err
	}

	l := Layout{
		timestampBits: c.TimestampBits,
		clusterBits:   c.ClusterBits,
		nodeBits:      c.NodeBits,
		sequenceBits:  c.SequenceBits,
		epoch:         c.Epoch,

		sequenceMask: int64(1)<<c.SequenceBits - 1,
		nodeMask:     int64(1)<<c.NodeBits - 1,
		clusterMask:  int64(1)<<c.ClusterBits - 1,

		nodeShift:      uint(c.SequenceBits),
		clusterShift:   uint(c.SequenceBits + c.NodeBits),
		timestampShift: uint(c.SequenceBits + c.NodeBits + c.ClusterBits),

		maxTimestamp: int64(1) << c.TimestampBits,
	}
	return l, nil
}

// defaultLayout 进程内共享的默认位分配，验证在包初始化时完成
var defaultLayout = xerrors.Must(NewLayout(nil))

// DefaultLayout 返回默认位分配 (37/3/3/10, DefaultEpoch)
func DefaultLayout() Layout {
	return defaultLayout
}

// Epoch 返回元年时间戳（毫秒）
func (l Layout) Epoch() int64 {
	return l.epoch
}

// MaxClusterID 返回集群 ID 的最大合法值
func (l Layout) MaxClusterID() int64 {
	return l.clusterMask
}

// MaxNodeID 返回节点 ID 的最大合法值
func (l Layout) MaxNodeID() int64 {
	return l.nodeMask
}

// MaxSequence 返回单毫秒内序列号的最大值
func (l Layout) MaxSequence() int64 {
	return l.sequenceMask
}
