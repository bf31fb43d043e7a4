// Package snowid 实现 53 位安全的分布式雪花 ID 生成器。
//
// 生成的 ID 从高位到低位由相对时间戳、集群 ID、节点 ID 和毫秒内序列号
// 组成，总位宽不超过 53 位，可经 JSON/JavaScript 无损传输，适合作为
// 数据库主键默认值。同一实例产出的 ID 按 (时间戳, 序列号) 字典序严格
// 递增；不同 (集群, 节点) 的实例由位分配保证 ID 空间互不相交，彼此
// 之间无需任何协调。
//
// 基本使用：
//
//	gen, err := snowid.New(1, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, err := gen.Next()
//
//	info := snowid.Parse(id)
//	fmt.Println(info.ClusterID, info.NodeID, info.Sequence)
//
// 集群/节点编号是静态配置，由部署方划分；本包不做网络协商，也不跨
// 进程持久化发号状态。
package snowid

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ceyewan/snowid/clog"
	"github.com/ceyewan/snowid/metrics"
	"github.com/ceyewan/snowid/xerrors"
)

// spinInterval 序列号耗尽时每次重试的休眠时长
// 必须远小于 1ms，保证时钟前进后尽快恢复发号
const spinInterval = 100 * time.Microsecond

// Generator 雪花 ID 生成器
//
// 发号状态（lastTime、sequence）由互斥锁保护，整个读-改-写序列
// （含序列号耗尽时的等待）作为一个原子单元执行。实例创建后集群/
// 节点编号不再变化，进程重启前状态不会重置。
type Generator struct {
	mu        sync.Mutex
	layout    Layout
	clusterID int64
	nodeID    int64
	sequence  int64
	lastTime  int64 // 相对 Epoch 的毫秒；-1 表示尚未发号

	now    Clock
	logger clog.Logger

	generated metrics.Counter
	duration  metrics.Histogram
}

// New 创建雪花 ID 生成器
//
// 参数:
//   - clusterID: 集群 ID [0, MaxClusterID]
//   - nodeID: 节点 ID [0, MaxNodeID]
//   - opts: 可选参数 (Layout, Logger, Meter, Clock, InitialSequence)
//
// 使用示例:
//
//	// 默认位分配
//	gen, _ := snowid.New(1, 0)
//
//	// 带配置
//	gen, _ := snowid.New(1, 0,
//	    snowid.WithLayout(layout),
//	    snowid.WithLogger(logger),
//	)
func New(clusterID, nodeID int64, opts ...Option) (*Generator, error) {
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	layout := DefaultLayout()
	if opt.layout != nil {
		layout = *opt.layout
	}

	// 零值 Layout 没有经过 NewLayout 的派生计算，直接拒绝
	if layout.maxTimestamp == 0 {
		return nil, xerrors.WithCode(ErrInvalidInput, "layout_not_initialized")
	}

	if clusterID < 0 || clusterID > layout.MaxClusterID() {
		return nil, xerrors.WithCode(ErrInvalidInput, "cluster_id_out_of_range")
	}
	if nodeID < 0 || nodeID > layout.MaxNodeID() {
		return nil, xerrors.WithCode(ErrInvalidInput, "node_id_out_of_range")
	}
	if opt.initialSequence < 0 || opt.initialSequence > layout.MaxSequence() {
		return nil, xerrors.WithCode(ErrInvalidInput, "initial_sequence_out_of_range")
	}

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	} else {
		logger = logger.With(clog.String("component", "snowid"))
	}

	clock := opt.clock
	if clock == nil {
		clock = systemClock
	}

	g := &Generator{
		layout:    layout,
		clusterID: clusterID,
		nodeID:    nodeID,
		sequence:  opt.initialSequence,
		lastTime:  -1,
		now:       clock,
		logger:    logger,
	}

	if opt.meter != nil {
		generated, err := opt.meter.Counter(MetricGenerated, "雪花 ID 生成总数")
		if err != nil {
			return nil, xerrors.Wrap(err, "create generated counter")
		}
		duration, err := opt.meter.Histogram(MetricNextDuration, "单次生成耗时", metrics.WithUnit("s"))
		if err != nil {
			return nil, xerrors.Wrap(err, "create duration histogram")
		}
		g.generated = generated
		g.duration = duration
	}

	g.logger.Info("snowflake generator created",
		clog.Int64("cluster_id", clusterID),
		clog.Int64("node_id", nodeID),
	)

	return g, nil
}

// Next 生成下一个 ID
//
// 返回的 ID 为非负整数且不超过 2^53-1。错误一律向调用方暴露，
// 生成器内部不做重试：
//   - ErrInvalidInput: 时钟读数早于 Epoch，属于配置错误
//   - ErrClockBackwards: 时钟回拨，是否等待重试由调用方决策
//   - ErrTimestampOverflow: 时间戳位宽耗尽，需要调整 Epoch 或位分配
//   - ErrUnsafeInteger: 位分配/算术缺陷，属于不变量破坏
func (g *Generator) Next() (int64, error) {
	start := time.Now()

	g.mu.Lock()
	id, err := g.next()
	g.mu.Unlock()

	if g.generated != nil {
		ctx := context.Background()
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		g.generated.Inc(ctx, metrics.L("outcome", outcome))
		g.duration.Record(ctx, time.Since(start).Seconds())
	}

	return id, err
}

// NextString 生成十进制字符串形式的 ID
func (g *Generator) NextString() (string, error) {
	id, err := g.Next()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// next 在持有锁的前提下执行发号算法（内部使用）
func (g *Generator) next() (int64, error) {
	now := g.now() - g.layout.epoch

	// 相对时间戳为负说明时钟落后于 Epoch，组合会产出负 ID；
	// 且 -1 会与 lastTime 的哨兵值碰撞，必须在回拨判断前拒绝
	if now < 0 {
		g.logger.Error("clock reads before epoch, refusing to generate",
			clog.Int64("now_ms", now+g.layout.epoch),
			clog.Int64("epoch", g.layout.epoch),
		)
		return 0, xerrors.WithCode(ErrInvalidInput, "clock_before_epoch")
	}

	// 处理时钟回拨：拒绝发号而不是复用旧时间戳，避免重复 ID
	if now < g.lastTime {
		drift := g.lastTime - now
		g.logger.Error("clock moved backwards, refusing to generate",
			clog.Int64("drift_ms", drift),
		)
		return 0, xerrors.Wrapf(ErrClockBackwards, "drift: %dms", drift)
	}

	if now == g.lastTime {
		// 同一毫秒内，序列号自增
		g.sequence = (g.sequence + 1) & g.layout.sequenceMask
		if g.sequence == 0 {
			// 序列号耗尽，等待下一毫秒
			now = g.nextMillis(g.lastTime)
		}
	} else {
		// 新的毫秒，序列号重置
		g.sequence = 0
	}

	g.lastTime = now

	if now >= g.layout.maxTimestamp {
		g.logger.Error("relative timestamp exhausted allotted bits",
			clog.Int64("timestamp", now),
			clog.Int64("epoch", g.layout.epoch),
		)
		return 0, xerrors.WithCode(ErrTimestampOverflow, "epoch_or_bits_exhausted")
	}

	id := now<<g.layout.timestampShift |
		g.clusterID<<g.layout.clusterShift |
		g.nodeID<<g.layout.nodeShift |
		g.sequence

	// 时间戳位宽已在上方校验，走到这里只可能是位分配缺陷
	if id >= maxSafeInteger {
		return 0, xerrors.WithCode(ErrUnsafeInteger, "layout_arithmetic_defect")
	}

	return id, nil
}

// nextMillis 自旋等待时钟越过 last，返回新的相对毫秒值
//
// 每次重试短暂休眠以避免空转烧 CPU；等待只受真实时钟前进约束，
// 正常情况下在 1-2ms 内结束。
func (g *Generator) nextMillis(last int64) int64 {
	now := g.now() - g.layout.epoch
	for now <= last {
		time.Sleep(spinInterval)
		now = g.now() - g.layout.epoch
	}
	return now
}

// Parse 按生成器自身的位分配解析 ID
func (g *Generator) Parse(id int64) ParsedID {
	return g.layout.Parse(id)
}

// Layout 返回生成器使用的位分配
func (g *Generator) Layout() Layout {
	return g.layout
}

// ClusterID 返回集群 ID
func (g *Generator) ClusterID() int64 {
	return g.clusterID
}

// NodeID 返回节点 ID
func (g *Generator) NodeID() int64 {
	return g.nodeID
}
