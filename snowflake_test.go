package snowid

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ceyewan/snowid/xerrors"
)

// ========================================
// 测试时钟
// ========================================

// frozenClock 始终返回同一毫秒值
func frozenClock(ms int64) Clock {
	return func() int64 { return ms }
}

// scriptedClock 依次返回给定的毫秒值，用尽后重复最后一个
func scriptedClock(values ...int64) Clock {
	i := 0
	return func() int64 {
		if i < len(values) {
			v := values[i]
			i++
			return v
		}
		return values[len(values)-1]
	}
}

// steppedClock 前 n 次读数返回 t0，之后返回 t0+1；reads 记录读数次数
func steppedClock(t0 int64, n int) (clock Clock, reads *int) {
	count := 0
	return func() int64 {
		count++
		if count > n {
			return t0 + 1
		}
		return t0
	}, &count
}

// ========================================
// 构造单元测试
// ========================================

func TestNew_Unit(t *testing.T) {
	tests := []struct {
		name        string
		clusterID   int64
		nodeID      int64
		opts        []Option
		expectError bool
	}{
		{name: "valid ids", clusterID: 1, nodeID: 0},
		{name: "cluster id max", clusterID: 7, nodeID: 7},
		{name: "zero ids", clusterID: 0, nodeID: 0},
		{name: "cluster id too large", clusterID: 8, nodeID: 0, expectError: true},
		{name: "node id too large", clusterID: 0, nodeID: 8, expectError: true},
		{name: "negative cluster id", clusterID: -1, nodeID: 0, expectError: true},
		{name: "negative node id", clusterID: 0, nodeID: -1, expectError: true},
		{
			name:      "initial sequence in range",
			clusterID: 1,
			nodeID:    1,
			opts:      []Option{WithInitialSequence(1023)},
		},
		{
			name:        "initial sequence out of range",
			clusterID:   1,
			nodeID:      1,
			opts:        []Option{WithInitialSequence(1024)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(tt.clusterID, tt.nodeID, tt.opts...)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen == nil {
				t.Fatal("expected generator but got nil")
			}
			if gen.ClusterID() != tt.clusterID || gen.NodeID() != tt.nodeID {
				t.Error("accessors should return constructor arguments")
			}
		})
	}
}

func TestNew_CustomLayoutRange(t *testing.T) {
	layout, err := NewLayout(&LayoutConfig{
		TimestampBits: 41,
		ClusterBits:   5,
		NodeBits:      5,
		SequenceBits:  2,
	})
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}

	// 5 bit 集群位允许 [0, 31]
	if _, err := New(31, 31, WithLayout(layout)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := New(32, 0, WithLayout(layout)); err == nil {
		t.Error("expected error for cluster id 32")
	}
}

// ========================================
// 发号单元测试
// ========================================

func TestNext_Unit(t *testing.T) {
	gen, err := New(1, 0)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	t.Run("generate id", func(t *testing.T) {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id <= 0 {
			t.Error("expected positive id")
		}
		if id >= maxSafeInteger {
			t.Errorf("id %d exceeds 2^53-1", id)
		}
	})

	t.Run("generate unique increasing ids", func(t *testing.T) {
		id1, _ := gen.Next()
		id2, _ := gen.Next()
		if id1 >= id2 {
			t.Errorf("expected increasing ids, got %d then %d", id1, id2)
		}
	})

	t.Run("next string is parseable", func(t *testing.T) {
		idStr, err := gen.NextString()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := strconv.ParseInt(idStr, 10, 64); err != nil {
			t.Errorf("failed to parse id as int64: %v", err)
		}
	})
}

func TestNext_Monotonicity(t *testing.T) {
	gen, err := New(1, 0)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	lastID, _ := gen.Next()
	for i := 0; i < 10000; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("unexpected error at iteration %d: %v", i, err)
		}
		if id <= lastID {
			t.Fatalf("monotonicity violated at iteration %d: %d <= %d", i, id, lastID)
		}
		lastID = id
	}
}

func TestNext_Uniqueness(t *testing.T) {
	gen, err := New(1, 0)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	seen := make(map[int64]bool)
	for i := 0; i < 100000; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("unexpected error at iteration %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated at iteration %d: %d", i, id)
		}
		seen[id] = true
	}
}

// 具体场景：T 毫秒时的首个 ID 是 (T<<16)|(1<<13)，同毫秒第二个 ID 加一
func TestNext_ComposedValue(t *testing.T) {
	const relative = int64(123456)
	gen, err := New(1, 0, WithClock(frozenClock(DefaultEpoch+relative)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	id0, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := relative<<16 | 1<<13
	if id0 != expected {
		t.Errorf("expected id %d, got %d", expected, id0)
	}

	id1, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id0+1 {
		t.Errorf("expected second id in same millisecond to be %d, got %d", id0+1, id1)
	}

	info := gen.Parse(id1)
	if info.Timestamp != DefaultEpoch+relative {
		t.Errorf("expected timestamp %d, got %d", DefaultEpoch+relative, info.Timestamp)
	}
	if info.ClusterID != 1 || info.NodeID != 0 || info.Sequence != 1 {
		t.Errorf("unexpected parsed components: %+v", info)
	}
}

// ========================================
// 时钟回拨
// ========================================

func TestNext_ClockRollback(t *testing.T) {
	base := DefaultEpoch + 5000
	gen, err := New(1, 0, WithClock(scriptedClock(base, base-50, base+1)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	if _, err := gen.Next(); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}

	_, err = gen.Next()
	if err == nil {
		t.Fatal("expected rollback error, got id")
	}
	if !errors.Is(err, ErrClockBackwards) {
		t.Fatalf("expected ErrClockBackwards, got %v", err)
	}
	if !strings.Contains(err.Error(), "drift: 50ms") {
		t.Errorf("expected drift magnitude in error, got %q", err.Error())
	}

	// 回拨错误不保留任何重试状态，时钟恢复后继续发号
	id, err := gen.Next()
	if err != nil {
		t.Fatalf("expected recovery after clock catches up: %v", err)
	}
	if id <= 0 {
		t.Error("expected positive id after recovery")
	}
}

// 时钟落后于 Epoch 时相对时间戳为负，既会与 lastTime 哨兵碰撞，
// 也会组合出负 ID，必须报错而不是发号
func TestNext_ClockBeforeEpoch(t *testing.T) {
	gen, err := New(1, 0, WithClock(frozenClock(DefaultEpoch-1)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	id, err := gen.Next()
	if err == nil {
		t.Fatalf("expected error for clock before epoch, got id %d", id)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if xerrors.GetCode(err) != "clock_before_epoch" {
		t.Errorf("unexpected code: %q", xerrors.GetCode(err))
	}

	// 恰好到达 Epoch 时发号恢复，且 ID 非负
	gen, err = New(1, 0, WithClock(scriptedClock(DefaultEpoch-1, DefaultEpoch)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	if _, err := gen.Next(); err == nil {
		t.Fatal("expected error for clock before epoch")
	}
	id, err = gen.Next()
	if err != nil {
		t.Fatalf("expected recovery at epoch: %v", err)
	}
	if id < 0 {
		t.Errorf("expected non-negative id, got %d", id)
	}
}

// ========================================
// 序列号耗尽
// ========================================

func TestNext_SequenceExhaustion(t *testing.T) {
	layout, err := NewLayout(&LayoutConfig{
		TimestampBits: 37,
		ClusterBits:   3,
		NodeBits:      3,
		SequenceBits:  2, // mask = 3，便于快速耗尽
	})
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}

	base := DefaultEpoch + 1000
	mask := layout.MaxSequence()

	// 前 mask+2 次读数冻结在 base；等待路径的下一次读数返回 base+1
	clock, reads := steppedClock(base, int(mask)+2)
	gen, err := New(1, 0, WithLayout(layout), WithClock(clock))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	// mask+1 个 ID 落在同一毫秒，序列号 0..mask
	firstTimestamp := int64(-1)
	for i := int64(0); i <= mask; i++ {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("unexpected error at call %d: %v", i, err)
		}
		info := gen.Layout().Parse(id)
		if firstTimestamp == -1 {
			firstTimestamp = info.Timestamp
		}
		if info.Timestamp != firstTimestamp {
			t.Fatalf("expected call %d to share the first millisecond", i)
		}
		if info.Sequence != i {
			t.Fatalf("expected sequence %d, got %d", i, info.Sequence)
		}
	}

	// 第 mask+2 次调用触发等待路径，ID 落入下一毫秒
	id, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error on exhaustion call: %v", err)
	}
	info := gen.Layout().Parse(id)
	if info.Timestamp != firstTimestamp+1 {
		t.Errorf("expected timestamp to advance by 1ms, got %d -> %d", firstTimestamp, info.Timestamp)
	}
	if info.Sequence != 0 {
		t.Errorf("expected sequence reset to 0, got %d", info.Sequence)
	}

	// mask+2 次发号读数 + 等待路径恰好一次额外读数
	if *reads != int(mask)+3 {
		t.Errorf("expected wait path to poll the clock exactly once, total reads %d", *reads)
	}
}

// ========================================
// 实例间互不相交
// ========================================

func TestNext_DisjointAcrossInstances(t *testing.T) {
	base := DefaultEpoch + 2000

	pairs := []struct{ cluster, node int64 }{
		{0, 0}, {0, 1}, {1, 0}, {7, 7},
	}

	seen := make(map[int64]string)
	for _, p := range pairs {
		gen, err := New(p.cluster, p.node, WithClock(frozenClock(base)))
		if err != nil {
			t.Fatalf("failed to create generator (%d,%d): %v", p.cluster, p.node, err)
		}
		for i := 0; i < 100; i++ {
			id, err := gen.Next()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			key := strconv.FormatInt(p.cluster, 10) + "/" + strconv.FormatInt(p.node, 10)
			if owner, ok := seen[id]; ok {
				t.Fatalf("id %d generated by both %s and %s", id, owner, key)
			}
			seen[id] = key
		}
	}
}

// ========================================
// 并发
// ========================================

func TestNext_Concurrent(t *testing.T) {
	gen, err := New(1, 0)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	const (
		goroutines = 8
		perWorker  = 2000
	)

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, goroutines*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < goroutines; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := gen.Next()
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				local = append(local, id)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if seen[id] {
					t.Errorf("duplicate id under concurrency: %d", id)
					return
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perWorker {
		t.Errorf("expected %d unique ids, got %d", goroutines*perWorker, len(seen))
	}
}

// ========================================
// 错误码
// ========================================

func TestErrorCodes_Unit(t *testing.T) {
	t.Run("configuration errors carry codes", func(t *testing.T) {
		_, err := New(8, 0)
		if xerrors.GetCode(err) != "cluster_id_out_of_range" {
			t.Errorf("unexpected code: %q", xerrors.GetCode(err))
		}

		_, err = New(0, 8)
		if xerrors.GetCode(err) != "node_id_out_of_range" {
			t.Errorf("unexpected code: %q", xerrors.GetCode(err))
		}
	})

	t.Run("sentinels are defined", func(t *testing.T) {
		for _, err := range []error{
			ErrInvalidInput, ErrLayoutTooWide, ErrClockBackwards,
			ErrTimestampOverflow, ErrUnsafeInteger,
		} {
			if err == nil {
				t.Error("sentinel error should be defined")
			}
		}
	})
}

// ========================================
// 时间戳位宽耗尽
// ========================================

func TestNext_TimestampOverflow(t *testing.T) {
	layout, err := NewLayout(&LayoutConfig{
		TimestampBits: 4, // 相对时间戳上限 16ms，便于触发溢出
		ClusterBits:   3,
		NodeBits:      3,
		SequenceBits:  10,
		Epoch:         DefaultEpoch,
	})
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}

	gen, err := New(1, 0, WithLayout(layout), WithClock(frozenClock(DefaultEpoch+16)))
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	_, err = gen.Next()
	if !errors.Is(err, ErrTimestampOverflow) {
		t.Errorf("expected ErrTimestampOverflow, got %v", err)
	}
}
