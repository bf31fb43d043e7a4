// Package gormid 将 snowid 生成器接入 GORM，在插入前为零值整型主键
// 填充雪花 ID，等价于把生成器用作主键列的默认值。
//
// 模型不需要任何额外标签，只要主键是整型且关闭了自增：
//
//	type Order struct {
//	    ID   int64 `gorm:"primaryKey;autoIncrement:false"`
//	    Name string
//	}
//
//	gen, _ := snowid.New(1, 0)
//	plugin, _ := gormid.New(gen)
//	db.Use(plugin)
//
//	order := Order{Name: "first"}
//	db.Create(&order) // order.ID 已填充雪花 ID
//
// 显式赋值的主键保持不变；生成器返回错误时中止本次插入。
package gormid

import (
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/ceyewan/snowid"
	"github.com/ceyewan/snowid/clog"
	"github.com/ceyewan/snowid/xerrors"
)

// callbackName 注册到 GORM create 回调链的名称
const callbackName = "gormid:assign_id"

// ErrGeneratorNil 生成器为空
var ErrGeneratorNil = xerrors.New("gormid: generator is nil")

// Plugin GORM 插件，实现 gorm.Plugin 接口
type Plugin struct {
	gen    *snowid.Generator
	logger clog.Logger
}

// Option 插件初始化选项
type Option func(*Plugin)

// WithLogger 设置 Logger，默认静默
func WithLogger(logger clog.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger.With(clog.String("component", "gormid"))
		}
	}
}

// New 创建插件实例
//
// 使用示例:
//
//	gen, _ := snowid.New(1, 0)
//	plugin, _ := gormid.New(gen, gormid.WithLogger(logger))
//	db.Use(plugin)
func New(gen *snowid.Generator, opts ...Option) (*Plugin, error) {
	if gen == nil {
		return nil, ErrGeneratorNil
	}

	p := &Plugin{
		gen:    gen,
		logger: clog.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name 返回插件名称
func (p *Plugin) Name() string {
	return "gormid"
}

// Initialize 在 gorm:create 之前注册主键填充回调
func (p *Plugin) Initialize(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register(callbackName, p.assignID)
}

// assignID 为本次插入涉及的所有行填充零值主键
func (p *Plugin) assignID(tx *gorm.DB) {
	if tx.Error != nil || tx.Statement.Schema == nil {
		return
	}

	field := tx.Statement.Schema.PrioritizedPrimaryField
	if field == nil || field.AutoIncrement {
		return
	}
	switch field.DataType {
	case schema.Int, schema.Uint:
	default:
		return
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			p.setIfZero(tx, field, reflect.Indirect(tx.Statement.ReflectValue.Index(i)))
		}
	case reflect.Struct:
		p.setIfZero(tx, field, tx.Statement.ReflectValue)
	}
}

// setIfZero 仅当主键为零值时填充，显式赋值的主键保持不变
func (p *Plugin) setIfZero(tx *gorm.DB, field *schema.Field, rv reflect.Value) {
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return
	}
	if _, isZero := field.ValueOf(tx.Statement.Context, rv); !isZero {
		return
	}

	id, err := p.gen.Next()
	if err != nil {
		p.logger.Error("failed to generate primary key", clog.Error(err))
		tx.AddError(xerrors.Wrap(err, "gormid: assign primary key"))
		return
	}

	if err := field.Set(tx.Statement.Context, rv, id); err != nil {
		tx.AddError(xerrors.Wrapf(err, "gormid: set primary key %d", id))
	}
}
