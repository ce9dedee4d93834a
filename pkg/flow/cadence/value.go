// Package cadence 实现 JSON-Cadence 数据交换格式的编解码
// 脚本参数与脚本返回值都使用该格式在 REST 接口上传输
package cadence

import (
	"github.com/shopspring/decimal"

	"proposal-core/pkg/flow/types"
)

// Kind JSON-Cadence 的 "type" 字段
type Kind string

const (
	KindVoid       Kind = "Void"
	KindString     Kind = "String"
	KindBool       Kind = "Bool"
	KindUInt8      Kind = "UInt8"
	KindUInt64     Kind = "UInt64"
	KindInt        Kind = "Int"
	KindUFix64     Kind = "UFix64"
	KindFix64      Kind = "Fix64"
	KindAddress    Kind = "Address"
	KindOptional   Kind = "Optional"
	KindArray      Kind = "Array"
	KindDictionary Kind = "Dictionary"
	KindStruct     Kind = "Struct"
	KindResource   Kind = "Resource"
	KindEvent      Kind = "Event"
	KindEnum       Kind = "Enum"
)

// Value 解码后的链上值 (tagged union)
type Value interface {
	Kind() Kind
}

type Void struct{}

type String string

type Bool bool

type UInt8 uint8

// UInt64 也用于承载 UInt16/UInt32/Word* 等无符号整数
type UInt64 uint64

// Int 承载有符号整数 (Int/Int8..Int64)
type Int int64

// UFix64 链上定点数的原始整数表示 (value * 1e8)
type UFix64 uint64

// Fix64 有符号定点数的原始整数表示 (value * 1e8)
type Fix64 int64

// Number 宽整数与高精度定点数 (Int128/UInt128/Int256/UInt256/Word128/Word256/UFix128/Fix128)
// Type 保留原始类型名
type Number struct {
	Type  Kind
	Value decimal.Decimal
}

type Address types.Address

// Optional Value 为 nil 表示 none
type Optional struct {
	Value Value
}

type Array []Value

type KeyValuePair struct {
	Key   Value
	Value Value
}

type Dictionary []KeyValuePair

type Field struct {
	Name  string
	Value Value
}

// Struct 复合类型: Struct / Resource / Event / Enum 共用同一结构
// TypeID 形如 "A.0x01.CommunityVoting.Proposal"
type Struct struct {
	Type   Kind
	TypeID string
	Fields []Field
}

func (Void) Kind() Kind       { return KindVoid }
func (String) Kind() Kind     { return KindString }
func (Bool) Kind() Kind       { return KindBool }
func (UInt8) Kind() Kind      { return KindUInt8 }
func (UInt64) Kind() Kind     { return KindUInt64 }
func (Int) Kind() Kind        { return KindInt }
func (UFix64) Kind() Kind     { return KindUFix64 }
func (Fix64) Kind() Kind      { return KindFix64 }
func (n Number) Kind() Kind   { return n.Type }
func (Address) Kind() Kind    { return KindAddress }
func (Optional) Kind() Kind   { return KindOptional }
func (Array) Kind() Kind      { return KindArray }
func (Dictionary) Kind() Kind { return KindDictionary }

func (s Struct) Kind() Kind {
	if s.Type == "" {
		return KindStruct
	}
	return s.Type
}

// Decimal 转换为十进制数
func (f UFix64) Decimal() decimal.Decimal {
	return UFix64ToDecimal(f)
}

func (f Fix64) Decimal() decimal.Decimal {
	return decimal.New(int64(f), -UFix64Scale)
}

// Unwrap 去掉 Optional 包装；none 返回 nil
func Unwrap(v Value) Value {
	for {
		opt, ok := v.(Optional)
		if !ok {
			return v
		}
		v = opt.Value
	}
}

// NewStruct 构造 Struct 值，主要用于测试与模拟节点
func NewStruct(typeID string, fields ...Field) Struct {
	return Struct{Type: KindStruct, TypeID: typeID, Fields: fields}
}

// NewEnum 构造 Enum 值 (rawValue: UInt8)
func NewEnum(typeID string, raw uint8) Struct {
	return Struct{Type: KindEnum, TypeID: typeID, Fields: []Field{{Name: "rawValue", Value: UInt8(raw)}}}
}
