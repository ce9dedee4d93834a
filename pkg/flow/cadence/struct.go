package cadence

import (
	"github.com/shopspring/decimal"

	"proposal-core/pkg/flow/types"
)

// 以下读取方法都是全函数: 字段缺失、为 none 或类型不符时返回零值和 ok=false，不会 panic
// 旧版本合约返回的结构体可能缺少字段，调用方按零值处理即可

// Field 按名称查找字段，Optional 被自动展开
func (s Struct) Field(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			v := Unwrap(f.Value)
			return v, v != nil
		}
	}
	return nil, false
}

func (s Struct) StringField(name string) (string, bool) {
	v, _ := s.Field(name)
	switch x := v.(type) {
	case String:
		return string(x), true
	case Address:
		return types.Address(x).String(), true
	}
	return "", false
}

// UInt64Field 读取无符号整数；字段被类型标识字符串占用时返回 (0, false)
func (s Struct) UInt64Field(name string) (uint64, bool) {
	v, _ := s.Field(name)
	switch x := v.(type) {
	case UInt64:
		return uint64(x), true
	case UInt8:
		return uint64(x), true
	case Int:
		if x >= 0 {
			return uint64(x), true
		}
	case Number:
		if n := x.Value.BigInt(); x.Value.IsInteger() && n.IsUint64() {
			return n.Uint64(), true
		}
	}
	return 0, false
}

func (s Struct) UFix64Field(name string) (decimal.Decimal, bool) {
	v, _ := s.Field(name)
	if x, ok := v.(UFix64); ok {
		return x.Decimal(), true
	}
	return decimal.Zero, false
}

func (s Struct) AddressField(name string) (types.Address, bool) {
	v, _ := s.Field(name)
	if x, ok := v.(Address); ok {
		return types.Address(x), true
	}
	return types.EmptyAddress, false
}

func (s Struct) StructField(name string) (Struct, bool) {
	v, _ := s.Field(name)
	if x, ok := v.(Struct); ok {
		return x, true
	}
	return Struct{}, false
}

// EnumRawField 读取枚举的 rawValue，也兼容直接存放 UInt8 的旧格式
func (s Struct) EnumRawField(name string) (uint8, bool) {
	v, _ := s.Field(name)
	switch x := v.(type) {
	case Struct:
		if raw, ok := x.UInt64Field("rawValue"); ok && raw <= 0xff {
			return uint8(raw), true
		}
	case UInt8:
		return uint8(x), true
	case UInt64:
		if x <= 0xff {
			return uint8(x), true
		}
	}
	return 0, false
}

// AsStruct 展开 Optional 后取得结构体，none 或非结构体返回 ok=false
func AsStruct(v Value) (Struct, bool) {
	s, ok := Unwrap(v).(Struct)
	return s, ok
}

// AsUInt64Slice 把 [UInt64] 转换为 Go 切片，非整数元素被跳过
func AsUInt64Slice(v Value) ([]uint64, bool) {
	arr, ok := Unwrap(v).(Array)
	if !ok {
		return []uint64{}, false
	}
	out := make([]uint64, 0, len(arr))
	for _, item := range arr {
		switch x := Unwrap(item).(type) {
		case UInt64:
			out = append(out, uint64(x))
		case UInt8:
			out = append(out, uint64(x))
		}
	}
	return out, true
}

// AsUInt64 读取单个无符号整数
func AsUInt64(v Value) (uint64, bool) {
	switch x := Unwrap(v).(type) {
	case UInt64:
		return uint64(x), true
	case UInt8:
		return uint64(x), true
	}
	return 0, false
}
