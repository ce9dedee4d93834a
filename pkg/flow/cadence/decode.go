package cadence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/types"
	"proposal-core/pkg/logger"
)

// wideNumberKinds 解码为 Number
var wideNumberKinds = map[Kind]bool{
	"Int128": true, "Int256": true, "UInt128": true, "UInt256": true,
	"Word128": true, "Word256": true, "UFix128": true, "Fix128": true,
}

// Decode 解析 JSON-Cadence，任何结构错误都归类为 DecodeFailure
func Decode(raw []byte) (Value, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, errno.ErrDecodeFailure.WithDetail(err.Error())
	}
	return v, nil
}

func decode(raw []byte) (Value, error) {
	var jv jsonValue
	if err := json.Unmarshal(raw, &jv); err != nil {
		return nil, err
	}

	switch Kind(jv.Type) {
	case KindVoid:
		return Void{}, nil
	case KindString, "Character", "Path", "Type":
		var s string
		if err := unmarshalScalar(jv.Value, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case KindUInt8:
		n, err := parseUint(jv.Value, 8)
		if err != nil {
			return nil, err
		}
		return UInt8(n), nil
	case KindUInt64, "UInt", "UInt16", "UInt32", "Word8", "Word16", "Word32", "Word64":
		n, err := parseUint(jv.Value, 64)
		if err != nil {
			return nil, err
		}
		return UInt64(n), nil
	case KindInt, "Int8", "Int16", "Int32", "Int64":
		var s string
		if err := unmarshalScalar(jv.Value, &s); err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case KindUFix64:
		var s string
		if err := unmarshalScalar(jv.Value, &s); err != nil {
			return nil, err
		}
		return ParseUFix64(s)
	case KindFix64:
		d, err := parseDecimal(jv.Value)
		if err != nil {
			return nil, err
		}
		scaled := d.Shift(UFix64Scale)
		if !scaled.Equal(scaled.Truncate(0)) || !scaled.BigInt().IsInt64() {
			return nil, fmt.Errorf("invalid Fix64 %s", d.String())
		}
		return Fix64(scaled.IntPart()), nil
	case KindAddress:
		var s string
		if err := unmarshalScalar(jv.Value, &s); err != nil {
			return nil, err
		}
		a, err := types.HexToAddress(s)
		if err != nil {
			return nil, err
		}
		return Address(a), nil
	case KindOptional:
		if len(jv.Value) == 0 || bytes.Equal(bytes.TrimSpace(jv.Value), []byte("null")) {
			return Optional{}, nil
		}
		inner, err := decode(jv.Value)
		if err != nil {
			return nil, err
		}
		return Optional{Value: inner}, nil
	case KindArray:
		var items []json.RawMessage
		if err := json.Unmarshal(jv.Value, &items); err != nil {
			return nil, err
		}
		arr := make(Array, 0, len(items))
		for i, item := range items {
			v, err := decode(item)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr = append(arr, v)
		}
		return arr, nil
	case KindDictionary:
		var pairs []jsonKeyValue
		if err := json.Unmarshal(jv.Value, &pairs); err != nil {
			return nil, err
		}
		dict := make(Dictionary, 0, len(pairs))
		for _, p := range pairs {
			k, err := decode(p.Key)
			if err != nil {
				return nil, err
			}
			v, err := decode(p.Value)
			if err != nil {
				return nil, err
			}
			dict = append(dict, KeyValuePair{Key: k, Value: v})
		}
		return dict, nil
	case KindStruct, KindResource, KindEvent, KindEnum, "Contract":
		var c jsonComposite
		if err := json.Unmarshal(jv.Value, &c); err != nil {
			return nil, err
		}
		s := Struct{Type: Kind(jv.Type), TypeID: c.ID, Fields: make([]Field, 0, len(c.Fields))}
		for _, f := range c.Fields {
			v, err := decode(f.Value)
			if err != nil {
				// 单个字段解析失败按缺失处理，访问器返回零值
				logger.Warn("[Cadence] 字段解析失败，已忽略",
					zap.String("type_id", c.ID), zap.String("field", f.Name), zap.Error(err))
				continue
			}
			s.Fields = append(s.Fields, Field{Name: f.Name, Value: v})
		}
		return s, nil
	default:
		if wideNumberKinds[Kind(jv.Type)] {
			d, err := parseDecimal(jv.Value)
			if err != nil {
				return nil, err
			}
			return Number{Type: Kind(jv.Type), Value: d}, nil
		}
		return nil, fmt.Errorf("unsupported cadence type %q", jv.Type)
	}
}

func unmarshalScalar(raw json.RawMessage, target *string) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing value")
	}
	return json.Unmarshal(raw, target)
}

func parseUint(raw json.RawMessage, bits int) (uint64, error) {
	var s string
	if err := unmarshalScalar(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, bits)
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := unmarshalScalar(raw, &s); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}
