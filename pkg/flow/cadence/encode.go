package cadence

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/types"
)

type jsonValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type jsonField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type jsonComposite struct {
	ID     string      `json:"id"`
	Fields []jsonField `json:"fields"`
}

type jsonKeyValue struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Encode 把 Value 编码为 JSON-Cadence
func Encode(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot encode nil value")
	}

	var payload any
	switch x := v.(type) {
	case Void:
		return json.Marshal(jsonValue{Type: string(KindVoid)})
	case String:
		payload = string(x)
	case Bool:
		payload = bool(x)
	case UInt8:
		payload = strconv.FormatUint(uint64(x), 10)
	case UInt64:
		payload = strconv.FormatUint(uint64(x), 10)
	case Int:
		payload = strconv.FormatInt(int64(x), 10)
	case UFix64:
		payload = x.String()
	case Fix64:
		payload = x.Decimal().StringFixed(UFix64Scale)
	case Number:
		payload = x.Value.String()
	case Address:
		payload = types.Address(x).String()
	case Optional:
		if x.Value == nil {
			return json.Marshal(jsonValue{Type: string(KindOptional), Value: json.RawMessage("null")})
		}
		inner, err := Encode(x.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(jsonValue{Type: string(KindOptional), Value: inner})
	case Array:
		items := make([]json.RawMessage, 0, len(x))
		for _, item := range x {
			b, err := Encode(item)
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		payload = items
	case Dictionary:
		pairs := make([]jsonKeyValue, 0, len(x))
		for _, kv := range x {
			k, err := Encode(kv.Key)
			if err != nil {
				return nil, err
			}
			val, err := Encode(kv.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, jsonKeyValue{Key: k, Value: val})
		}
		payload = pairs
	case Struct:
		fields := make([]jsonField, 0, len(x.Fields))
		for _, f := range x.Fields {
			b, err := Encode(f.Value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields = append(fields, jsonField{Name: f.Name, Value: b})
		}
		payload = jsonComposite{ID: x.TypeID, Fields: fields}
	default:
		return nil, fmt.Errorf("unsupported cadence value %T", v)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Type: string(v.Kind()), Value: raw})
}

// EncodeArgument 按链上类型编码一个 Go 值作为交易/脚本参数
// 支持 String / UInt64 / UFix64 / Address，错误统一归类为 BuildFailure
func EncodeArgument(value any, kind Kind) ([]byte, error) {
	v, err := toValue(value, kind)
	if err != nil {
		return nil, errno.ErrBuildFailure.WithDetail(err.Error())
	}
	b, err := Encode(v)
	if err != nil {
		return nil, errno.ErrBuildFailure.WithDetail(err.Error())
	}
	return b, nil
}

func toValue(value any, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		if s, ok := value.(string); ok {
			return String(s), nil
		}
	case KindUInt64:
		switch n := value.(type) {
		case uint64:
			return UInt64(n), nil
		case uint32:
			return UInt64(n), nil
		case int:
			if n >= 0 {
				return UInt64(n), nil
			}
			return nil, fmt.Errorf("UInt64 argument is negative: %d", n)
		case int64:
			if n >= 0 {
				return UInt64(n), nil
			}
			return nil, fmt.Errorf("UInt64 argument is negative: %d", n)
		}
	case KindUFix64:
		switch d := value.(type) {
		case decimal.Decimal:
			return DecimalToUFix64(d)
		case UFix64:
			return d, nil
		case string:
			return ParseUFix64(d)
		}
	case KindAddress:
		switch a := value.(type) {
		case types.Address:
			return Address(a), nil
		case string:
			parsed, err := types.HexToAddress(a)
			if err != nil {
				return nil, err
			}
			return Address(parsed), nil
		}
	default:
		return nil, fmt.Errorf("unsupported argument type %s", kind)
	}
	return nil, fmt.Errorf("cannot encode %T as %s", value, kind)
}
