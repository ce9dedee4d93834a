package cadence

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// UFix64Scale 链上定点数小数位
const UFix64Scale = 8

// UFix64ToDecimal raw / 1e8
func UFix64ToDecimal(raw UFix64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(raw)), -UFix64Scale)
}

// DecimalToUFix64 floor(d * 1e8)
// 超过 8 位的小数被截断，调用方需提前取整；负数与溢出返回错误
func DecimalToUFix64(d decimal.Decimal) (UFix64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("UFix64 cannot hold negative value %s", d.String())
	}
	scaled := d.Shift(UFix64Scale).Floor().BigInt()
	if !scaled.IsUint64() {
		return 0, fmt.Errorf("value %s overflows UFix64", d.String())
	}
	return UFix64(scaled.Uint64()), nil
}

// ParseUFix64 解析 "123.45600000" 形式的字符串
func ParseUFix64(s string) (UFix64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid UFix64 %q: %w", s, err)
	}
	if d.Exponent() < -UFix64Scale && !d.Equal(d.Truncate(UFix64Scale)) {
		return 0, fmt.Errorf("invalid UFix64 %q: more than %d fractional digits", s, UFix64Scale)
	}
	return DecimalToUFix64(d)
}

// String 固定 8 位小数，JSON-Cadence 要求的格式
func (f UFix64) String() string {
	return UFix64ToDecimal(f).StringFixed(UFix64Scale)
}
