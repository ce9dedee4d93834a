package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	AddressLength    = 8
	IdentifierLength = 32
)

// Address 链上账户地址 (8 字节)
type Address [AddressLength]byte

// EmptyAddress 未配置账户时的零值
var EmptyAddress = Address{}

// HexToAddress 解析十六进制地址，允许 0x 前缀，不足 8 字节左侧补零
func HexToAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if raw == "" {
		return a, fmt.Errorf("empty address")
	}
	if len(raw) > AddressLength*2 {
		return a, fmt.Errorf("address %q longer than %d bytes", s, AddressLength)
	}
	b, err := hex.DecodeString(strings.Repeat("0", len(raw)%2) + raw)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(a[AddressLength-len(b):], b)
	return a, nil
}

// MustHexToAddress 仅用于常量/测试
func MustHexToAddress(s string) Address {
	a, err := HexToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) Bytes() []byte { return a[:] }

// Hex 不带 0x 前缀的 16 位十六进制
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// String 带 0x 前缀，JSON-Cadence 与浏览器均使用该格式
func (a Address) String() string { return "0x" + a.Hex() }

func (a Address) IsEmpty() bool { return a == EmptyAddress }

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HexToAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Identifier 区块 / 交易 ID (32 字节)
type Identifier [IdentifierLength]byte

var EmptyID = Identifier{}

func HexToID(s string) (Identifier, error) {
	var id Identifier
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(raw) != IdentifierLength*2 {
		return id, fmt.Errorf("invalid identifier %q: want %d hex chars", s, IdentifierLength*2)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return id, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

func (id Identifier) Bytes() []byte  { return id[:] }
func (id Identifier) Hex() string    { return hex.EncodeToString(id[:]) }
func (id Identifier) String() string { return id.Hex() }
