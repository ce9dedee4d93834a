package types

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// 1 FLOW = 1e8 最小单位
const BalanceDecimals = 8

// AccountKey 账户下的一把公钥及其序列号
type AccountKey struct {
	Index            uint32 `json:"index"`
	PublicKey        string `json:"public_key"`
	SigningAlgorithm string `json:"signing_algorithm"`
	HashingAlgorithm string `json:"hashing_algorithm"`
	SequenceNumber   uint64 `json:"sequence_number"`
	Weight           uint64 `json:"weight"`
	Revoked          bool   `json:"revoked"`
}

// Account 从链上读取的账户快照，每次构建交易前重新拉取
type Account struct {
	Address Address      `json:"address"`
	Balance uint64       `json:"balance"` // 最小单位
	Keys    []AccountKey `json:"keys"`
}

// BalanceDecimal 余额 (FLOW)
func (a Account) BalanceDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.Balance), -BalanceDecimals)
}

// Key 按 index 查找账户密钥
func (a Account) Key(index uint32) (AccountKey, bool) {
	for _, k := range a.Keys {
		if k.Index == index {
			return k, true
		}
	}
	return AccountKey{}, false
}

// BlockRef 交易引用的区块
type BlockRef struct {
	ID        Identifier `json:"id"`
	Height    uint64     `json:"height"`
	Timestamp time.Time  `json:"timestamp"`
}
