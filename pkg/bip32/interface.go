package bip32

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// DefaultDerivationPath BIP-44 路径，coin type 539 为 Flow 注册值
const DefaultDerivationPath = "m/44'/539'/0'/0/0"

// ExtendedKey 包装了 BIP-32 扩展密钥
type ExtendedKey interface {
	// String 返回 Base58 编码的密钥字符串 (xprv... / xpub...)
	String() string

	ECPubKey() (*btcec.PublicKey, error)
	// ECPrivKey 用于获取底层的 EC 私钥 (用于签名)
	ECPrivKey() (*btcec.PrivateKey, error)
	Derive(index uint32) (ExtendedKey, error)
	IsPrivate() bool
	// AccountPublicKey 返回链上账户密钥格式的公钥 (64 字节 X‖Y 的十六进制)
	AccountPublicKey() (string, error)
	Neuter() (ExtendedKey, error)
}

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	MasterKey() ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/539'/0'/0/0") 派生密钥
	DerivePath(path string) (ExtendedKey, error)
}

var (
	ErrInvalidSeed = errors.New("无效的种子")
	ErrInvalidPath = errors.New("无效的派生路径")
)
