package kms

import (
	"errors"

	"proposal-core/pkg/crypto_util"
)

// KeyMetadata 包含密钥的元数据，不包含敏感的私钥信息
type KeyMetadata struct {
	KeyID     string                         `json:"key_id"`
	Algorithm crypto_util.SignatureAlgorithm `json:"algorithm"`
	Hash      crypto_util.HashAlgorithm      `json:"hash"`
	PublicKey string                         `json:"public_key"` // 64 字节 X‖Y 的十六进制
	CreatedAt int64                          `json:"created_at"`
	Enabled   bool                           `json:"enabled"`
}

// Signer 一把账户密钥的签名能力
// Sign 对原始消息先做摘要再签名，输出 64 字节 R‖S
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() []byte
	SignatureAlgorithm() crypto_util.SignatureAlgorithm
	HashAlgorithm() crypto_util.HashAlgorithm
}

// KeyManager 定义了密钥管理服务的核心行为。
// 这是一个抽象接口，允许后续替换为 HSM 或云端 KMS。
type KeyManager interface {
	// CreateKey 创建一个新的密钥，并返回其 ID。私钥永远不会离开 KMS。
	CreateKey(algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm) (string, error)

	// ImportKey 导入已有的 32 字节私钥
	ImportKey(algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm, raw []byte) (string, error)

	GetPublicKey(keyID string) ([]byte, error)

	Sign(keyID string, message []byte) ([]byte, error)

	Verify(keyID string, message []byte, signature []byte) error

	// Signer 返回绑定到 keyID 的签名器
	Signer(keyID string) (Signer, error)

	DisableKey(keyID string) error
}

var (
	ErrKeyNotFound      = errors.New("密钥未找到")
	ErrKeyDisabled      = errors.New("密钥已禁用")
	ErrUnsupportedOp    = errors.New("该密钥类型不支持此操作")
	ErrInvalidSignature = errors.New("签名无效")
)
