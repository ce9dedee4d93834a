package kms

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/safe_random"
)

// keyEntry 是内部存储结构，包含私钥（敏感数据）和元数据
type keyEntry struct {
	Metadata  KeyMetadata
	p256      *ecdsa.PrivateKey
	secp256k1 *btcec.PrivateKey
	publicKey []byte
}

// LocalKMS 是 KeyManager 接口的本地内存实现。
// 私钥存储在内存中，不直接暴露给外部。
type LocalKMS struct {
	mu   sync.RWMutex
	keys map[string]*keyEntry
}

func NewLocalKMS() *LocalKMS {
	return &LocalKMS{
		keys: make(map[string]*keyEntry),
	}
}

// CreateKey 生成新密钥对
func (kms *LocalKMS) CreateKey(algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm) (string, error) {
	entry := &keyEntry{}
	switch algo {
	case crypto_util.ECDSA_P256:
		priv, err := crypto_util.GenerateP256Key()
		if err != nil {
			return "", err
		}
		entry.p256 = priv
		entry.publicKey = crypto_util.P256PublicKeyBytes(&priv.PublicKey)
	case crypto_util.ECDSA_secp256k1:
		priv, err := crypto_util.GenerateSecp256k1Key()
		if err != nil {
			return "", err
		}
		entry.secp256k1 = priv
		entry.publicKey = crypto_util.Secp256k1PublicKeyBytes(priv.PubKey())
	default:
		return "", fmt.Errorf("不支持的密钥类型: %s", algo)
	}
	return kms.store(entry, algo, hash)
}

// ImportKey 导入已有私钥
func (kms *LocalKMS) ImportKey(algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm, raw []byte) (string, error) {
	entry := &keyEntry{}
	switch algo {
	case crypto_util.ECDSA_P256:
		priv, err := crypto_util.ParseP256PrivateKey(raw)
		if err != nil {
			return "", err
		}
		entry.p256 = priv
		entry.publicKey = crypto_util.P256PublicKeyBytes(&priv.PublicKey)
	case crypto_util.ECDSA_secp256k1:
		priv, err := crypto_util.ParseSecp256k1PrivateKey(raw)
		if err != nil {
			return "", err
		}
		entry.secp256k1 = priv
		entry.publicKey = crypto_util.Secp256k1PublicKeyBytes(priv.PubKey())
	default:
		return "", fmt.Errorf("不支持的密钥类型: %s", algo)
	}
	return kms.store(entry, algo, hash)
}

func (kms *LocalKMS) store(entry *keyEntry, algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm) (string, error) {
	if _, err := crypto_util.Digest(hash, nil); err != nil {
		return "", err
	}

	keyID, err := safe_random.GenerateRandomHexString(16)
	if err != nil {
		return "", fmt.Errorf("生成 KeyID 失败: %w", err)
	}

	entry.Metadata = KeyMetadata{
		KeyID:     keyID,
		Algorithm: algo,
		Hash:      hash,
		PublicKey: hex.EncodeToString(entry.publicKey),
		CreatedAt: time.Now().Unix(),
		Enabled:   true,
	}

	kms.mu.Lock()
	kms.keys[keyID] = entry
	kms.mu.Unlock()
	return keyID, nil
}

func (kms *LocalKMS) lookup(keyID string) (*keyEntry, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return nil, ErrKeyNotFound
	}
	if !entry.Metadata.Enabled {
		return nil, ErrKeyDisabled
	}
	return entry, nil
}

// Metadata 返回密钥元数据
func (kms *LocalKMS) Metadata(keyID string) (KeyMetadata, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return KeyMetadata{}, err
	}
	return entry.Metadata, nil
}

func (kms *LocalKMS) GetPublicKey(keyID string) ([]byte, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), entry.publicKey...), nil
}

// Sign 先按密钥的哈希算法计算摘要，再输出 R‖S
func (kms *LocalKMS) Sign(keyID string, message []byte) ([]byte, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return nil, err
	}

	digest, err := crypto_util.Digest(entry.Metadata.Hash, message)
	if err != nil {
		return nil, err
	}

	switch {
	case entry.p256 != nil:
		return crypto_util.P256Sign(entry.p256, digest)
	case entry.secp256k1 != nil:
		return crypto_util.Secp256k1Sign(entry.secp256k1, digest)
	default:
		return nil, ErrUnsupportedOp
	}
}

func (kms *LocalKMS) Verify(keyID string, message []byte, signature []byte) error {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return err
	}

	digest, err := crypto_util.Digest(entry.Metadata.Hash, message)
	if err != nil {
		return err
	}
	if !crypto_util.VerifySignature(entry.Metadata.Algorithm, entry.publicKey, digest, signature) {
		return ErrInvalidSignature
	}
	return nil
}

func (kms *LocalKMS) Signer(keyID string) (Signer, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return nil, err
	}
	return &keySigner{kms: kms, meta: entry.Metadata, publicKey: entry.publicKey}, nil
}

func (kms *LocalKMS) DisableKey(keyID string) error {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return ErrKeyNotFound
	}
	entry.Metadata.Enabled = false
	return nil
}

// keySigner 把 KeyManager 中的一把密钥包装成 Signer
type keySigner struct {
	kms       KeyManager
	meta      KeyMetadata
	publicKey []byte
}

func (s *keySigner) Sign(message []byte) ([]byte, error) {
	return s.kms.Sign(s.meta.KeyID, message)
}

func (s *keySigner) PublicKey() []byte {
	return append([]byte(nil), s.publicKey...)
}

func (s *keySigner) SignatureAlgorithm() crypto_util.SignatureAlgorithm { return s.meta.Algorithm }

func (s *keySigner) HashAlgorithm() crypto_util.HashAlgorithm { return s.meta.Hash }
