package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// HashAlgorithm 账户密钥配套的摘要算法
type HashAlgorithm string

const (
	SHA3_256 HashAlgorithm = "SHA3_256"
	SHA2_256 HashAlgorithm = "SHA2_256"
)

func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SHA3_256", "SHA3-256", "":
		return SHA3_256, nil
	case "SHA2_256", "SHA-256", "SHA256":
		return SHA2_256, nil
	}
	return "", fmt.Errorf("不支持的哈希算法: %s", s)
}

// Digest 按算法计算 32 字节摘要
func Digest(algo HashAlgorithm, data []byte) ([]byte, error) {
	switch algo {
	case SHA3_256:
		h := sha3.Sum256(data)
		return h[:], nil
	case SHA2_256:
		h := sha256.Sum256(data)
		return h[:], nil
	}
	return nil, fmt.Errorf("不支持的哈希算法: %s", algo)
}

// CalculateSHA3 SHA3-256 十六进制，交易 ID 使用
func CalculateSHA3(data []byte) string {
	h := sha3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// CalculateSHA256 计算输入的 SHA256 哈希值。
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CalculateBlake3 计算输入的 Blake3 哈希值。
// 用作提案草稿指纹
func CalculateBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
