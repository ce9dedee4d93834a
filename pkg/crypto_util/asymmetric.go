package crypto_util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"proposal-core/pkg/safe_random"
)

// SignatureAlgorithm 账户密钥的签名算法，取值与节点返回的字符串一致
type SignatureAlgorithm string

const (
	ECDSA_P256      SignatureAlgorithm = "ECDSA_P256"
	ECDSA_secp256k1 SignatureAlgorithm = "ECDSA_secp256k1"
)

// ParseSignatureAlgorithm 大小写不敏感
func ParseSignatureAlgorithm(s string) (SignatureAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ECDSA_P256", "P256", "":
		return ECDSA_P256, nil
	case "ECDSA_SECP256K1", "SECP256K1":
		return ECDSA_secp256k1, nil
	}
	return "", fmt.Errorf("不支持的签名算法: %s", s)
}

const (
	// 私钥标量长度
	PrivateKeyLength = 32
	// 公钥: X ‖ Y，不带 0x04 前缀
	PublicKeyLength = 64
	// 签名: R ‖ S
	SignatureLength = 64
)

var ErrInvalidPrivateKey = errors.New("私钥格式无效")

// ------------------------------------------------------------------------------------------------
// ECDSA P-256
// ------------------------------------------------------------------------------------------------

// GenerateP256Key 生成新的 P-256 私钥
func GenerateP256Key() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), safe_random.Reader)
}

// ParseP256PrivateKey 从 32 字节标量恢复 P-256 私钥
func ParseP256PrivateKey(raw []byte) (*ecdsa.PrivateKey, error) {
	if len(raw) != PrivateKeyLength {
		return nil, ErrInvalidPrivateKey
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, ErrInvalidPrivateKey
	}
	priv := &ecdsa.PrivateKey{D: d}
	priv.PublicKey.Curve = curve
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(raw)
	return priv, nil
}

// P256Sign 对摘要签名，返回定长 R ‖ S
func P256Sign(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(safe_random.Reader, priv, digest)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// P256Verify 校验 R ‖ S 签名
func P256Verify(pub *ecdsa.PublicKey, digest, sig []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pub, digest, r, s)
}

// P256PublicKeyBytes X ‖ Y，各 32 字节
func P256PublicKeyBytes(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, PublicKeyLength)
	pub.X.FillBytes(out[:32])
	pub.Y.FillBytes(out[32:])
	return out
}

// ParseP256PublicKey 解析 64 字节公钥
func ParseP256PublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != PublicKeyLength {
		return nil, fmt.Errorf("公钥长度应为 %d 字节", PublicKeyLength)
	}
	curve := elliptic.P256()
	x := new(big.Int).SetBytes(raw[:32])
	y := new(big.Int).SetBytes(raw[32:])
	if !curve.IsOnCurve(x, y) {
		return nil, errors.New("公钥不在 P-256 曲线上")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// ------------------------------------------------------------------------------------------------
// ECDSA secp256k1 (btcec)
// ------------------------------------------------------------------------------------------------

// GenerateSecp256k1Key 生成新的 secp256k1 私钥
func GenerateSecp256k1Key() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ParseSecp256k1PrivateKey 从 32 字节标量恢复 secp256k1 私钥
func ParseSecp256k1PrivateKey(raw []byte) (*btcec.PrivateKey, error) {
	if len(raw) != PrivateKeyLength {
		return nil, ErrInvalidPrivateKey
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv, nil
}

// Secp256k1Sign 对摘要签名，去掉紧凑签名的恢复位后得到 R ‖ S
func Secp256k1Sign(priv *btcec.PrivateKey, digest []byte) ([]byte, error) {
	compact := btcecdsa.SignCompact(priv, digest, false)
	if len(compact) != SignatureLength+1 {
		return nil, fmt.Errorf("紧凑签名长度异常: %d", len(compact))
	}
	return compact[1:], nil
}

// Secp256k1Verify 校验 R ‖ S 签名
func Secp256k1Verify(pub *btcec.PublicKey, digest, sig []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}
	var r, s btcec.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
		return false
	}
	return btcecdsa.NewSignature(&r, &s).Verify(digest, pub)
}

// Secp256k1PublicKeyBytes 去掉 0x04 前缀的非压缩公钥
func Secp256k1PublicKeyBytes(pub *btcec.PublicKey) []byte {
	return pub.SerializeUncompressed()[1:]
}

// ParseSecp256k1PublicKey 解析 64 字节公钥
func ParseSecp256k1PublicKey(raw []byte) (*btcec.PublicKey, error) {
	if len(raw) != PublicKeyLength {
		return nil, fmt.Errorf("公钥长度应为 %d 字节", PublicKeyLength)
	}
	return btcec.ParsePubKey(append([]byte{0x04}, raw...))
}

// ------------------------------------------------------------------------------------------------
// 辅助函数
// ------------------------------------------------------------------------------------------------

// DecodeKeyHex 解析十六进制密钥，允许 0x 前缀
func DecodeKeyHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("十六进制解析失败: %w", err)
	}
	return b, nil
}

// VerifySignature 按算法校验 64 字节公钥下的签名
func VerifySignature(algo SignatureAlgorithm, publicKey, digest, sig []byte) bool {
	switch algo {
	case ECDSA_P256:
		pub, err := ParseP256PublicKey(publicKey)
		if err != nil {
			return false
		}
		return P256Verify(pub, digest, sig)
	case ECDSA_secp256k1:
		pub, err := ParseSecp256k1PublicKey(publicKey)
		if err != nil {
			return false
		}
		return Secp256k1Verify(pub, digest, sig)
	}
	return false
}
