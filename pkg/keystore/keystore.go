// Package keystore 用密码保护账户私钥，文件格式参照 Keystore V3
package keystore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/safe_random"
)

// EncryptedKeyJSON 加密后的账户私钥
type EncryptedKeyJSON struct {
	Address   string     `json:"address,omitempty"`   // 链上账户地址，仅作标注
	Algorithm string     `json:"algorithm,omitempty"` // ECDSA_P256 / ECDSA_secp256k1
	Crypto    CryptoJSON `json:"crypto"`
	Id        string     `json:"id"`      // UUID
	Version   int        `json:"version"` // 3
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

const (
	StandardScryptN = 1 << 18
	StandardScryptP = 1
	// LightScryptN 用于 CLI 与测试，约 4MB 内存
	LightScryptN = 1 << 12
	LightScryptP = 6

	scryptR     = 8
	scryptDKLen = 32
	version     = 3
)

var ErrDecrypt = errors.New("密码错误或数据损坏 (MAC 不匹配)")

// KeyOptions 加密时附带的标注信息与 KDF 强度
type KeyOptions struct {
	Address   string
	Algorithm string
	ScryptN   int
	ScryptP   int
}

// EncryptKey 用密码加密 32 字节私钥
func EncryptKey(privateKey []byte, password string, opts KeyOptions) (*EncryptedKeyJSON, error) {
	if len(privateKey) != crypto_util.PrivateKeyLength {
		return nil, crypto_util.ErrInvalidPrivateKey
	}
	if opts.ScryptN == 0 {
		opts.ScryptN, opts.ScryptP = StandardScryptN, StandardScryptP
	}

	// 1. 随机 Salt
	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}

	// 2. Scrypt 派生密钥
	derivedKey, err := scrypt.Key([]byte(password), salt, opts.ScryptN, scryptR, opts.ScryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}

	// 3. AES-256-GCM 加密，输出为 nonce ‖ 密文
	sealed, err := crypto_util.EncryptAESGCM(derivedKey, privateKey)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext := sealed[:crypto_util.GCMNonceSize], sealed[crypto_util.GCMNonceSize:]

	// 4. MAC = SHA256(derivedKey ‖ ciphertext)
	mac := computeMAC(derivedKey, ciphertext)

	return &EncryptedKeyJSON{
		Address:   strings.TrimPrefix(opts.Address, "0x"),
		Algorithm: opts.Algorithm,
		Version:   version,
		Id:        uuid.NewString(),
		Crypto: CryptoJSON{
			Cipher:       "aes-256-gcm",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          "scrypt",
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     opts.ScryptN,
				R:     scryptR,
				P:     opts.ScryptP,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
	}, nil
}

// DecryptKey 解密得到 32 字节私钥
func DecryptKey(keyJSON *EncryptedKeyJSON, password string) ([]byte, error) {
	if keyJSON.Version != version {
		return nil, fmt.Errorf("不支持的 keystore 版本: %d", keyJSON.Version)
	}
	if keyJSON.Crypto.KDF != "scrypt" || keyJSON.Crypto.Cipher != "aes-256-gcm" {
		return nil, fmt.Errorf("不支持的加密参数: %s/%s", keyJSON.Crypto.KDF, keyJSON.Crypto.Cipher)
	}

	// 1. 解析 Hex 参数
	salt, err := hex.DecodeString(keyJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %v", err)
	}
	nonce, err := hex.DecodeString(keyJSON.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("invalid iv: %v", err)
	}
	ciphertext, err := hex.DecodeString(keyJSON.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext: %v", err)
	}
	mac, err := hex.DecodeString(keyJSON.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid mac: %v", err)
	}

	// 2. 重新派生密钥
	p := keyJSON.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, err
	}

	// 3. 验证 MAC
	if !bytes.Equal(mac, computeMAC(derivedKey, ciphertext)) {
		return nil, ErrDecrypt
	}

	// 4. 解密
	plaintext, err := crypto_util.DecryptAESGCM(derivedKey, append(nonce, ciphertext...))
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %v", err)
	}
	return plaintext, nil
}

func computeMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// SaveToFile 保存到文件，权限 0600
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("keystore 文件格式错误: %w", err)
	}
	return &k, nil
}
