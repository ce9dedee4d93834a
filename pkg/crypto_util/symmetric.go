package crypto_util

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"

	"proposal-core/pkg/safe_random"
)

// GCMNonceSize AES-GCM 标准 nonce 长度
const GCMNonceSize = 12

// EncryptAESGCM 使用给定的密钥对明文进行 AES-GCM 加密。
// 密钥必须是 16、24 或 32 字节长，分别对应 AES-128、AES-192 或 AES-256。
// 返回 nonce + 密文。
func EncryptAESGCM(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(safe_random.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptAESGCM 使用给定的密钥对 AES-GCM 密文（nonce + 加密数据）进行解密。
func DecryptAESGCM(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("密文太短")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
