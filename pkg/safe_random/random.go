// Package safe_random 封装密码学安全随机源，签名、密钥生成与 keystore 盐值共用
package safe_random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Reader 全局共享的随机源，测试中可替换为确定性实现
var Reader io.Reader = rand.Reader

// GenerateRandomBytes 生成 n 字节随机数据
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// GenerateRandomHexString 生成 n 字节随机数据的十六进制表示 (长度 2n)
func GenerateRandomHexString(n int) (string, error) {
	b, err := GenerateRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
