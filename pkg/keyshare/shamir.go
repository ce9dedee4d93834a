package keyshare

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/shamir"

	"proposal-core/pkg/crypto_util"
)

// Split 将账户私钥切分为 parts 份备份，至少 threshold 份才能恢复
// 每份 Share 为十六进制，最后一个字节是 X 坐标
func Split(privateKey []byte, parts, threshold int) ([]string, error) {
	if len(privateKey) != crypto_util.PrivateKeyLength {
		return nil, crypto_util.ErrInvalidPrivateKey
	}
	if threshold < 2 || threshold > parts || parts > 255 {
		return nil, fmt.Errorf("无效的切分参数: parts=%d threshold=%d", parts, threshold)
	}

	sharesBytes, err := shamir.Split(privateKey, parts, threshold)
	if err != nil {
		return nil, err
	}

	shares := make([]string, 0, len(sharesBytes))
	for _, share := range sharesBytes {
		shares = append(shares, hex.EncodeToString(share))
	}
	return shares, nil
}

// Combine 从至少 threshold 份 Share 中恢复私钥
// 份数不足时 shamir 不会报错，只会得到错误的结果，调用方需核对公钥
func Combine(sharesHex []string) ([]byte, error) {
	if len(sharesHex) < 2 {
		return nil, fmt.Errorf("至少需要 2 份 share")
	}

	sharesBytes := make([][]byte, 0, len(sharesHex))
	for _, s := range sharesHex {
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid share hex: %v", err)
		}
		if len(b) != crypto_util.PrivateKeyLength+1 {
			return nil, fmt.Errorf("share 长度应为 %d 字节", crypto_util.PrivateKeyLength+1)
		}
		sharesBytes = append(sharesBytes, b)
	}

	secret, err := shamir.Combine(sharesBytes)
	if err != nil {
		return nil, err
	}
	return secret, nil
}
