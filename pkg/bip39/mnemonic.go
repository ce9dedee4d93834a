package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("助记词无效")

// MnemonicService 提供助记词相关的功能
type MnemonicService struct{}

func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，通常为 128 (12个单词) 或 256 (24个单词)。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %v", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %v", err)
	}

	return mnemonic, nil
}

func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalize(mnemonic))
}

// MnemonicToSeed 校验助记词后转换为种子；passphrase 可为空
func (s *MnemonicService) MnemonicToSeed(mnemonic string, passphrase string) ([]byte, error) {
	mnemonic = normalize(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// 配置文件或环境变量中的助记词可能带有多余空白
func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
