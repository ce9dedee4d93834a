package bip32

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"proposal-core/pkg/crypto_util"
)

// Keychain 实现了 ExtendedKey 接口，封装了 hdkeychain.ExtendedKey
// 只派生 secp256k1 密钥，P-256 账户密钥需直接导入私钥
type Keychain struct {
	key     *hdkeychain.ExtendedKey
	network *chaincfg.Params
}

func (k *Keychain) String() string {
	return k.key.String()
}

func (k *Keychain) ECPubKey() (*btcec.PublicKey, error) {
	return k.key.ECPubKey()
}

func (k *Keychain) ECPrivKey() (*btcec.PrivateKey, error) {
	return k.key.ECPrivKey()
}

func (k *Keychain) Derive(index uint32) (ExtendedKey, error) {
	childKey, err := k.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("派生子密钥失败: %v", err)
	}
	return &Keychain{key: childKey, network: k.network}, nil
}

func (k *Keychain) IsPrivate() bool {
	return k.key.IsPrivate()
}

func (k *Keychain) AccountPublicKey() (string, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(crypto_util.Secp256k1PublicKeyBytes(pub)), nil
}

func (k *Keychain) Neuter() (ExtendedKey, error) {
	neuterKey, err := k.key.Neuter()
	if err != nil {
		return nil, fmt.Errorf("转换公钥失败: %v", err)
	}
	return &Keychain{key: neuterKey, network: k.network}, nil
}

// Wallet 实现 HDWallet 接口
type Wallet struct {
	masterKey *Keychain
	network   *chaincfg.Params
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// network 只影响 xprv/xpub 的序列化前缀，默认 chaincfg.MainNetParams
func NewMasterKeyFromSeed(seed []byte, network *chaincfg.Params) (*Wallet, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, ErrInvalidSeed
	}

	if network == nil {
		network = &chaincfg.MainNetParams
	}

	masterKey, err := hdkeychain.NewMaster(seed, network)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %v", err)
	}

	return &Wallet{
		masterKey: &Keychain{key: masterKey, network: network},
		network:   network,
	}, nil
}

func (w *Wallet) MasterKey() ExtendedKey {
	return w.masterKey
}

// DerivePath 解析路径并派生密钥
// 支持格式: m/44'/539'/0'/0/0 或 m/44h/539h/0h/0/0，空路径返回主密钥
func (w *Wallet) DerivePath(path string) (ExtendedKey, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return w.masterKey, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	var current ExtendedKey = w.masterKey
	for _, segment := range strings.Split(path[2:], "/") {
		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h")
		if hardened {
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || val >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: 路径段 '%s'", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		current, err = current.Derive(index)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}
