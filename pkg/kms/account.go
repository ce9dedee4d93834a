package kms

import (
	"fmt"
	"strings"

	"proposal-core/pkg/bip32"
	"proposal-core/pkg/bip39"
	"proposal-core/pkg/config"
	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/keystore"
)

// LoadAccountSigner 按配置把账户私钥导入 KeyManager 并返回签名器
// 来源优先级: private_key > keystore_path > mnemonic
// 未配置任何私钥时返回 (nil, nil)，写操作会以 NotConfigured 失败
func LoadAccountSigner(cfg config.FlowConfig, km KeyManager) (Signer, error) {
	algo, err := crypto_util.ParseSignatureAlgorithm(cfg.SignatureAlgorithm)
	if err != nil {
		return nil, err
	}
	hash, err := crypto_util.ParseHashAlgorithm(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	raw, err := loadPrivateKey(cfg, algo)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	keyID, err := km.ImportKey(algo, hash, raw)
	if err != nil {
		return nil, fmt.Errorf("导入账户私钥失败: %w", err)
	}
	return km.Signer(keyID)
}

func loadPrivateKey(cfg config.FlowConfig, algo crypto_util.SignatureAlgorithm) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.PrivateKey) != "":
		return crypto_util.DecodeKeyHex(cfg.PrivateKey)

	case cfg.KeystorePath != "":
		keyJSON, err := keystore.LoadFromFile(cfg.KeystorePath)
		if err != nil {
			return nil, err
		}
		if keyJSON.Algorithm != "" && keyJSON.Algorithm != string(algo) {
			return nil, fmt.Errorf("keystore 算法 %s 与配置 %s 不一致", keyJSON.Algorithm, algo)
		}
		return keystore.DecryptKey(keyJSON, cfg.KeystorePassword)

	case strings.TrimSpace(cfg.Mnemonic) != "":
		if algo != crypto_util.ECDSA_secp256k1 {
			return nil, fmt.Errorf("助记词派生仅支持 %s", crypto_util.ECDSA_secp256k1)
		}
		return DeriveSecp256k1Key(cfg.Mnemonic, cfg.DerivationPath)
	}
	return nil, nil
}

// DeriveSecp256k1Key 由助记词按 BIP-44 路径派生 secp256k1 私钥
func DeriveSecp256k1Key(mnemonic, path string) ([]byte, error) {
	if path == "" {
		path = bip32.DefaultDerivationPath
	}
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	wallet, err := bip32.NewMasterKeyFromSeed(seed, nil)
	if err != nil {
		return nil, err
	}
	key, err := wallet.DerivePath(path)
	if err != nil {
		return nil, err
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.Serialize(), nil
}
