package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"proposal-core/pkg/bip32"
	"proposal-core/pkg/bip39"
	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/keyshare"
	"proposal-core/pkg/kms"
)

var (
	keyAlgo      string
	mnemonicBits int
	mnemonic     string
	derivePath   string
	splitKey     string
	splitParts   int
	splitMin     int
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "账户密钥工具",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成新的账户密钥对",
	Long: `p256 直接生成随机私钥；secp256k1 先生成助记词，再按 BIP-44 路径派生。
输出的公钥可用于在链上为账户添加密钥。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := crypto_util.ParseSignatureAlgorithm(keyAlgo)
		if err != nil {
			return err
		}

		switch algo {
		case crypto_util.ECDSA_P256:
			priv, err := crypto_util.GenerateP256Key()
			if err != nil {
				return err
			}
			raw := make([]byte, crypto_util.PrivateKeyLength)
			priv.D.FillBytes(raw)
			return printJSON(map[string]string{
				"algorithm":  string(algo),
				"privateKey": hex.EncodeToString(raw),
				"publicKey":  hex.EncodeToString(crypto_util.P256PublicKeyBytes(&priv.PublicKey)),
			})
		default:
			m, err := bip39.NewMnemonicService().GenerateMnemonic(mnemonicBits)
			if err != nil {
				return err
			}
			return printDerived(m, bip32.DefaultDerivationPath)
		}
	},
}

var keysDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "由助记词派生 secp256k1 密钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mnemonic == "" {
			return fmt.Errorf("缺少 --mnemonic")
		}
		if !bip39.NewMnemonicService().ValidateMnemonic(mnemonic) {
			return fmt.Errorf("助记词无效")
		}
		return printDerived(mnemonic, derivePath)
	},
}

var keysSplitCmd = &cobra.Command{
	Use:   "split",
	Short: "将私钥切分为 Shamir 备份份额",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := crypto_util.DecodeKeyHex(splitKey)
		if err != nil {
			return err
		}
		shares, err := keyshare.Split(raw, splitParts, splitMin)
		if err != nil {
			return err
		}
		for i, s := range shares {
			fmt.Printf("share %d: %s\n", i+1, s)
		}
		return nil
	},
}

var keysCombineCmd = &cobra.Command{
	Use:   "combine <share>...",
	Short: "由备份份额恢复私钥",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := keyshare.Combine(args)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(raw))
		return nil
	},
}

func printDerived(m, path string) error {
	raw, err := kms.DeriveSecp256k1Key(m, path)
	if err != nil {
		return err
	}
	priv, err := crypto_util.ParseSecp256k1PrivateKey(raw)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"algorithm":      string(crypto_util.ECDSA_secp256k1),
		"mnemonic":       m,
		"derivationPath": path,
		"privateKey":     hex.EncodeToString(raw),
		"publicKey":      hex.EncodeToString(crypto_util.Secp256k1PublicKeyBytes(priv.PubKey())),
	})
}

func init() {
	keysGenerateCmd.Flags().StringVar(&keyAlgo, "algo", "p256", "签名算法 (p256|secp256k1)")
	keysGenerateCmd.Flags().IntVar(&mnemonicBits, "bits", 128, "助记词熵长度")
	keysDeriveCmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 助记词")
	keysDeriveCmd.Flags().StringVar(&derivePath, "path", bip32.DefaultDerivationPath, "派生路径")

	keysSplitCmd.Flags().StringVar(&splitKey, "private-key", "", "十六进制私钥")
	keysSplitCmd.Flags().IntVar(&splitParts, "parts", 5, "份额总数")
	keysSplitCmd.Flags().IntVar(&splitMin, "threshold", 3, "恢复所需份额数")
	_ = keysSplitCmd.MarkFlagRequired("private-key")

	keysCmd.AddCommand(keysGenerateCmd, keysDeriveCmd, keysSplitCmd, keysCombineCmd)
	rootCmd.AddCommand(keysCmd)
}
