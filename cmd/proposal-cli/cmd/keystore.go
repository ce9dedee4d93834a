package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/keystore"
)

var (
	ksPrivateKey string
	ksPassword   string
	ksOutput     string
	ksAddress    string
	ksLight      bool
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "keystore 文件工具",
}

var keystoreEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "用密码加密私钥并写入 keystore 文件",
	Long:  `生成的文件可通过 flow.keystore_path 与 FLOW_KEYSTORE_PASSWORD 供服务端加载。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ksPassword == "" {
			return fmt.Errorf("缺少 --password")
		}
		raw, err := crypto_util.DecodeKeyHex(ksPrivateKey)
		if err != nil {
			return err
		}
		algo, err := crypto_util.ParseSignatureAlgorithm(keyAlgo)
		if err != nil {
			return err
		}

		opts := keystore.KeyOptions{Address: ksAddress, Algorithm: string(algo)}
		if ksLight {
			opts.ScryptN, opts.ScryptP = keystore.LightScryptN, keystore.LightScryptP
		}
		key, err := keystore.EncryptKey(raw, ksPassword, opts)
		if err != nil {
			return err
		}
		if err := key.SaveToFile(ksOutput); err != nil {
			return err
		}
		fmt.Printf("keystore 已写入: %s\n", ksOutput)
		return nil
	},
}

var keystoreDecryptCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "校验 keystore 密码是否正确",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keystore.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		if _, err := keystore.DecryptKey(key, ksPassword); err != nil {
			return err
		}
		fmt.Println("密码正确")
		return nil
	},
}

func init() {
	keystoreEncryptCmd.Flags().StringVar(&ksPrivateKey, "private-key", "", "十六进制私钥")
	keystoreEncryptCmd.Flags().StringVar(&ksPassword, "password", "", "加密密码")
	keystoreEncryptCmd.Flags().StringVarP(&ksOutput, "out", "o", "keystore.json", "输出文件")
	keystoreEncryptCmd.Flags().StringVar(&ksAddress, "address", "", "账户地址 (仅作标注)")
	keystoreEncryptCmd.Flags().StringVar(&keyAlgo, "algo", "p256", "签名算法 (p256|secp256k1)")
	keystoreEncryptCmd.Flags().BoolVar(&ksLight, "light", false, "使用轻量 scrypt 参数")
	_ = keystoreEncryptCmd.MarkFlagRequired("private-key")
	keystoreDecryptCmd.Flags().StringVar(&ksPassword, "password", "", "keystore 密码")

	keystoreCmd.AddCommand(keystoreEncryptCmd, keystoreDecryptCmd)
	rootCmd.AddCommand(keystoreCmd)
}
