package config

import "fmt"

const (
	NetworkTestnet  = "testnet"
	NetworkMainnet  = "mainnet"
	NetworkEmulator = "emulator"
)

// NetworkPreset 网络预设: 接入节点 / REST 网关 / 区块浏览器
type NetworkPreset struct {
	Name        string
	AccessNode  string
	RestURL     string
	ExplorerURL string
}

var presets = map[string]NetworkPreset{
	NetworkTestnet: {
		Name:        NetworkTestnet,
		AccessNode:  "access.devnet.nodes.onflow.org:9000",
		RestURL:     "https://rest-testnet.onflow.org",
		ExplorerURL: "https://testnet.flowdiver.io",
	},
	NetworkMainnet: {
		Name:        NetworkMainnet,
		AccessNode:  "access.mainnet.nodes.onflow.org:9000",
		RestURL:     "https://rest-mainnet.onflow.org",
		ExplorerURL: "https://flowdiver.io",
	},
	NetworkEmulator: {
		Name:        NetworkEmulator,
		AccessNode:  "localhost:3569",
		RestURL:     "http://localhost:8888",
		ExplorerURL: "http://localhost:8701",
	},
}

// Preset 返回网络预设，rest_url 配置项可以覆盖默认 REST 网关
func (c FlowConfig) Preset() (NetworkPreset, error) {
	p, ok := presets[c.Network]
	if !ok {
		return NetworkPreset{}, fmt.Errorf("unknown flow network %q (testnet|mainnet|emulator)", c.Network)
	}
	if c.RestURL != "" {
		p.RestURL = c.RestURL
	}
	return p, nil
}

// TransactionURL 拼接交易在浏览器中的地址
func (p NetworkPreset) TransactionURL(txID string) string {
	return fmt.Sprintf("%s/transaction/%s", p.ExplorerURL, txID)
}
