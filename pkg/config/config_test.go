package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, NetworkTestnet, cfg.Flow.Network)
	assert.Equal(t, "CommunityVoting", cfg.Flow.ContractName)
	assert.Equal(t, 2*time.Second, cfg.Flow.PollInterval)
	assert.Equal(t, 30, cfg.Flow.MaxPollAttempts)
	assert.Equal(t, "0.001", cfg.Flow.MinBalanceDecimal().String())
	assert.True(t, cfg.Flow.SerializeWriters)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FLOW_NETWORK", "emulator")
	t.Setenv("FLOW_ADDRESS", "0xf8d6e0586b0a20c7")
	t.Setenv("FLOW_PRIVATE_KEY", "abcd")
	t.Setenv("SMTP_SERVER", "smtp.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "emulator", cfg.Flow.Network)
	assert.Equal(t, "f8d6e0586b0a20c7", cfg.Flow.Address, "0x 前缀应被去掉")
	assert.Equal(t, "abcd", cfg.Flow.PrivateKey)
	assert.Equal(t, "f8d6e0586b0a20c7", cfg.Flow.EffectiveContractAddress())
	assert.Equal(t, "smtp.example.org", cfg.Notify.SMTPServer)

	preset, err := cfg.Flow.Preset()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8888", preset.RestURL)
	assert.Equal(t, "http://localhost:8701/transaction/abc", preset.TransactionURL("abc"))
}

func TestPreset(t *testing.T) {
	tests := []struct {
		network  string
		explorer string
		wantErr  bool
	}{
		{NetworkTestnet, "https://testnet.flowdiver.io", false},
		{NetworkMainnet, "https://flowdiver.io", false},
		{"devnet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			p, err := FlowConfig{Network: tt.network}.Preset()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.explorer, p.ExplorerURL)
		})
	}

	p, err := FlowConfig{Network: NetworkMainnet, RestURL: "http://proxy:8080"}.Preset()
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:8080", p.RestURL)
}

func TestMinBalanceFallback(t *testing.T) {
	assert.Equal(t, "0.001", FlowConfig{MinBalance: "not-a-number"}.MinBalanceDecimal().String())
	assert.Equal(t, "0.5", FlowConfig{MinBalance: "0.5"}.MinBalanceDecimal().String())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
