package keyshare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/pkg/crypto_util"
)

func TestSplitCombine(t *testing.T) {
	priv, err := crypto_util.GenerateSecp256k1Key()
	require.NoError(t, err)
	raw := priv.Serialize()

	shares, err := Split(raw, 5, 3)
	require.NoError(t, err)
	assert.Len(t, shares, 5)

	got, err := Combine([]string{shares[4], shares[0], shares[2]})
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, raw, got, "全部 share 也应能恢复")
}

func TestSplitRejects(t *testing.T) {
	raw := make([]byte, crypto_util.PrivateKeyLength)
	raw[31] = 1

	_, err := Split(raw[:16], 3, 2)
	assert.ErrorIs(t, err, crypto_util.ErrInvalidPrivateKey)

	_, err = Split(raw, 3, 4)
	assert.Error(t, err, "threshold 大于 parts")

	_, err = Split(raw, 3, 1)
	assert.Error(t, err)
}

func TestCombineRejects(t *testing.T) {
	_, err := Combine([]string{"aa"})
	assert.Error(t, err)

	_, err = Combine([]string{"zz", "yy"})
	assert.Error(t, err)

	_, err = Combine([]string{"0a0b", "0c0d"})
	assert.Error(t, err, "长度不符")
}
