package bip32

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/pkg/bip39"
	"proposal-core/pkg/crypto_util"
)

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	require.NoError(t, err)
	w, err := NewMasterKeyFromSeed(seed, nil)
	require.NoError(t, err)
	return w
}

func TestNewMasterKeyFromSeed(t *testing.T) {
	w := newTestWallet(t)
	require.NotNil(t, w.MasterKey())
	assert.Contains(t, w.MasterKey().String(), "xprv")

	_, err := NewMasterKeyFromSeed([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDerivePathDeterministic(t *testing.T) {
	w := newTestWallet(t)

	a, err := w.DerivePath(DefaultDerivationPath)
	require.NoError(t, err)
	b, err := w.DerivePath("m/44h/539h/0h/0/0")
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String(), "' 与 h 写法应等价")

	other, err := w.DerivePath("m/44'/539'/0'/0/1")
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), other.String())

	pub, err := a.AccountPublicKey()
	require.NoError(t, err)
	raw, _ := hex.DecodeString(pub)
	assert.Len(t, raw, crypto_util.PublicKeyLength)
}

func TestDerivedKeySigns(t *testing.T) {
	w := newTestWallet(t)
	key, err := w.DerivePath(DefaultDerivationPath)
	require.NoError(t, err)

	priv, err := key.ECPrivKey()
	require.NoError(t, err)

	digest, _ := crypto_util.Digest(crypto_util.SHA3_256, []byte("message"))
	sig, err := crypto_util.Secp256k1Sign(priv, digest)
	require.NoError(t, err)

	pubHex, _ := key.AccountPublicKey()
	pub, _ := hex.DecodeString(pubHex)
	assert.True(t, crypto_util.VerifySignature(crypto_util.ECDSA_secp256k1, pub, digest, sig))
}

func TestDerivePathInvalid(t *testing.T) {
	w := newTestWallet(t)
	for _, p := range []string{"44'/0'", "m/abc", "m/4294967296", "m//0"} {
		_, err := w.DerivePath(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestNeuter(t *testing.T) {
	w := newTestWallet(t)
	key, _ := w.DerivePath(DefaultDerivationPath)

	pub, err := key.Neuter()
	require.NoError(t, err)
	assert.False(t, pub.IsPrivate())
	assert.Contains(t, pub.String(), "xpub")

	_, err = pub.ECPrivKey()
	assert.Error(t, err, "扩展公钥无法取得私钥")
}
