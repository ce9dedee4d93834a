package safe_random

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomBytes(t *testing.T) {
	b, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b, 32)
	assert.False(t, bytes.Equal(b, make([]byte, 32)), "随机字节不应全为零")
}

func TestGenerateRandomHexString(t *testing.T) {
	s, err := GenerateRandomHexString(16)
	require.NoError(t, err)

	decoded, err := hex.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, decoded, 16)
}

func TestReaderFailure(t *testing.T) {
	old := Reader
	Reader = bytes.NewReader([]byte{1, 2})
	defer func() { Reader = old }()

	_, err := GenerateRandomBytes(8)
	assert.Error(t, err, "随机源耗尽时应返回错误")
}
