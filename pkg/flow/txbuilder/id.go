package txbuilder

import (
	"golang.org/x/crypto/sha3"

	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/flow/types"
)

// ID 交易 ID = SHA3-256(规范编码)，与节点返回值交叉校验
func ID(tx *types.SignedTransaction) (types.Identifier, error) {
	encoded, err := Encode(tx)
	if err != nil {
		return types.EmptyID, err
	}
	return types.Identifier(sha3.Sum256(encoded)), nil
}

// VerifyEnvelope 用账户公钥校验信封签名，publicKey 为 64 字节 X‖Y
func VerifyEnvelope(tx *types.SignedTransaction, publicKey []byte, algo crypto_util.SignatureAlgorithm, hash crypto_util.HashAlgorithm) bool {
	if len(tx.EnvelopeSignatures) == 0 {
		return false
	}
	message, err := EnvelopeMessage(tx)
	if err != nil {
		return false
	}
	digest, err := crypto_util.Digest(hash, message)
	if err != nil {
		return false
	}
	for _, sig := range tx.EnvelopeSignatures {
		if !crypto_util.VerifySignature(algo, publicKey, digest, sig.Signature) {
			return false
		}
	}
	return true
}
