// Package txbuilder 构建、签名交易并计算其规范编码与 ID
package txbuilder

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/types"
	"proposal-core/pkg/kms"
)

const domainTagLength = 32

// TransactionDomainTag 交易签名消息的域分隔前缀，右侧补零到 32 字节
var TransactionDomainTag = paddedDomainTag("FLOW-V0.0-transaction")

func paddedDomainTag(s string) [domainTagLength]byte {
	var tag [domainTagLength]byte
	copy(tag[:], s)
	return tag
}

type payloadCanonicalForm struct {
	Script                    []byte
	Arguments                 [][]byte
	ReferenceBlockID          []byte
	GasLimit                  uint64
	ProposalKeyAddress        []byte
	ProposalKeyIndex          uint64
	ProposalKeySequenceNumber uint64
	Payer                     []byte
	Authorizers               [][]byte
}

type signatureCanonicalForm struct {
	SignerIndex uint64
	KeyIndex    uint64
	Signature   []byte
}

type envelopeCanonicalForm struct {
	Payload           payloadCanonicalForm
	PayloadSignatures []signatureCanonicalForm
}

type transactionCanonicalForm struct {
	Payload            payloadCanonicalForm
	PayloadSignatures  []signatureCanonicalForm
	EnvelopeSignatures []signatureCanonicalForm
}

// Build 以 account 同时作为提议者、付款人与唯一授权人构建交易
// 序列号取自本次读取到的账户快照，调用方每次提交都应重新读取账户
func Build(script []byte, args [][]byte, account types.Account, keyIndex uint32, ref types.BlockRef, gasLimit uint64) (*types.UnsignedTransaction, error) {
	if len(script) == 0 {
		return nil, errno.ErrBuildFailure.WithDetail("empty script")
	}
	if account.Address.IsEmpty() {
		return nil, errno.ErrBuildFailure.WithDetail("empty account address")
	}
	key, ok := account.Key(keyIndex)
	if !ok {
		return nil, errno.ErrBuildFailure.WithDetail(fmt.Sprintf("account %s has no key %d", account.Address, keyIndex))
	}
	if key.Revoked {
		return nil, errno.ErrBuildFailure.WithDetail(fmt.Sprintf("account key %d is revoked", keyIndex))
	}
	if ref.ID == types.EmptyID {
		return nil, errno.ErrBuildFailure.WithDetail("missing reference block")
	}

	return &types.UnsignedTransaction{
		Script:           script,
		Arguments:        args,
		ReferenceBlockID: ref.ID,
		GasLimit:         gasLimit,
		ProposalKey: types.ProposalKey{
			Address:        account.Address,
			KeyIndex:       keyIndex,
			SequenceNumber: key.SequenceNumber,
		},
		Payer:       account.Address,
		Authorizers: []types.Address{account.Address},
	}, nil
}

// Sign 付款人对信封签名。提议者、付款人与授权人为同一账户时只需这一个签名
func Sign(tx *types.UnsignedTransaction, signer kms.Signer) (*types.SignedTransaction, error) {
	if signer == nil {
		return nil, errno.ErrSigningError.WithDetail("no signer configured")
	}

	signed := &types.SignedTransaction{UnsignedTransaction: *tx}
	message, err := EnvelopeMessage(signed)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(message)
	if err != nil {
		return nil, errno.ErrSigningError.WithDetail(err.Error())
	}

	signed.EnvelopeSignatures = []types.TransactionSignature{{
		Address:     tx.Payer,
		SignerIndex: signerIndex(tx, tx.Payer),
		KeyIndex:    tx.ProposalKey.KeyIndex,
		Signature:   sig,
	}}
	return signed, nil
}

// PayloadMessage 载荷签名消息: 域标签 ‖ RLP(payload)
func PayloadMessage(tx *types.UnsignedTransaction) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(payloadForm(tx))
	if err != nil {
		return nil, errno.ErrBuildFailure.WithDetail(err.Error())
	}
	return withDomainTag(encoded), nil
}

// EnvelopeMessage 信封签名消息: 域标签 ‖ RLP([payload, payloadSignatures])
func EnvelopeMessage(tx *types.SignedTransaction) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(envelopeCanonicalForm{
		Payload:           payloadForm(&tx.UnsignedTransaction),
		PayloadSignatures: signatureForms(tx.PayloadSignatures),
	})
	if err != nil {
		return nil, errno.ErrBuildFailure.WithDetail(err.Error())
	}
	return withDomainTag(encoded), nil
}

// Encode 完整交易的规范编码
func Encode(tx *types.SignedTransaction) ([]byte, error) {
	return rlp.EncodeToBytes(transactionCanonicalForm{
		Payload:            payloadForm(&tx.UnsignedTransaction),
		PayloadSignatures:  signatureForms(tx.PayloadSignatures),
		EnvelopeSignatures: signatureForms(tx.EnvelopeSignatures),
	})
}

func withDomainTag(encoded []byte) []byte {
	msg := make([]byte, 0, domainTagLength+len(encoded))
	msg = append(msg, TransactionDomainTag[:]...)
	return append(msg, encoded...)
}

func payloadForm(tx *types.UnsignedTransaction) payloadCanonicalForm {
	authorizers := make([][]byte, len(tx.Authorizers))
	for i, a := range tx.Authorizers {
		authorizers[i] = a.Bytes()
	}
	args := tx.Arguments
	if args == nil {
		args = [][]byte{}
	}
	return payloadCanonicalForm{
		Script:                    tx.Script,
		Arguments:                 args,
		ReferenceBlockID:          tx.ReferenceBlockID.Bytes(),
		GasLimit:                  tx.GasLimit,
		ProposalKeyAddress:        tx.ProposalKey.Address.Bytes(),
		ProposalKeyIndex:          uint64(tx.ProposalKey.KeyIndex),
		ProposalKeySequenceNumber: tx.ProposalKey.SequenceNumber,
		Payer:                     tx.Payer.Bytes(),
		Authorizers:               authorizers,
	}
}

func signatureForms(sigs []types.TransactionSignature) []signatureCanonicalForm {
	out := make([]signatureCanonicalForm, len(sigs))
	for i, s := range sigs {
		out[i] = signatureCanonicalForm{
			SignerIndex: uint64(s.SignerIndex),
			KeyIndex:    uint64(s.KeyIndex),
			Signature:   s.Signature,
		}
	}
	return out
}

func signerIndex(tx *types.UnsignedTransaction, addr types.Address) int {
	for i, a := range tx.Signers() {
		if a == addr {
			return i
		}
	}
	return -1
}
