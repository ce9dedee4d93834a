package client

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"proposal-core/pkg/flow/types"
)

type accountKeyResponse struct {
	Index            string `json:"index"`
	PublicKey        string `json:"public_key"`
	SigningAlgorithm string `json:"signing_algorithm"`
	HashingAlgorithm string `json:"hashing_algorithm"`
	SequenceNumber   string `json:"sequence_number"`
	Weight           string `json:"weight"`
	Revoked          bool   `json:"revoked"`
}

type accountResponse struct {
	Address string               `json:"address"`
	Balance string               `json:"balance"`
	Keys    []accountKeyResponse `json:"keys"`
}

func (r accountResponse) toAccount() (types.Account, error) {
	addr, err := types.HexToAddress(r.Address)
	if err != nil {
		return types.Account{}, err
	}
	balance, err := parseUint(r.Balance)
	if err != nil {
		return types.Account{}, fmt.Errorf("balance: %w", err)
	}
	acc := types.Account{Address: addr, Balance: balance, Keys: make([]types.AccountKey, 0, len(r.Keys))}
	for _, k := range r.Keys {
		index, err := strconv.ParseUint(k.Index, 10, 32)
		if err != nil {
			return types.Account{}, fmt.Errorf("key index: %w", err)
		}
		seq, err := parseUint(k.SequenceNumber)
		if err != nil {
			return types.Account{}, fmt.Errorf("sequence number: %w", err)
		}
		weight, _ := parseUint(k.Weight)
		acc.Keys = append(acc.Keys, types.AccountKey{
			Index:            uint32(index),
			PublicKey:        k.PublicKey,
			SigningAlgorithm: k.SigningAlgorithm,
			HashingAlgorithm: k.HashingAlgorithm,
			SequenceNumber:   seq,
			Weight:           weight,
			Revoked:          k.Revoked,
		})
	}
	return acc, nil
}

type blockResponse struct {
	Header struct {
		ID        string    `json:"id"`
		Height    string    `json:"height"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"header"`
}

func (r blockResponse) toBlockRef() (types.BlockRef, error) {
	id, err := types.HexToID(r.Header.ID)
	if err != nil {
		return types.BlockRef{}, err
	}
	height, err := parseUint(r.Header.Height)
	if err != nil {
		return types.BlockRef{}, fmt.Errorf("height: %w", err)
	}
	return types.BlockRef{ID: id, Height: height, Timestamp: r.Header.Timestamp}, nil
}

type proposalKeyRequest struct {
	Address        string `json:"address"`
	KeyIndex       string `json:"key_index"`
	SequenceNumber string `json:"sequence_number"`
}

type signatureRequest struct {
	Address   string `json:"address"`
	KeyIndex  string `json:"key_index"`
	Signature string `json:"signature"`
}

type transactionRequest struct {
	Script             string             `json:"script"`
	Arguments          []string           `json:"arguments"`
	ReferenceBlockID   string             `json:"reference_block_id"`
	GasLimit           string             `json:"gas_limit"`
	Payer              string             `json:"payer"`
	ProposalKey        proposalKeyRequest `json:"proposal_key"`
	Authorizers        []string           `json:"authorizers"`
	PayloadSignatures  []signatureRequest `json:"payload_signatures"`
	EnvelopeSignatures []signatureRequest `json:"envelope_signatures"`
}

func newTransactionRequest(tx *types.SignedTransaction) transactionRequest {
	req := transactionRequest{
		Script:           encodeBase64(tx.Script),
		Arguments:        encodeAll(tx.Arguments),
		ReferenceBlockID: tx.ReferenceBlockID.Hex(),
		GasLimit:         strconv.FormatUint(tx.GasLimit, 10),
		Payer:            tx.Payer.Hex(),
		ProposalKey: proposalKeyRequest{
			Address:        tx.ProposalKey.Address.Hex(),
			KeyIndex:       strconv.FormatUint(uint64(tx.ProposalKey.KeyIndex), 10),
			SequenceNumber: strconv.FormatUint(tx.ProposalKey.SequenceNumber, 10),
		},
		Authorizers:        make([]string, 0, len(tx.Authorizers)),
		PayloadSignatures:  signatureRequests(tx.PayloadSignatures),
		EnvelopeSignatures: signatureRequests(tx.EnvelopeSignatures),
	}
	for _, a := range tx.Authorizers {
		req.Authorizers = append(req.Authorizers, a.Hex())
	}
	return req
}

func signatureRequests(sigs []types.TransactionSignature) []signatureRequest {
	out := make([]signatureRequest, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, signatureRequest{
			Address:   s.Address.Hex(),
			KeyIndex:  strconv.FormatUint(uint64(s.KeyIndex), 10),
			Signature: encodeBase64(s.Signature),
		})
	}
	return out
}

type scriptRequest struct {
	Script    string   `json:"script"`
	Arguments []string `json:"arguments"`
}

func newScriptRequest(script []byte, args [][]byte) scriptRequest {
	return scriptRequest{Script: encodeBase64(script), Arguments: encodeAll(args)}
}

type transactionResultResponse struct {
	BlockID      string `json:"block_id"`
	Status       string `json:"status"`
	StatusCode   int    `json:"status_code"`
	ErrorMessage string `json:"error_message"`
}

func (r transactionResultResponse) toResult() types.TransactionResult {
	return types.TransactionResult{
		Status:       types.ParseTxStatus(r.Status),
		StatusCode:   r.StatusCode,
		ErrorMessage: r.ErrorMessage,
		BlockID:      r.BlockID,
	}
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func encodeAll(items [][]byte) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, encodeBase64(item))
	}
	return out
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return b, nil
}

func parseUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
