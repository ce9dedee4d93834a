package types

// ProposalKey 提议者密钥: 地址 + 密钥序号 + 当前序列号
type ProposalKey struct {
	Address        Address `json:"address"`
	KeyIndex       uint32  `json:"key_index"`
	SequenceNumber uint64  `json:"sequence_number"`
}

// TransactionSignature 单个签名
type TransactionSignature struct {
	Address     Address `json:"address"`
	SignerIndex int     `json:"signer_index"`
	KeyIndex    uint32  `json:"key_index"`
	Signature   []byte  `json:"signature"`
}

// UnsignedTransaction 待签名交易，每次提交重新构建，不可复用 (序列号只能消费一次)
type UnsignedTransaction struct {
	Script           []byte      `json:"script"`
	Arguments        [][]byte    `json:"arguments"` // JSON-Cadence 编码后的参数
	ReferenceBlockID Identifier  `json:"reference_block_id"`
	GasLimit         uint64      `json:"gas_limit"`
	ProposalKey      ProposalKey `json:"proposal_key"`
	Payer            Address     `json:"payer"`
	Authorizers      []Address   `json:"authorizers"`
}

// Signers 按 提议者 / 付款人 / 授权人 顺序去重后的签名账户列表
// 签名中的 SignerIndex 即该列表下标
func (tx *UnsignedTransaction) Signers() []Address {
	seen := make(map[Address]struct{})
	var out []Address
	add := func(a Address) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	add(tx.ProposalKey.Address)
	add(tx.Payer)
	for _, a := range tx.Authorizers {
		add(a)
	}
	return out
}

// SignedTransaction 已签名交易，只提交一次；提交失败整体丢弃重建
type SignedTransaction struct {
	UnsignedTransaction
	PayloadSignatures  []TransactionSignature `json:"payload_signatures"`
	EnvelopeSignatures []TransactionSignature `json:"envelope_signatures"`
}

// TxStatus 交易状态，数值与接入节点保持一致
type TxStatus int

const (
	TxStatusUnknown TxStatus = iota
	TxStatusPending
	TxStatusFinalized
	TxStatusExecuted
	TxStatusSealed
	TxStatusExpired
)

var txStatusNames = map[TxStatus]string{
	TxStatusUnknown:   "Unknown",
	TxStatusPending:   "Pending",
	TxStatusFinalized: "Finalized",
	TxStatusExecuted:  "Executed",
	TxStatusSealed:    "Sealed",
	TxStatusExpired:   "Expired",
}

func (s TxStatus) String() string {
	if name, ok := txStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseTxStatus 解析 REST 接口返回的状态名
func ParseTxStatus(name string) TxStatus {
	for s, n := range txStatusNames {
		if n == name {
			return s
		}
	}
	return TxStatusUnknown
}

// IsTerminal Sealed 与 Expired 都不会再变化
func (s TxStatus) IsTerminal() bool {
	return s >= TxStatusSealed
}

// TransactionResult 接入节点返回的执行结果
type TransactionResult struct {
	Status       TxStatus `json:"status"`
	StatusCode   int      `json:"status_code"`
	ErrorMessage string   `json:"error_message"`
	BlockID      string   `json:"block_id,omitempty"`
}

// TransactionOutcome 一次写链操作的最终结果
type TransactionOutcome struct {
	TxID         string   `json:"tx_id"`
	Status       TxStatus `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ProposalID   *uint64  `json:"proposal_id,omitempty"`
	ExplorerURL  string   `json:"explorer_url"`
	PollAttempts int      `json:"poll_attempts"`
}
