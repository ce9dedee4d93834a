package event

// ProposalCreatedEvent 提案上链成功事件
// Topic: proposal_events_created
type ProposalCreatedEvent struct {
	ProposalID  *uint64 `json:"proposal_id"` // 读取计数失败时为空
	ParkName    string  `json:"park_name"`
	ParkID      string  `json:"park_id"`
	EndDate     int64   `json:"end_date"`
	Description string  `json:"description"`
	TxID        string  `json:"tx_id"`
	ExplorerURL string  `json:"explorer_url"`
}

// TopicProposalCreated 默认的消息主题
const TopicProposalCreated = "proposal_events_created"
