package model

import (
	"time"

	"gorm.io/gorm"
)

// 提交记录状态
const (
	SubmissionPending = "pending"
	SubmissionSealed  = "sealed"
	SubmissionFailed  = "failed"
	SubmissionTimeout = "timeout"
)

// ProposalSubmission 每次创建提案的写链记录
type ProposalSubmission struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string    `gorm:"type:varchar(64);not null;index" json:"fingerprint"`
	ParkID      string    `gorm:"type:varchar(255);not null;index" json:"park_id"`
	ParkName    string    `gorm:"type:varchar(255);not null" json:"park_name"`
	TxID        string    `gorm:"type:varchar(64);index" json:"tx_id"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ProposalID  *uint64   `gorm:"index" json:"proposal_id,omitempty"`
	ExplorerURL string    `gorm:"type:varchar(255)" json:"explorer_url"`
	EndDate     int64     `gorm:"not null" json:"end_date"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProposalSubmission) TableName() string {
	return "proposal_submissions"
}

// ProposalClosure 关闭提案的交易记录
type ProposalClosure struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProposalID uint64    `gorm:"not null;index" json:"proposal_id"`
	SweepRunID string    `gorm:"type:varchar(36);not null;index" json:"sweep_run_id"`
	TxID       string    `gorm:"type:varchar(64)" json:"tx_id"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"` // closed, failed
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ProposalClosure) TableName() string {
	return "proposal_closures"
}

// SweepRun 批量关闭任务的一次执行
type SweepRun struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID      string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"run_id"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Closed     int        `gorm:"not null;default:0" json:"closed"`
	Skipped    int        `gorm:"not null;default:0" json:"skipped"`
	Failed     int        `gorm:"not null;default:0" json:"failed"`
}

func (SweepRun) TableName() string {
	return "sweep_runs"
}

// Outbox 消息状态
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
)

// OutboxMessage 本地消息表 (Transactional Outbox)
type OutboxMessage struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic     string         `gorm:"type:varchar(255);not null" json:"topic"`
	Payload   []byte         `gorm:"type:text;not null" json:"payload"`
	Status    string         `gorm:"type:varchar(50);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
