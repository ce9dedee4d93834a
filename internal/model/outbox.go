package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// CreateOutboxMessage 在调用方的事务中写入一条待投递消息
func CreateOutboxMessage(tx *gorm.DB, topic string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return tx.Create(&OutboxMessage{
		Topic:   topic,
		Payload: payloadBytes,
		Status:  OutboxPending,
	}).Error
}

// FetchPendingOutbox 按写入顺序取出待投递消息
func FetchPendingOutbox(db *gorm.DB, limit int) ([]OutboxMessage, error) {
	var msgs []OutboxMessage
	err := db.Where("status = ?", OutboxPending).Order("id asc").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// MarkOutboxSent 标记已投递
func MarkOutboxSent(db *gorm.DB, id uint64) error {
	return db.Model(&OutboxMessage{}).Where("id = ?", id).Update("status", OutboxSent).Error
}
