package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationLog records every outgoing customer message attempt
// (order ready, due reminder).
type NotificationLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID   string    `gorm:"index;type:varchar(64)"`
	OrderID      string    `gorm:"index;type:varchar(64)"`
	Type         string    `gorm:"type:varchar(20)"` // ready, due
	Message      string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string    `gorm:"type:text"`
	Channel      string    `gorm:"type:varchar(20)"` // whatsapp, sms
	SentAt       time.Time
	gorm.Model
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	n.ID = uuid.New()
	return
}
