package models

import "time"

// RequestEvent records one lifecycle transition for auditing.
type RequestEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  uint      `gorm:"index;not null" json:"requestId"`
	ActorID    uint      `gorm:"index;not null" json:"actorId"`
	Operation  string    `gorm:"size:40;not null" json:"operation"`
	FromStatus Status    `gorm:"size:20" json:"fromStatus,omitempty"`
	ToStatus   Status    `gorm:"size:20;not null" json:"toStatus"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (RequestEvent) TableName() string { return "lsb_request_events" }
