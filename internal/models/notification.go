package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotificationVisitorRequest  = "visitor_request"
	NotificationVisitorApproved = "visitor_approved"
	NotificationVisitorRejected = "visitor_rejected"
	NotificationCabEntry        = "cab_entry"
	NotificationGeneral         = "general"
)

// Notification is a server-owned alert derived from visit and request state
// changes. Delivery state is per recipient; notifications are retained
// indefinitely and only ever mutated by the mark-as-read action.
type Notification struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	Type      string         `gorm:"not null;index" json:"type"`
	Title     string         `gorm:"not null" json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	IsRead    bool           `gorm:"default:false" json:"isRead"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	From      string         `json:"from,omitempty"`
	To        string         `gorm:"index;not null" json:"to"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"` // e.g. {"requestId": "...", "visitId": "..."}
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
