package models

import "time"

// AuditLog records account events: registrations, logins and admin grants.
// Booking decisions live in the request history instead.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *string   `gorm:"size:36;index" json:"uid"`
	Email     string    `gorm:"size:255" json:"email"`
	Action    string    `gorm:"size:100;not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
