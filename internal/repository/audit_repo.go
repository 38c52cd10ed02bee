package repository

import (
	"club-room-booking/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends an entry for user
func (r *AuditRepository) Record(user *models.User, action, details string) error {
	entry := &models.AuditLog{
		Action:  action,
		Details: details,
	}
	if user != nil {
		entry.UserID = &user.ID
		entry.Email = user.Email
	}
	return r.db.Create(entry).Error
}

// ListAuditLogs returns the newest entries first. An empty action matches all.
func (r *AuditRepository) ListAuditLogs(action string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	q := r.db.Order("id DESC").Limit(limit)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	err := q.Find(&logs).Error
	return logs, err
}
