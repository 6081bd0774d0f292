package services

import (
	"gorm.io/gorm"

	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log stores an audit entry. A failed write is logged and swallowed so the
// audited operation, already committed, still succeeds.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	if len(changes) == 0 {
		changes = nil
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("audit log write failed",
			"user_id", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
			"error", err,
		)
	}
}
