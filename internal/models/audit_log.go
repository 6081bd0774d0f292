package models

// AuditLog is one state-changing action taken by a user through the API.
// Changes holds the request fields that mattered for the action.
type AuditLog struct {
	Base
	UserID       string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string         `gorm:"size:64;not null" json:"action"`
	ResourceType string         `gorm:"size:64;not null" json:"resource_type"`
	ResourceID   string         `gorm:"size:64" json:"resource_id"`
	IPAddress    string         `gorm:"size:64" json:"ip_address"`
	Changes      map[string]any `gorm:"type:text;serializer:json" json:"changes,omitempty"`
}
