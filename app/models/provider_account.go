package models

import "time"

// ProviderAccount links a social login identity to a local user. One user
// may have several linked providers.
type ProviderAccount struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	Provider       string     `gorm:"type:varchar(50);not null;uniqueIndex:ux_provider_account,priority:1" json:"provider"`
	ProviderUserID string     `gorm:"type:varchar(255);not null;uniqueIndex:ux_provider_account,priority:2" json:"-"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	ExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
