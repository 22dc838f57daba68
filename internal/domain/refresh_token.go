package domain

import "time"

// RefreshToken представляет выданный refresh токен. Token хранит JWT ID, а не сам токен.
type RefreshToken struct {
	ID         int64      `gorm:"primaryKey;column:id" json:"id"`
	UserID     int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	Token      string     `gorm:"column:token;size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	IsRevoked  bool       `gorm:"column:is_revoked;not null;default:false" json:"is_revoked"`
	UserAgent  *string    `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	IPAddress  *string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired проверяет, истек ли токен
func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// IsValid проверяет, является ли токен валидным
func (rt *RefreshToken) IsValid(now time.Time) bool {
	return !rt.IsExpired(now) && !rt.IsRevoked && rt.Token != ""
}
